package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/invite"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

type CreateInviteInput struct {
	GroupID   string
	MemberID  string
	Email     string
	InvitedBy string
}

type InviteService struct {
	inviteRepo invite.Repository
	memberRepo member.Repository
	members    *MemberService
	publisher  notification.Publisher
	idGen      id.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewInviteService(
	inviteRepo invite.Repository,
	memberRepo member.Repository,
	members *MemberService,
	publisher notification.Publisher,
	idGen id.Generator,
	logger *logging.Logger,
) *InviteService {
	if publisher == nil {
		publisher = notification.NewNoopPublisher()
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator("inv_")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &InviteService{
		inviteRepo: inviteRepo,
		memberRepo: memberRepo,
		members:    members,
		publisher:  publisher,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *InviteService) CreateInvite(ctx context.Context, input CreateInviteInput) (invite.Invite, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InviteService.CreateInvite")
	defer span.End()

	groupID := strings.TrimSpace(input.GroupID)
	memberID := strings.TrimSpace(input.MemberID)
	target, exists, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return invite.Invite{}, fmt.Errorf("get invite target member: %w", err)
	}
	if !exists || target.GroupID != groupID {
		return invite.Invite{}, fmt.Errorf("%w: member=%s in group=%s", ErrNotFound, memberID, groupID)
	}
	if target.IsLinked() {
		return invite.Invite{}, fmt.Errorf("%w: member=%s is already linked", ErrInvalidInput, memberID)
	}

	inviteID, err := s.idGen.NewID()
	if err != nil {
		return invite.Invite{}, fmt.Errorf("generate invite id: %w", err)
	}
	item := invite.Invite{
		ID:        inviteID,
		GroupID:   groupID,
		MemberID:  memberID,
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		InvitedBy: strings.TrimSpace(input.InvitedBy),
		Status:    invite.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return invite.Invite{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.inviteRepo.Create(ctx, item); err != nil {
		return invite.Invite{}, fmt.Errorf("create invite: %w", err)
	}

	event := notification.Event{Type: notification.EventInviteReceived, InviteID: item.ID}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish invite received event failed", "invite_id", item.ID, "error", err)
	}
	return item, nil
}

// AcceptInvite links userID to the invited member and consumes the invite.
func (s *InviteService) AcceptInvite(ctx context.Context, inviteID, userID string) (invite.Invite, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InviteService.AcceptInvite")
	defer span.End()

	item, err := s.pending(ctx, inviteID)
	if err != nil {
		return invite.Invite{}, err
	}
	if _, err := s.members.LinkUser(ctx, item.MemberID, userID); err != nil {
		return invite.Invite{}, err
	}
	return s.respond(ctx, item, invite.StatusAccepted)
}

func (s *InviteService) RejectInvite(ctx context.Context, inviteID string) (invite.Invite, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InviteService.RejectInvite")
	defer span.End()

	item, err := s.pending(ctx, inviteID)
	if err != nil {
		return invite.Invite{}, err
	}
	return s.respond(ctx, item, invite.StatusRejected)
}

func (s *InviteService) pending(ctx context.Context, inviteID string) (invite.Invite, error) {
	inviteID = strings.TrimSpace(inviteID)
	if inviteID == "" {
		return invite.Invite{}, fmt.Errorf("%w: invite id is required", ErrInvalidInput)
	}
	item, exists, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return invite.Invite{}, fmt.Errorf("get invite: %w", err)
	}
	if !exists {
		return invite.Invite{}, fmt.Errorf("%w: invite=%s", ErrNotFound, inviteID)
	}
	if !item.IsPending() {
		return invite.Invite{}, fmt.Errorf("%w: invite=%s is %s", ErrInvalidInput, inviteID, item.Status)
	}
	return item, nil
}

func (s *InviteService) respond(ctx context.Context, item invite.Invite, status invite.Status) (invite.Invite, error) {
	at := s.now().UTC()
	item.Status = status
	item.RespondedAt = &at
	if err := s.inviteRepo.Update(ctx, item); err != nil {
		return invite.Invite{}, fmt.Errorf("update invite=%s: %w", item.ID, err)
	}
	return item, nil
}
