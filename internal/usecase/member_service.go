package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
)

type AddGuestInput struct {
	GroupID     string
	DisplayName string
	PhotoURL    string
}

type MemberService struct {
	memberRepo member.Repository
	idGen      id.Generator
	now        func() time.Time
}

func NewMemberService(memberRepo member.Repository, idGen id.Generator) *MemberService {
	if idGen == nil {
		idGen = id.NewUUIDGenerator("mbr_")
	}
	return &MemberService{memberRepo: memberRepo, idGen: idGen, now: time.Now}
}

func (s *MemberService) ListMembers(ctx context.Context, groupID string) ([]member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.ListMembers")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	items, err := s.memberRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members group=%s: %w", groupID, err)
	}
	return items, nil
}

func (s *MemberService) AddGuest(ctx context.Context, input AddGuestInput) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.AddGuest")
	defer span.End()

	memberID, err := s.idGen.NewID()
	if err != nil {
		return member.Member{}, fmt.Errorf("generate member id: %w", err)
	}

	now := s.now().UTC()
	item := member.Member{
		ID:          memberID,
		GroupID:     strings.TrimSpace(input.GroupID),
		DisplayName: strings.TrimSpace(input.DisplayName),
		PhotoURL:    strings.TrimSpace(input.PhotoURL),
		IsGuest:     true,
		Role:        member.RoleMember,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.Validate(); err != nil {
		return member.Member{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.memberRepo.Create(ctx, item); err != nil {
		return member.Member{}, fmt.Errorf("create guest member: %w", err)
	}
	return item, nil
}

func (s *MemberService) Rename(ctx context.Context, memberID, displayName string) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.Rename")
	defer span.End()

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return member.Member{}, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	item, err := s.get(ctx, memberID)
	if err != nil {
		return member.Member{}, err
	}

	item.DisplayName = displayName
	item.UpdatedAt = s.now().UTC()
	if err := s.memberRepo.Update(ctx, item); err != nil {
		return member.Member{}, fmt.Errorf("rename member=%s: %w", item.ID, err)
	}
	return item, nil
}

// LinkUser binds a user account to a member. A user may be linked once per group.
func (s *MemberService) LinkUser(ctx context.Context, memberID, userID string) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.LinkUser")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return member.Member{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	item, err := s.get(ctx, memberID)
	if err != nil {
		return member.Member{}, err
	}
	if item.UserID == userID {
		return item, nil
	}
	if item.IsLinked() {
		return member.Member{}, fmt.Errorf("%w: member=%s is already linked", ErrInvalidInput, item.ID)
	}

	existing, exists, err := s.memberRepo.FindByUserID(ctx, item.GroupID, userID)
	if err != nil {
		return member.Member{}, fmt.Errorf("find member by user: %w", err)
	}
	if exists && existing.ID != item.ID {
		return member.Member{}, fmt.Errorf("%w: user is already linked to member=%s", ErrInvalidInput, existing.ID)
	}

	item.UserID = userID
	item.IsGuest = false
	item.UpdatedAt = s.now().UTC()
	if err := s.memberRepo.Update(ctx, item); err != nil {
		return member.Member{}, fmt.Errorf("link member=%s: %w", item.ID, err)
	}
	return item, nil
}

// UnlinkUser clears the user binding; the member and its stats stay.
func (s *MemberService) UnlinkUser(ctx context.Context, memberID string) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.UnlinkUser")
	defer span.End()

	item, err := s.get(ctx, memberID)
	if err != nil {
		return member.Member{}, err
	}
	if !item.IsLinked() {
		return item, nil
	}

	item.UserID = ""
	item.IsGuest = true
	item.UpdatedAt = s.now().UTC()
	if err := s.memberRepo.Update(ctx, item); err != nil {
		return member.Member{}, fmt.Errorf("unlink member=%s: %w", item.ID, err)
	}
	return item, nil
}

func (s *MemberService) GetMember(ctx context.Context, memberID string) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.GetMember")
	defer span.End()

	return s.get(ctx, memberID)
}

// MemberForUser resolves the member a user account acts as inside a group.
func (s *MemberService) MemberForUser(ctx context.Context, groupID, userID string) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MemberService.MemberForUser")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return member.Member{}, fmt.Errorf("%w: group id and user id are required", ErrInvalidInput)
	}
	item, exists, err := s.memberRepo.FindByUserID(ctx, groupID, userID)
	if err != nil {
		return member.Member{}, fmt.Errorf("find member by user: %w", err)
	}
	if !exists {
		return member.Member{}, fmt.Errorf("%w: user is not a member of group=%s", ErrNotEligible, groupID)
	}
	return item, nil
}

func (s *MemberService) get(ctx context.Context, memberID string) (member.Member, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return member.Member{}, fmt.Errorf("%w: member id is required", ErrInvalidInput)
	}
	item, exists, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return member.Member{}, fmt.Errorf("get member: %w", err)
	}
	if !exists {
		return member.Member{}, fmt.Errorf("%w: member=%s", ErrNotFound, memberID)
	}
	return item, nil
}
