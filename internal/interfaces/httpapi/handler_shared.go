package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/sunday-league/internal/domain/invite"
	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"github.com/riskibarqy/sunday-league/internal/usecase"
)

type Handler struct {
	matchService       *usecase.MatchService
	votingService      *usecase.VotingService
	seasonStatsService *usecase.SeasonStatsService
	memberService      *usecase.MemberService
	inviteService      *usecase.InviteService
	migrationService   *usecase.MigrationService
	jobOrchestrator    *usecase.JobOrchestratorService
	jobDispatchRepo    jobscheduler.Repository
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	votingService *usecase.VotingService,
	seasonStatsService *usecase.SeasonStatsService,
	memberService *usecase.MemberService,
	inviteService *usecase.InviteService,
	migrationService *usecase.MigrationService,
	jobOrchestrator *usecase.JobOrchestratorService,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:       matchService,
		votingService:      votingService,
		seasonStatsService: seasonStatsService,
		memberService:      memberService,
		inviteService:      inviteService,
		migrationService:   migrationService,
		jobOrchestrator:    jobOrchestrator,
		jobDispatchRepo:    jobDispatchRepo,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON rejects unknown fields; an empty body is allowed only when allowEmpty is set.
func decodeJSON(r *http.Request, out any, allowEmpty bool) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// actingMember resolves the authenticated caller to a member of groupID.
func (h *Handler) actingMember(ctx context.Context, groupID string) (member.Member, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return member.Member{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return h.memberService.MemberForUser(ctx, groupID, principal.UserID)
}

type recordMatchRequest struct {
	Date  string              `json:"date" validate:"required"`
	Team1 []matchEntryRequest `json:"team1" validate:"required,min=1,dive"`
	Team2 []matchEntryRequest `json:"team2" validate:"required,min=1,dive"`
}

type matchEntryRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Position string `json:"position" validate:"required,oneof=GK DF MD FW"`
	Goals    int    `json:"goals" validate:"gte=0"`
	Assists  int    `json:"assists" validate:"gte=0"`
	OwnGoals int    `json:"own_goals" validate:"gte=0"`
}

type castVoteRequest struct {
	VotedMemberID string `json:"voted_member_id" validate:"required"`
}

type addGuestRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

type renameMemberRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

type linkMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type createInviteRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type internalJobRequest struct {
	DispatchID string `json:"dispatch_id"`
	MaxWorkers int    `json:"max_workers" validate:"gte=0,lte=64"`
}

type matchEntryDTO struct {
	MemberID string `json:"member_id"`
	Position string `json:"position"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
	OwnGoals int    `json:"own_goals"`
}

type votingDTO struct {
	Status       string `json:"status"`
	OpensAt      string `json:"opens_at"`
	ClosesAt     string `json:"closes_at"`
	CalculatedAt string `json:"calculated_at,omitempty"`
	BallotCount  int    `json:"ballot_count"`
}

type matchDTO struct {
	ID            string          `json:"id"`
	GroupID       string          `json:"group_id"`
	Season        int             `json:"season"`
	Date          string          `json:"date"`
	Team1         []matchEntryDTO `json:"team1"`
	Team2         []matchEntryDTO `json:"team2"`
	GoalsTeam1    int             `json:"goals_team1"`
	GoalsTeam2    int             `json:"goals_team2"`
	MvpMemberID   string          `json:"mvp_member_id,omitempty"`
	Voting        votingDTO       `json:"voting"`
	LegacyMatchID string          `json:"legacy_match_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type memberDTO struct {
	ID          string   `json:"id"`
	GroupID     string   `json:"group_id"`
	UserID      string   `json:"user_id,omitempty"`
	DisplayName string   `json:"display_name"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	IsGuest     bool     `json:"is_guest"`
	Role        string   `json:"role"`
	LegacyIDs   []string `json:"legacy_ids,omitempty"`
}

type inviteDTO struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	MemberID    string `json:"member_id"`
	Email       string `json:"email"`
	InvitedBy   string `json:"invited_by"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	RespondedAt string `json:"responded_at,omitempty"`
}

func toMatchEntries(items []matchEntryRequest) []match.Entry {
	out := make([]match.Entry, 0, len(items))
	for _, item := range items {
		out = append(out, match.Entry{
			MemberID: strings.TrimSpace(item.MemberID),
			Position: match.Position(item.Position),
			Goals:    item.Goals,
			Assists:  item.Assists,
			OwnGoals: item.OwnGoals,
		})
	}
	return out
}

func normalizePositions(items []matchEntryRequest) {
	for i := range items {
		items[i].Position = strings.ToUpper(strings.TrimSpace(items[i].Position))
	}
}

// parseMatchDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates (midnight UTC).
func parseMatchDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if v, err := time.Parse(time.RFC3339, raw); err == nil {
		return v.UTC(), nil
	}
	v, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be RFC3339 or YYYY-MM-DD", usecase.ErrInvalidInput)
	}
	return v.UTC(), nil
}

func matchToDTO(v match.Match) matchDTO {
	voting := votingDTO{
		Status:       string(v.Voting.Status),
		OpensAt:      formatTime(v.Voting.OpensAt),
		ClosesAt:     formatTime(v.Voting.ClosesAt),
		CalculatedAt: formatOptionalTime(v.Voting.CalculatedAt),
		BallotCount:  len(v.Ballots),
	}

	return matchDTO{
		ID:            v.ID,
		GroupID:       v.GroupID,
		Season:        v.Season,
		Date:          formatTime(v.Date),
		Team1:         entriesToDTO(v.Team1),
		Team2:         entriesToDTO(v.Team2),
		GoalsTeam1:    v.GoalsTeam1,
		GoalsTeam2:    v.GoalsTeam2,
		MvpMemberID:   v.MvpMemberID,
		Voting:        voting,
		LegacyMatchID: v.LegacyMatchID,
		CreatedAt:     formatTime(v.CreatedAt),
	}
}

func entriesToDTO(items []match.Entry) []matchEntryDTO {
	out := make([]matchEntryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchEntryDTO{
			MemberID: item.MemberID,
			Position: string(item.Position),
			Goals:    item.Goals,
			Assists:  item.Assists,
			OwnGoals: item.OwnGoals,
		})
	}
	return out
}

func memberToDTO(v member.Member) memberDTO {
	return memberDTO{
		ID:          v.ID,
		GroupID:     v.GroupID,
		UserID:      v.UserID,
		DisplayName: v.DisplayName,
		PhotoURL:    v.PhotoURL,
		IsGuest:     v.IsGuest,
		Role:        string(v.Role),
		LegacyIDs:   append([]string(nil), v.LegacyIDs...),
	}
}

func inviteToDTO(v invite.Invite) inviteDTO {
	return inviteDTO{
		ID:          v.ID,
		GroupID:     v.GroupID,
		MemberID:    v.MemberID,
		Email:       v.Email,
		InvitedBy:   v.InvitedBy,
		Status:      string(v.Status),
		CreatedAt:   formatTime(v.CreatedAt),
		RespondedAt: formatOptionalTime(v.RespondedAt),
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}
