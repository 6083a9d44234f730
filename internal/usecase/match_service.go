package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

const defaultVotingWindow = 24 * time.Hour

type MatchConfig struct {
	VotingWindow time.Duration
}

type RecordMatchInput struct {
	GroupID string
	Date    time.Time
	Team1   []match.Entry
	Team2   []match.Entry
}

// MatchService records finished matches and applies their statistical effect in one batch.
type MatchService struct {
	memberRepo   member.Repository
	matchRepo    match.Repository
	committer    ledger.Committer
	dispatchRepo jobscheduler.Repository
	publisher    notification.Publisher
	idGen        id.Generator
	cfg          MatchConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewMatchService(
	memberRepo member.Repository,
	matchRepo match.Repository,
	committer ledger.Committer,
	dispatchRepo jobscheduler.Repository,
	publisher notification.Publisher,
	idGen id.Generator,
	cfg MatchConfig,
	logger *logging.Logger,
) *MatchService {
	if publisher == nil {
		publisher = notification.NewNoopPublisher()
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator("mt_")
	}
	if cfg.VotingWindow <= 0 {
		cfg.VotingWindow = defaultVotingWindow
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		memberRepo:   memberRepo,
		matchRepo:    matchRepo,
		committer:    committer,
		dispatchRepo: dispatchRepo,
		publisher:    publisher,
		idGen:        idGen,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *MatchService) RecordMatch(ctx context.Context, input RecordMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordMatch")
	defer span.End()

	candidate := match.Match{
		GroupID: strings.TrimSpace(input.GroupID),
		Date:    input.Date.UTC(),
		Team1:   normalizeEntries(input.Team1),
		Team2:   normalizeEntries(input.Team2),
	}
	if err := candidate.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.ensureMembersResolvable(ctx, candidate); err != nil {
		return match.Match{}, err
	}
	if err := ensureRecomputeIdle(ctx, s.dispatchRepo); err != nil {
		return match.Match{}, err
	}

	matchID, err := s.idGen.NewID()
	if err != nil {
		return match.Match{}, fmt.Errorf("generate match id: %w", err)
	}

	now := s.now().UTC()
	candidate.ID = matchID
	candidate.Season = match.SeasonOf(candidate.Date)
	candidate.GoalsTeam1, candidate.GoalsTeam2 = match.FinalScores(candidate.Team1, candidate.Team2)
	candidate.Voting = match.Voting{
		Status:   match.VotingOpen,
		OpensAt:  now,
		ClosesAt: now.Add(s.cfg.VotingWindow),
	}
	candidate.Ballots = map[string]string{}
	candidate.CreatedAt = now

	batch := ledger.NewBatch().PutMatch(candidate)
	for _, contribution := range seasonstats.MatchContributions(candidate) {
		batch.Contribute(contribution)
	}
	if err := s.committer.Commit(ctx, batch); err != nil {
		return match.Match{}, fmt.Errorf("%w: record match group=%s: %w", ErrStore, candidate.GroupID, err)
	}

	s.logger.InfoContext(ctx, "match recorded",
		"match_id", candidate.ID,
		"group_id", candidate.GroupID,
		"season", candidate.Season,
		"score", fmt.Sprintf("%d-%d", candidate.GoalsTeam1, candidate.GoalsTeam2),
	)

	event := notification.Event{Type: notification.EventMatchCreated, MatchID: candidate.ID, GroupID: candidate.GroupID}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish match created event failed", "match_id", candidate.ID, "error", err)
	}

	return candidate, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return item, nil
}

// ListMatches returns a group's matches; an empty season lists every season.
func (s *MatchService) ListMatches(ctx context.Context, groupID, season string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListMatches")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}

	year := 0
	if season = strings.TrimSpace(season); season != "" {
		parsed, err := seasonstats.ParseSeason(season)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		year = parsed
	}

	items, err := s.matchRepo.ListByGroup(ctx, groupID, year)
	if err != nil {
		return nil, fmt.Errorf("list matches group=%s: %w", groupID, err)
	}
	return items, nil
}

func (s *MatchService) ensureMembersResolvable(ctx context.Context, candidate match.Match) error {
	members, err := s.memberRepo.ListByGroup(ctx, candidate.GroupID)
	if err != nil {
		return fmt.Errorf("list group members group=%s: %w", candidate.GroupID, err)
	}

	known := make(map[string]struct{}, len(members))
	for _, item := range members {
		known[item.ID] = struct{}{}
	}
	for _, memberID := range candidate.MemberIDs() {
		if _, ok := known[memberID]; !ok {
			return fmt.Errorf("%w: member=%s does not belong to group=%s", ErrInvalidInput, memberID, candidate.GroupID)
		}
	}
	return nil
}

func normalizeEntries(entries []match.Entry) []match.Entry {
	out := make([]match.Entry, 0, len(entries))
	for _, entry := range entries {
		entry.MemberID = strings.TrimSpace(entry.MemberID)
		entry.Position = match.Position(strings.ToUpper(strings.TrimSpace(string(entry.Position))))
		out = append(out, entry)
	}
	return out
}
