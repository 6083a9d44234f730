package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/legacy"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	migrationPhaseMembers   = "members"
	migrationPhaseMatches   = "matches"
	migrationPhaseRecompute = "recompute"

	defaultMigrationWorkers = 4
	maxMigrationWorkers     = 16
)

type MigrationConfig struct {
	MaxWorkers int
}

type MigrateMatchesInput struct {
	MaxWorkers int
}

type MemberMigrationResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Linked  int              `json:"linked"`
	Issues  []MigrationIssue `json:"issues"`
}

type MatchMigrationResult struct {
	Migrated    int              `json:"migrated"`
	Skipped     int              `json:"skipped"`
	Failed      int              `json:"failed"`
	WorkerCount int              `json:"worker_count"`
	Issues      []MigrationIssue `json:"issues"`
}

type RecomputeResult struct {
	Matches int `json:"matches"`
	Records int `json:"records"`
}

type DeduplicationReport struct {
	Members   MemberMigrationResult `json:"members"`
	Matches   MatchMigrationResult  `json:"matches"`
	Recompute RecomputeResult       `json:"recompute"`
}

// MigrationService consolidates legacy identities, rewrites legacy matches and rebuilds the stats ledger.
type MigrationService struct {
	legacyRepo   legacy.Repository
	memberRepo   member.Repository
	matchRepo    match.Repository
	statsRepo    seasonstats.Repository
	committer    ledger.Committer
	dispatchRepo jobscheduler.Repository
	memberIDGen  id.Generator
	matchIDGen   id.Generator
	cfg          MigrationConfig
	logger       *logging.Logger
	now          func() time.Time
	fold         seasonstats.Fold
}

func NewMigrationService(
	legacyRepo legacy.Repository,
	memberRepo member.Repository,
	matchRepo match.Repository,
	statsRepo seasonstats.Repository,
	committer ledger.Committer,
	dispatchRepo jobscheduler.Repository,
	memberIDGen id.Generator,
	matchIDGen id.Generator,
	cfg MigrationConfig,
	logger *logging.Logger,
) *MigrationService {
	if memberIDGen == nil {
		memberIDGen = id.NewUUIDGenerator("mbr_")
	}
	if matchIDGen == nil {
		matchIDGen = id.NewUUIDGenerator("mt_")
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMigrationWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &MigrationService{
		legacyRepo:   legacyRepo,
		memberRepo:   memberRepo,
		matchRepo:    matchRepo,
		statsRepo:    statsRepo,
		committer:    committer,
		dispatchRepo: dispatchRepo,
		memberIDGen:  memberIDGen,
		matchIDGen:   matchIDGen,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		fold:         seasonstats.Recompute,
	}
}

type legacyPair struct {
	GroupID  string
	PlayerID string
}

// MigrateGroupMembers resolves every legacy player seen in a legacy match to a canonical member.
func (s *MigrationService) MigrateGroupMembers(ctx context.Context) (MemberMigrationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.MigrateGroupMembers")
	defer span.End()

	players, err := s.legacyRepo.ListPlayers(ctx)
	if err != nil {
		return MemberMigrationResult{}, fmt.Errorf("list legacy players: %w", err)
	}
	matches, err := s.legacyRepo.ListMatches(ctx)
	if err != nil {
		return MemberMigrationResult{}, fmt.Errorf("list legacy matches: %w", err)
	}

	playerByKey := make(map[legacyPair]legacy.Player, len(players))
	for _, item := range players {
		playerByKey[legacyPair{GroupID: item.GroupID, PlayerID: item.ID}] = item
	}

	pairs := collectLegacyPairs(matches)
	result := MemberMigrationResult{Issues: make([]MigrationIssue, 0)}
	indexes := make(map[string]*member.Index)

	for _, pair := range pairs {
		idx, ok := indexes[pair.GroupID]
		if !ok {
			members, err := s.memberRepo.ListByGroup(ctx, pair.GroupID)
			if err != nil {
				return result, fmt.Errorf("list members group=%s: %w", pair.GroupID, err)
			}
			idx = member.NewIndex(members)
			indexes[pair.GroupID] = idx
		}

		player, known := playerByKey[pair]
		if !known {
			result.Issues = append(result.Issues, MigrationIssue{
				Severity:       IssueSeverityWarning,
				Phase:          migrationPhaseMembers,
				GroupID:        pair.GroupID,
				LegacyPlayerID: pair.PlayerID,
				Message:        "legacy player record missing, legacy id used as display name",
			})
			player = legacy.Player{ID: pair.PlayerID, GroupID: pair.GroupID, Name: pair.PlayerID}
		}

		canonical, priority, found := idx.Resolve(pair.PlayerID, strings.TrimSpace(player.UserID), player.Name)
		switch {
		case found && priority == member.PriorityLegacyID:
			result.Skipped++
		case found:
			if err := s.memberRepo.AddLegacyIDs(ctx, canonical.ID, []string{pair.PlayerID}); err != nil {
				result.Issues = append(result.Issues, pairIssue(pair, fmt.Sprintf("attach legacy id to member=%s: %v", canonical.ID, err)))
				continue
			}
			canonical.LegacyIDs = append(canonical.LegacyIDs, pair.PlayerID)
			idx.AttachLegacyID(canonical, pair.PlayerID)
			result.Linked++
			s.logger.DebugContext(ctx, "legacy player attached",
				"group_id", pair.GroupID,
				"legacy_player_id", pair.PlayerID,
				"member_id", canonical.ID,
				"priority", priority.String(),
			)
		default:
			created, err := s.createGuestFromLegacy(ctx, player, pair)
			if err != nil {
				result.Issues = append(result.Issues, pairIssue(pair, err.Error()))
				continue
			}
			idx.Add(created)
			result.Created++
		}
	}

	s.logger.InfoContext(ctx, "legacy member migration finished",
		"pairs", len(pairs),
		"created", result.Created,
		"linked", result.Linked,
		"skipped", result.Skipped,
		"issues", len(result.Issues),
	)
	return result, nil
}

func (s *MigrationService) createGuestFromLegacy(ctx context.Context, player legacy.Player, pair legacyPair) (member.Member, error) {
	memberID, err := s.memberIDGen.NewID()
	if err != nil {
		return member.Member{}, fmt.Errorf("generate member id: %w", err)
	}

	name := strings.TrimSpace(player.Name)
	if name == "" {
		name = pair.PlayerID
	}
	userID := strings.TrimSpace(player.UserID)
	now := s.now().UTC()
	item := member.Member{
		ID:          memberID,
		GroupID:     pair.GroupID,
		UserID:      userID,
		DisplayName: name,
		PhotoURL:    strings.TrimSpace(player.PhotoURL),
		IsGuest:     userID == "",
		Role:        member.RoleMember,
		LegacyIDs:   []string{pair.PlayerID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.memberRepo.Create(ctx, item); err != nil {
		return member.Member{}, fmt.Errorf("create member from legacy player: %w", err)
	}
	return item, nil
}

type matchMigrationOutcome struct {
	status string
	issues []MigrationIssue
}

const (
	matchMigrated = "migrated"
	matchSkipped  = "skipped"
	matchFailed   = "failed"
)

// MigrateMatches rewrites legacy matches onto canonical member ids. Stats are left to RecomputeSeasonStats.
func (s *MigrationService) MigrateMatches(ctx context.Context, input MigrateMatchesInput) (MatchMigrationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.MigrateMatches")
	defer span.End()

	legacyMatches, err := s.legacyRepo.ListMatches(ctx)
	if err != nil {
		return MatchMigrationResult{}, fmt.Errorf("list legacy matches: %w", err)
	}
	sort.Slice(legacyMatches, func(i, j int) bool { return legacyMatches[i].ID < legacyMatches[j].ID })

	indexes := make(map[string]*member.Index)
	for _, item := range legacyMatches {
		if _, ok := indexes[item.GroupID]; ok {
			continue
		}
		members, err := s.memberRepo.ListByGroup(ctx, item.GroupID)
		if err != nil {
			return MatchMigrationResult{}, fmt.Errorf("list members group=%s: %w", item.GroupID, err)
		}
		indexes[item.GroupID] = member.NewIndex(members)
	}

	maxWorkers := input.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = s.cfg.MaxWorkers
	}
	workerCount := normalizeWorkerCount(maxWorkers, len(legacyMatches), maxMigrationWorkers)
	runAt := s.now().UTC()

	p := pool.NewWithResults[matchMigrationOutcome]().WithMaxGoroutines(workerCount)
	for _, item := range legacyMatches {
		item := item
		p.Go(func() matchMigrationOutcome {
			return s.migrateMatch(ctx, item, indexes[item.GroupID], runAt)
		})
	}
	outcomes := p.Wait()

	result := MatchMigrationResult{WorkerCount: workerCount, Issues: make([]MigrationIssue, 0)}
	for _, outcome := range outcomes {
		switch outcome.status {
		case matchMigrated:
			result.Migrated++
		case matchSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		result.Issues = append(result.Issues, outcome.issues...)
	}
	sortIssues(result.Issues)

	s.logger.InfoContext(ctx, "legacy match migration finished",
		"total", len(legacyMatches),
		"migrated", result.Migrated,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"workers", workerCount,
	)
	return result, nil
}

func (s *MigrationService) migrateMatch(ctx context.Context, item legacy.Match, idx *member.Index, runAt time.Time) matchMigrationOutcome {
	failed := func(legacyPlayerID, message string) matchMigrationOutcome {
		return matchMigrationOutcome{status: matchFailed, issues: []MigrationIssue{{
			Severity:       IssueSeverityError,
			Phase:          migrationPhaseMatches,
			GroupID:        item.GroupID,
			LegacyMatchID:  item.ID,
			LegacyPlayerID: legacyPlayerID,
			Message:        message,
		}}}
	}

	_, exists, err := s.matchRepo.GetByLegacyID(ctx, item.ID)
	if err != nil {
		return failed("", fmt.Sprintf("lookup migrated match: %v", err))
	}
	if exists {
		return matchMigrationOutcome{status: matchSkipped}
	}

	team1, unresolved := resolveLegacyEntries(item.Team1, idx)
	if unresolved != "" {
		return failed(unresolved, "legacy player has no canonical member")
	}
	team2, unresolved := resolveLegacyEntries(item.Team2, idx)
	if unresolved != "" {
		return failed(unresolved, "legacy player has no canonical member")
	}

	matchID, err := s.matchIDGen.NewID()
	if err != nil {
		return failed("", fmt.Sprintf("generate match id: %v", err))
	}

	date := item.Date.UTC()
	calculatedAt := runAt
	migrated := match.Match{
		ID:      matchID,
		GroupID: item.GroupID,
		Season:  match.SeasonOf(date),
		Date:    date,
		Team1:   team1,
		Team2:   team2,
		Voting: match.Voting{
			Status:       match.VotingCalculated,
			OpensAt:      date,
			ClosesAt:     date,
			CalculatedAt: &calculatedAt,
		},
		Ballots:       map[string]string{},
		LegacyMatchID: item.ID,
		CreatedAt:     runAt,
	}
	migrated.GoalsTeam1, migrated.GoalsTeam2 = match.FinalScores(team1, team2)
	if err := migrated.Validate(); err != nil {
		return failed("", fmt.Sprintf("invalid legacy match: %v", err))
	}

	outcome := matchMigrationOutcome{status: matchMigrated}
	warn := func(legacyPlayerID, message string) {
		outcome.issues = append(outcome.issues, MigrationIssue{
			Severity:       IssueSeverityWarning,
			Phase:          migrationPhaseMatches,
			GroupID:        item.GroupID,
			LegacyMatchID:  item.ID,
			LegacyPlayerID: legacyPlayerID,
			Message:        message,
		})
	}

	if mvpID := strings.TrimSpace(item.MvpPlayerID); mvpID != "" {
		canonical, ok := idx.LookupLegacyID(mvpID)
		switch {
		case !ok:
			warn(mvpID, "legacy mvp has no canonical member, mvp cleared")
		default:
			if _, _, played := migrated.Participant(canonical.ID); !played {
				warn(mvpID, "legacy mvp did not play in the match, mvp cleared")
			} else {
				migrated.MvpMemberID = canonical.ID
			}
		}
	}
	if migrated.GoalsTeam1 != item.Goals1 || migrated.GoalsTeam2 != item.Goals2 {
		warn("", fmt.Sprintf("stored score %d-%d differs from entries %d-%d, entries kept",
			item.Goals1, item.Goals2, migrated.GoalsTeam1, migrated.GoalsTeam2))
	}

	if err := s.committer.Commit(ctx, ledger.NewBatch().PutMatch(migrated)); err != nil {
		if errors.Is(err, ledger.ErrDuplicateMatch) {
			return matchMigrationOutcome{status: matchSkipped}
		}
		return failed("", fmt.Sprintf("write migrated match: %v", err))
	}
	return outcome
}

// RecomputeSeasonStats rebuilds the whole stats ledger from canonical matches.
// Incremental writers are refused while it runs.
func (s *MigrationService) RecomputeSeasonStats(ctx context.Context) (RecomputeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.RecomputeSeasonStats")
	defer span.End()

	if s.dispatchRepo != nil {
		started, err := s.dispatchRepo.StartIfIdle(ctx, s.recomputeEvent(ctx, jobscheduler.StatusStarted, nil, ""))
		if err != nil {
			return RecomputeResult{}, fmt.Errorf("%w: mark recompute started: %v", ErrDependencyUnavailable, err)
		}
		if !started {
			return RecomputeResult{}, fmt.Errorf("%w: season stats recompute already running", ErrDependencyUnavailable)
		}
	}

	result, err := s.recompute(ctx)
	if err != nil {
		if s.dispatchRepo != nil {
			if markErr := s.markRecompute(ctx, jobscheduler.StatusFailed, nil, err.Error()); markErr != nil {
				s.logger.ErrorContext(ctx, "mark recompute failed event failed", "error", markErr)
			}
		}
		return RecomputeResult{}, err
	}

	if s.dispatchRepo != nil {
		payload := map[string]any{"matches": result.Matches, "records": result.Records}
		if err := s.markRecompute(ctx, jobscheduler.StatusCompleted, payload, ""); err != nil {
			s.logger.ErrorContext(ctx, "mark recompute completed event failed", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "season stats recomputed", "matches", result.Matches, "records", result.Records)
	return result, nil
}

func (s *MigrationService) recompute(ctx context.Context) (RecomputeResult, error) {
	matches, records, err := s.statsRepo.Rebuild(ctx, s.fold)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("%w: rebuild season stats: %w", ErrStore, err)
	}
	return RecomputeResult{Matches: matches, Records: records}, nil
}

// ResetRecomputeGate marks a recompute left started by a crashed process as
// failed. It reports whether a started recompute was found.
func (s *MigrationService) ResetRecomputeGate(ctx context.Context) (bool, error) {
	if s.dispatchRepo == nil {
		return false, nil
	}
	latest, exists, err := s.dispatchRepo.GetLatest(ctx, jobscheduler.RecomputeDispatchID)
	if err != nil {
		return false, fmt.Errorf("%w: read recompute state: %v", ErrDependencyUnavailable, err)
	}
	if !exists || !latest.IsRunning() {
		return false, nil
	}
	if err := s.markRecompute(ctx, jobscheduler.StatusFailed, nil, "reset by operator"); err != nil {
		return false, fmt.Errorf("%w: reset recompute gate: %v", ErrDependencyUnavailable, err)
	}
	s.logger.WarnContext(ctx, "recompute gate reset", "started_at", latest.OccurredAt)
	return true, nil
}

func (s *MigrationService) markRecompute(ctx context.Context, status jobscheduler.DispatchStatus, payload map[string]any, message string) error {
	return s.dispatchRepo.UpsertEvent(ctx, s.recomputeEvent(ctx, status, payload, message))
}

func (s *MigrationService) recomputeEvent(ctx context.Context, status jobscheduler.DispatchStatus, payload map[string]any, message string) jobscheduler.DispatchEvent {
	traceID, spanID := traceMetaFromContext(ctx)
	return jobscheduler.DispatchEvent{
		DispatchID:   jobscheduler.RecomputeDispatchID,
		JobName:      jobscheduler.JobStatsRecompute,
		JobPath:      "/v1/internal/migrations/recompute",
		Status:       status,
		Payload:      payload,
		ErrorMessage: message,
		OccurredAt:   s.now().UTC(),
		TraceID:      traceID,
		SpanID:       spanID,
	}
}

// RunDeduplication runs member consolidation, match rewrite and stats recompute in order.
func (s *MigrationService) RunDeduplication(ctx context.Context) (DeduplicationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.RunDeduplication")
	defer span.End()

	var report DeduplicationReport
	members, err := s.MigrateGroupMembers(ctx)
	if err != nil {
		return report, err
	}
	report.Members = members

	matches, err := s.MigrateMatches(ctx, MigrateMatchesInput{})
	if err != nil {
		return report, err
	}
	report.Matches = matches

	recomputed, err := s.RecomputeSeasonStats(ctx)
	if err != nil {
		return report, err
	}
	report.Recompute = recomputed
	return report, nil
}

func collectLegacyPairs(matches []legacy.Match) []legacyPair {
	seen := make(map[legacyPair]struct{})
	out := make([]legacyPair, 0)
	for _, item := range matches {
		for _, team := range [][]legacy.Entry{item.Team1, item.Team2} {
			for _, entry := range team {
				playerID := strings.TrimSpace(entry.PlayerID)
				if playerID == "" {
					continue
				}
				pair := legacyPair{GroupID: item.GroupID, PlayerID: playerID}
				if _, ok := seen[pair]; ok {
					continue
				}
				seen[pair] = struct{}{}
				out = append(out, pair)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// resolveLegacyEntries maps entries onto canonical ids, returning the first unresolved legacy id.
func resolveLegacyEntries(entries []legacy.Entry, idx *member.Index) ([]match.Entry, string) {
	out := make([]match.Entry, 0, len(entries))
	for _, entry := range entries {
		playerID := strings.TrimSpace(entry.PlayerID)
		canonical, ok := idx.LookupLegacyID(playerID)
		if !ok {
			if playerID == "" {
				return nil, "(empty)"
			}
			return nil, playerID
		}
		out = append(out, match.Entry{
			MemberID: canonical.ID,
			Position: match.Position(strings.ToUpper(strings.TrimSpace(entry.Position))),
			Goals:    entry.Goals,
			Assists:  entry.Assists,
			OwnGoals: entry.OwnGoals,
		})
	}
	return out, ""
}

func pairIssue(pair legacyPair, message string) MigrationIssue {
	return MigrationIssue{
		Severity:       IssueSeverityError,
		Phase:          migrationPhaseMembers,
		GroupID:        pair.GroupID,
		LegacyPlayerID: pair.PlayerID,
		Message:        message,
	}
}

func sortIssues(items []MigrationIssue) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].GroupID != items[j].GroupID {
			return items[i].GroupID < items[j].GroupID
		}
		return items[i].LegacyMatchID < items[j].LegacyMatchID
	})
}
