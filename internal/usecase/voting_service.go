package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

const (
	sweepStatusSuccess = "success"
	sweepStatusFailed  = "failed"
	sweepStatusSkipped = "skipped"

	defaultSweepWorkers    = 4
	maxSweepWorkers        = 16
	defaultSweepBatchLimit = 500
)

type VotingConfig struct {
	MaxWorkers int
	BatchLimit int
}

type CastVoteInput struct {
	MatchID       string
	VoterMemberID string
	VotedMemberID string
}

type SweepInput struct {
	MaxWorkers int
}

type SweepResult struct {
	MatchCount   int                `json:"match_count"`
	SuccessCount int                `json:"success_count"`
	SkippedCount int                `json:"skipped_count"`
	FailedCount  int                `json:"failed_count"`
	WorkerCount  int                `json:"worker_count"`
	Matches      []SweepMatchResult `json:"matches"`
}

type SweepMatchResult struct {
	MatchID    string `json:"match_id"`
	GroupID    string `json:"group_id"`
	Status     string `json:"status"`
	WinnerID   string `json:"winner_id,omitempty"`
	Votes      int    `json:"votes"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// VotingService runs the MVP ballot window and the sweep that closes it.
type VotingService struct {
	matchRepo    match.Repository
	committer    ledger.Committer
	dispatchRepo jobscheduler.Repository
	cfg          VotingConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewVotingService(
	matchRepo match.Repository,
	committer ledger.Committer,
	dispatchRepo jobscheduler.Repository,
	cfg VotingConfig,
	logger *logging.Logger,
) *VotingService {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultSweepWorkers
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultSweepBatchLimit
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VotingService{
		matchRepo:    matchRepo,
		committer:    committer,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// CastVote records or replaces voter's ballot. A ballot racing the sweep may land on either side of closesAt.
func (s *VotingService) CastVote(ctx context.Context, input CastVoteInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.VotingService.CastVote")
	defer span.End()

	matchID := strings.TrimSpace(input.MatchID)
	voterID := strings.TrimSpace(input.VoterMemberID)
	votedID := strings.TrimSpace(input.VotedMemberID)
	if matchID == "" || voterID == "" || votedID == "" {
		return fmt.Errorf("%w: match id, voter and voted member are required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match for vote: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	now := s.now().UTC()
	if !item.AcceptsBallotsAt(now) {
		return fmt.Errorf("%w: match=%s status=%s closes_at=%s", ErrVotingClosed, matchID, item.Voting.Status, item.Voting.ClosesAt.Format(time.RFC3339))
	}
	if _, _, ok := item.Participant(voterID); !ok {
		return fmt.Errorf("%w: member=%s did not play match=%s", ErrNotEligible, voterID, matchID)
	}
	if _, _, ok := item.Participant(votedID); !ok {
		return fmt.Errorf("%w: voted member=%s did not play match=%s", ErrInvalidInput, votedID, matchID)
	}

	stored, err := s.matchRepo.SaveBallot(ctx, matchID, voterID, votedID, now)
	if err != nil {
		return fmt.Errorf("%w: save ballot match=%s: %w", ErrStore, matchID, err)
	}
	if !stored {
		return fmt.Errorf("%w: match=%s closed before the ballot was stored", ErrVotingClosed, matchID)
	}
	return nil
}

// RunSweep resolves every match whose voting window has elapsed. Each match is isolated.
func (s *VotingService) RunSweep(ctx context.Context, input SweepInput) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VotingService.RunSweep")
	defer span.End()

	now := s.now().UTC()
	if err := ensureRecomputeIdle(ctx, s.dispatchRepo); err != nil {
		return SweepResult{}, err
	}
	due, err := s.listDue(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}

	maxWorkers := input.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = s.cfg.MaxWorkers
	}
	workerCount := normalizeWorkerCount(maxWorkers, len(due), maxSweepWorkers)
	result := SweepResult{
		MatchCount:  len(due),
		WorkerCount: workerCount,
		Matches:     make([]SweepMatchResult, 0, len(due)),
	}
	if len(due) == 0 {
		return result, nil
	}

	results := make(chan SweepMatchResult, len(due))
	var successCount, failedCount, skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SweepResult{}, fmt.Errorf("create sweep worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, item := range due {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.resolveMatch(ctx, item, now)
			row.DurationMs = time.Since(start).Milliseconds()
			switch row.Status {
			case sweepStatusSuccess:
				successCount.Add(1)
			case sweepStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			return SweepResult{}, fmt.Errorf("submit sweep task: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Matches = append(result.Matches, row)
	}
	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].MatchID < result.Matches[j].MatchID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	s.logger.InfoContext(ctx, "mvp sweep finished",
		"matches", result.MatchCount,
		"success", result.SuccessCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

// listDue reads every due match, one page of BatchLimit at a time.
func (s *VotingService) listDue(ctx context.Context, now time.Time) ([]match.Match, error) {
	var (
		due     []match.Match
		afterID string
	)
	for {
		page, err := s.matchRepo.ListVotingDue(ctx, now, afterID, s.cfg.BatchLimit)
		if err != nil {
			return nil, fmt.Errorf("list matches with voting due after=%q: %w", afterID, err)
		}
		due = append(due, page...)
		if len(page) < s.cfg.BatchLimit {
			return due, nil
		}
		afterID = page[len(page)-1].ID
	}
}

func (s *VotingService) resolveMatch(ctx context.Context, item match.Match, now time.Time) SweepMatchResult {
	row := SweepMatchResult{MatchID: item.ID, GroupID: item.GroupID}

	if item.Voting.Status != match.VotingOpen {
		row.Status = sweepStatusSkipped
		row.Message = "voting already calculated"
		return row
	}

	winnerID, _ := match.Winner(item.Ballots)
	batch := ledger.NewBatch()
	if winnerID != "" {
		contribution, ok := seasonstats.MvpContribution(item, winnerID)
		if !ok {
			s.logger.WarnContext(ctx, "mvp winner is not a participant, closing without winner", "match_id", item.ID, "member_id", winnerID)
			winnerID = ""
		} else {
			batch.ResolveVoting(item.ID, winnerID, now).Contribute(contribution)
		}
	}
	if winnerID == "" {
		batch = ledger.NewBatch().ResolveVoting(item.ID, "", now)
	}

	if err := s.committer.Commit(ctx, batch); err != nil {
		if errors.Is(err, ledger.ErrVotingAlreadyResolved) {
			row.Status = sweepStatusSkipped
			row.Message = "voting already calculated"
			return row
		}
		s.logger.ErrorContext(ctx, "resolve mvp voting failed", "match_id", item.ID, "error", err)
		row.Status = sweepStatusFailed
		row.Message = err.Error()
		return row
	}

	row.Status = sweepStatusSuccess
	row.WinnerID = winnerID
	for _, tally := range match.TallyBallots(item.Ballots) {
		if tally.MemberID == winnerID {
			row.Votes = tally.Votes
		}
	}
	return row
}

func normalizeWorkerCount(value, taskCount, ceiling int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if ceiling > 0 && value > ceiling {
		value = ceiling
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
