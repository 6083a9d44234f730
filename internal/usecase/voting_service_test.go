package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
)

func recordFiveASide(t *testing.T, f *ledgerFixture) match.Match {
	t.Helper()

	return f.record(t, f.clock.Now(),
		[]match.Entry{entry("mbr-andi", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-budi", match.PositionForward, 1, 0, 0)},
		[]match.Entry{entry("mbr-cahyo", match.PositionMidfielder, 0, 0, 0), entry("mbr-dimas", match.PositionForward, 0, 0, 0)},
	)
}

func castVotes(t *testing.T, f *ledgerFixture, matchID string, ballots map[string]string) {
	t.Helper()

	for voter, voted := range ballots {
		err := f.voting.CastVote(context.Background(), CastVoteInput{MatchID: matchID, VoterMemberID: voter, VotedMemberID: voted})
		if err != nil {
			t.Fatalf("cast vote voter=%s: %v", voter, err)
		}
	}
}

func TestVotingService_CastVote_Preconditions(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	ctx := context.Background()
	item := recordFiveASide(t, f)

	if err := f.voting.CastVote(ctx, CastVoteInput{MatchID: "mt-missing", VoterMemberID: "mbr-andi", VotedMemberID: "mbr-budi"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.voting.CastVote(ctx, CastVoteInput{MatchID: item.ID, VoterMemberID: "mbr-ghost", VotedMemberID: "mbr-budi"}); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	if err := f.voting.CastVote(ctx, CastVoteInput{MatchID: item.ID, VoterMemberID: "mbr-andi", VotedMemberID: "mbr-ghost"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non participant candidate, got %v", err)
	}

	f.clock.Advance(24 * time.Hour)
	if err := f.voting.CastVote(ctx, CastVoteInput{MatchID: item.ID, VoterMemberID: "mbr-andi", VotedMemberID: "mbr-budi"}); !errors.Is(err, ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed at closes_at, got %v", err)
	}
}

func TestVotingService_CastVote_LastWriteWins(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := recordFiveASide(t, f)

	castVotes(t, f, item.ID, map[string]string{"mbr-andi": "mbr-budi"})
	castVotes(t, f, item.ID, map[string]string{"mbr-andi": "mbr-dimas"})

	stored, _, err := f.store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if len(stored.Ballots) != 1 || stored.Ballots["mbr-andi"] != "mbr-dimas" {
		t.Fatalf("unexpected ballots after revote: %v", stored.Ballots)
	}
}

func TestVotingService_RunSweep_PluralityWinner(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := recordFiveASide(t, f)
	castVotes(t, f, item.ID, map[string]string{
		"mbr-andi":  "mbr-budi",
		"mbr-cahyo": "mbr-budi",
		"mbr-dimas": "mbr-cahyo",
	})

	f.clock.Advance(25 * time.Hour)
	result, err := f.voting.RunSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if result.SuccessCount != 1 || len(result.Matches) != 1 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	if row := result.Matches[0]; row.WinnerID != "mbr-budi" || row.Votes != 2 {
		t.Fatalf("unexpected sweep row: %+v", row)
	}

	stored, _, _ := f.store.GetByID(context.Background(), item.ID)
	if stored.MvpMemberID != "mbr-budi" || stored.Voting.Status != match.VotingCalculated || stored.Voting.CalculatedAt == nil {
		t.Fatalf("unexpected resolved match: mvp=%s voting=%+v", stored.MvpMemberID, stored.Voting)
	}
	if got := f.statsRecord(t, 2025, "mbr-budi").Field.Mvps; got != 1 {
		t.Fatalf("expected one field mvp, got=%d", got)
	}
}

func TestVotingService_RunSweep_TieGoesToSmallestMemberID(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := recordFiveASide(t, f)
	castVotes(t, f, item.ID, map[string]string{
		"mbr-budi": "mbr-dimas",
		"mbr-andi": "mbr-cahyo",
	})

	f.clock.Advance(25 * time.Hour)
	if _, err := f.voting.RunSweep(context.Background(), SweepInput{}); err != nil {
		t.Fatalf("run sweep: %v", err)
	}

	stored, _, _ := f.store.GetByID(context.Background(), item.ID)
	if stored.MvpMemberID != "mbr-cahyo" {
		t.Fatalf("unexpected tie-break winner: got=%s want=mbr-cahyo", stored.MvpMemberID)
	}
}

func TestVotingService_RunSweep_GoalkeeperWinnerCreditedInGoalkeeperBlock(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := recordFiveASide(t, f)
	castVotes(t, f, item.ID, map[string]string{"mbr-budi": "mbr-andi"})

	f.clock.Advance(25 * time.Hour)
	if _, err := f.voting.RunSweep(context.Background(), SweepInput{}); err != nil {
		t.Fatalf("run sweep: %v", err)
	}

	rec := f.statsRecord(t, 2025, "mbr-andi")
	if rec.Goalkeeper.Mvps != 1 || rec.Field.Mvps != 0 {
		t.Fatalf("unexpected mvp blocks: field=%d goalkeeper=%d", rec.Field.Mvps, rec.Goalkeeper.Mvps)
	}
}

func TestVotingService_RunSweep_NoBallotsClosesWithoutWinner(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := recordFiveASide(t, f)

	f.clock.Advance(24 * time.Hour)
	result, err := f.voting.RunSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if result.SuccessCount != 1 || result.Matches[0].WinnerID != "" {
		t.Fatalf("unexpected sweep result: %+v", result)
	}

	stored, _, _ := f.store.GetByID(context.Background(), item.ID)
	if stored.Voting.Status != match.VotingCalculated || stored.MvpMemberID != "" {
		t.Fatalf("unexpected resolved match: mvp=%q status=%s", stored.MvpMemberID, stored.Voting.Status)
	}
}

func TestVotingService_RunSweep_IgnoresOpenWindows(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	recordFiveASide(t, f)

	f.clock.Advance(23 * time.Hour)
	result, err := f.voting.RunSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if result.MatchCount != 0 {
		t.Fatalf("expected no due matches, got=%d", result.MatchCount)
	}
}

func TestVotingService_ResolveMatch_AlreadyCalculatedIsNoop(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := recordFiveASide(t, f)
	castVotes(t, f, item.ID, map[string]string{"mbr-andi": "mbr-budi"})

	f.clock.Advance(25 * time.Hour)
	if _, err := f.voting.RunSweep(context.Background(), SweepInput{}); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	// a worker holding the pre-sweep snapshot must hit the status guard.
	stale, _, _ := f.store.GetByID(context.Background(), item.ID)
	stale.Voting.Status = match.VotingOpen
	stale.Voting.CalculatedAt = nil
	row := f.voting.resolveMatch(context.Background(), stale, f.clock.Now())
	if row.Status != sweepStatusSkipped {
		t.Fatalf("expected skipped row, got %+v", row)
	}

	second, err := f.voting.RunSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.MatchCount != 0 {
		t.Fatalf("calculated match must not be due again, got=%d", second.MatchCount)
	}
	if got := f.statsRecord(t, 2025, "mbr-budi").Field.Mvps; got != 1 {
		t.Fatalf("mvps must not be incremented twice, got=%d", got)
	}
}

func TestVotingService_RunSweep_IsolatesManyMatches(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		item := recordFiveASide(t, f)
		castVotes(t, f, item.ID, map[string]string{"mbr-andi": "mbr-dimas"})
		ids = append(ids, item.ID)
	}

	f.clock.Advance(48 * time.Hour)
	result, err := f.voting.RunSweep(context.Background(), SweepInput{MaxWorkers: 3})
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if result.SuccessCount != len(ids) || result.WorkerCount != 3 {
		t.Fatalf("unexpected sweep result: success=%d workers=%d", result.SuccessCount, result.WorkerCount)
	}
	if got := f.statsRecord(t, 2025, "mbr-dimas").Field.Mvps; got != len(ids) {
		t.Fatalf("unexpected mvps: got=%d want=%d", got, len(ids))
	}
}

type resolveFailingCommitter struct {
	ledger.Committer
	matchID string
}

func (c resolveFailingCommitter) Commit(ctx context.Context, batch *ledger.Batch) error {
	for _, op := range batch.Ops() {
		if op.Kind == ledger.OpResolveVoting && op.MatchID == c.matchID {
			return errors.New("connection reset by peer")
		}
	}
	return c.Committer.Commit(ctx, batch)
}

func TestVotingService_RunSweep_FailedMatchDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	broken := recordFiveASide(t, f)
	castVotes(t, f, broken.ID, map[string]string{"mbr-andi": "mbr-budi"})
	healthy := recordFiveASide(t, f)
	castVotes(t, f, healthy.ID, map[string]string{"mbr-andi": "mbr-dimas"})

	sweeper := NewVotingService(f.store, resolveFailingCommitter{Committer: f.store, matchID: broken.ID}, f.dispatch, VotingConfig{MaxWorkers: 2}, nil)
	sweeper.now = f.clock.Now

	f.clock.Advance(25 * time.Hour)
	result, err := sweeper.RunSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("a single failed match must not fail the sweep: %v", err)
	}
	if result.MatchCount != 2 || result.SuccessCount != 1 || result.FailedCount != 1 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	for _, row := range result.Matches {
		if row.MatchID == broken.ID && (row.Status != sweepStatusFailed || row.Message == "") {
			t.Fatalf("unexpected row for failed match: %+v", row)
		}
	}

	if got := f.statsRecord(t, 2025, "mbr-dimas").Field.Mvps; got != 1 {
		t.Fatalf("healthy match mvp must be credited, got=%d", got)
	}
	if got := f.statsRecord(t, 2025, "mbr-budi").Field.Mvps; got != 0 {
		t.Fatalf("failed match must not credit an mvp, got=%d", got)
	}
	stored, _, _ := f.store.GetByID(context.Background(), broken.ID)
	if stored.Voting.Status != match.VotingOpen {
		t.Fatalf("failed match must stay open for the next sweep, got=%s", stored.Voting.Status)
	}
}

type pageCountingMatches struct {
	match.Repository
	pages int
}

func (r *pageCountingMatches) ListVotingDue(ctx context.Context, now time.Time, afterID string, limit int) ([]match.Match, error) {
	r.pages++
	return r.Repository.ListVotingDue(ctx, now, afterID, limit)
}

func TestVotingService_RunSweep_PagesPastBatchLimit(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	for i := 0; i < 3; i++ {
		item := recordFiveASide(t, f)
		castVotes(t, f, item.ID, map[string]string{"mbr-andi": "mbr-dimas"})
	}

	matches := &pageCountingMatches{Repository: f.store}
	sweeper := NewVotingService(matches, f.store, f.dispatch, VotingConfig{MaxWorkers: 2, BatchLimit: 1}, nil)
	sweeper.now = f.clock.Now

	f.clock.Advance(25 * time.Hour)
	result, err := sweeper.RunSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if result.MatchCount != 3 || result.SuccessCount != 3 {
		t.Fatalf("sweep must resolve every due match in one run: %+v", result)
	}
	if matches.pages != 4 {
		t.Fatalf("expected three full pages and one empty page, got=%d", matches.pages)
	}
	if got := f.statsRecord(t, 2025, "mbr-dimas").Field.Mvps; got != 3 {
		t.Fatalf("unexpected mvps: got=%d want=3", got)
	}
}

func TestNormalizeWorkerCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, tasks, ceiling, want int
	}{
		{value: 0, tasks: 10, ceiling: 16, want: 1},
		{value: 32, tasks: 100, ceiling: 16, want: 16},
		{value: 8, tasks: 3, ceiling: 16, want: 3},
		{value: 4, tasks: 0, ceiling: 16, want: 1},
	}
	for _, tc := range cases {
		if got := normalizeWorkerCount(tc.value, tc.tasks, tc.ceiling); got != tc.want {
			t.Fatalf("normalizeWorkerCount(%d, %d, %d) = %d want %d", tc.value, tc.tasks, tc.ceiling, got, tc.want)
		}
	}
}
