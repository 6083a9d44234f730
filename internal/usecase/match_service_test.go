package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/legacy"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/repository/memory"
	ledgermock "github.com/riskibarqy/sunday-league/internal/mocks/domain/ledger"
	notificationmock "github.com/riskibarqy/sunday-league/internal/mocks/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
	"github.com/stretchr/testify/mock"
)

func TestMatchService_RecordMatch_GoalkeepersConcedeOpposingScore(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	date := time.Date(2025, time.March, 8, 7, 0, 0, 0, time.UTC)
	item := f.record(t, date,
		[]match.Entry{entry("mbr-andi", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-budi", match.PositionForward, 2, 0, 0)},
		[]match.Entry{entry("mbr-cahyo", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-dimas", match.PositionForward, 1, 0, 0)},
	)

	if item.GoalsTeam1 != 2 || item.GoalsTeam2 != 1 {
		t.Fatalf("unexpected score: got=%d-%d want=2-1", item.GoalsTeam1, item.GoalsTeam2)
	}
	if item.Season != 2025 {
		t.Fatalf("unexpected season: got=%d want=2025", item.Season)
	}

	andi := f.statsRecord(t, 2025, "mbr-andi").Goalkeeper
	if andi.Matches != 1 || andi.GoalsConceded != 1 || andi.CleanSheets != 0 || andi.Won != 1 {
		t.Fatalf("unexpected team1 goalkeeper stats: %+v", andi)
	}
	cahyo := f.statsRecord(t, 2025, "mbr-cahyo").Goalkeeper
	if cahyo.Matches != 1 || cahyo.GoalsConceded != 2 || cahyo.CleanSheets != 0 || cahyo.Lost != 1 {
		t.Fatalf("unexpected team2 goalkeeper stats: %+v", cahyo)
	}
	budi := f.statsRecord(t, 2025, "mbr-budi")
	if budi.Field.Goals != 2 || budi.Field.Won != 1 || budi.Field.Matches != 1 {
		t.Fatalf("unexpected forward stats: %+v", budi.Field)
	}
	if budi.Goalkeeper.Matches != 0 {
		t.Fatalf("field player must not touch goalkeeper block: %+v", budi.Goalkeeper)
	}
}

func TestMatchService_RecordMatch_CleanSheetCountsOwnGoalsAgainst(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	date := time.Date(2025, time.April, 6, 7, 0, 0, 0, time.UTC)

	// team2 concedes only through its own defender.
	item := f.record(t, date,
		[]match.Entry{entry("mbr-andi", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-budi", match.PositionForward, 0, 0, 0)},
		[]match.Entry{entry("mbr-cahyo", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-dimas", match.PositionDefender, 0, 0, 1)},
	)
	if item.GoalsTeam1 != 1 || item.GoalsTeam2 != 0 {
		t.Fatalf("own goal must count for the opponent: got=%d-%d", item.GoalsTeam1, item.GoalsTeam2)
	}
	if got := f.statsRecord(t, 2025, "mbr-andi").Goalkeeper.CleanSheets; got != 1 {
		t.Fatalf("expected clean sheet for team1 keeper, got=%d", got)
	}
	if got := f.statsRecord(t, 2025, "mbr-cahyo").Goalkeeper.CleanSheets; got != 0 {
		t.Fatalf("expected no clean sheet for team2 keeper, got=%d", got)
	}
	if got := f.statsRecord(t, 2025, "mbr-dimas").Field.OwnGoals; got != 1 {
		t.Fatalf("expected own goal counter, got=%d", got)
	}

	// a keeper's own side scoring an own goal breaks their clean sheet.
	f.record(t, date.AddDate(0, 0, 7),
		[]match.Entry{entry("mbr-andi", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-budi", match.PositionForward, 1, 0, 1)},
		[]match.Entry{entry("mbr-cahyo", match.PositionGoalkeeper, 0, 0, 0), entry("mbr-dimas", match.PositionDefender, 0, 0, 0)},
	)
	andi := f.statsRecord(t, 2025, "mbr-andi").Goalkeeper
	if andi.CleanSheets != 1 || andi.GoalsConceded != 1 || andi.Draw != 1 {
		t.Fatalf("unexpected keeper stats after own goal draw: %+v", andi)
	}
}

func TestMatchService_RecordMatch_OpensVotingWindow(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	item := f.record(t, f.clock.Now(),
		[]match.Entry{entry("mbr-andi", match.PositionForward, 0, 0, 0)},
		[]match.Entry{entry("mbr-budi", match.PositionForward, 0, 0, 0)},
	)

	if item.Voting.Status != match.VotingOpen {
		t.Fatalf("unexpected voting status: %s", item.Voting.Status)
	}
	if !item.Voting.OpensAt.Equal(f.clock.Now()) {
		t.Fatalf("unexpected opens_at: %s", item.Voting.OpensAt)
	}
	if want := f.clock.Now().Add(24 * time.Hour); !item.Voting.ClosesAt.Equal(want) {
		t.Fatalf("unexpected closes_at: got=%s want=%s", item.Voting.ClosesAt, want)
	}
	if len(item.Ballots) != 0 {
		t.Fatalf("expected empty ballots, got=%v", item.Ballots)
	}

	stored, exists, err := f.store.GetByID(context.Background(), item.ID)
	if err != nil || !exists {
		t.Fatalf("stored match missing: exists=%v err=%v", exists, err)
	}
	if stored.Voting.Status != match.VotingOpen {
		t.Fatalf("unexpected stored voting status: %s", stored.Voting.Status)
	}
}

func TestMatchService_RecordMatch_RejectsBeforeAnyWrite(t *testing.T) {
	t.Parallel()

	cases := map[string]RecordMatchInput{
		"unknown member": {
			Team1: []match.Entry{entry("mbr-andi", match.PositionForward, 0, 0, 0)},
			Team2: []match.Entry{entry("mbr-ghost", match.PositionForward, 0, 0, 0)},
		},
		"duplicate member": {
			Team1: []match.Entry{entry("mbr-andi", match.PositionForward, 0, 0, 0)},
			Team2: []match.Entry{entry("mbr-andi", match.PositionGoalkeeper, 0, 0, 0)},
		},
		"empty team": {
			Team1: []match.Entry{entry("mbr-andi", match.PositionForward, 0, 0, 0)},
		},
		"invalid position": {
			Team1: []match.Entry{entry("mbr-andi", match.Position("ST"), 0, 0, 0)},
			Team2: []match.Entry{entry("mbr-budi", match.PositionForward, 0, 0, 0)},
		},
		"negative goals": {
			Team1: []match.Entry{entry("mbr-andi", match.PositionForward, -1, 0, 0)},
			Team2: []match.Entry{entry("mbr-budi", match.PositionForward, 0, 0, 0)},
		},
	}

	for name, input := range cases {
		name, input := name, input
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newLedgerFixture(t)
			input.GroupID = testGroupID
			input.Date = f.clock.Now()

			_, err := f.matches.RecordMatch(context.Background(), input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}

			all, err := f.store.ListByGroup(context.Background(), testGroupID, 0)
			if err != nil {
				t.Fatalf("list matches: %v", err)
			}
			records, err := f.store.ListStatsByGroup(context.Background(), testGroupID)
			if err != nil {
				t.Fatalf("list stats: %v", err)
			}
			if len(all) != 0 || len(records) != 0 {
				t.Fatalf("expected no writes, got matches=%d records=%d", len(all), len(records))
			}
		})
	}
}

func TestMatchService_RecordMatch_CommitFailureIsStoreErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	committer := ledgermock.NewCommitter(t)
	publisher := notificationmock.NewPublisher(t)
	storeErr := errors.New("deadline exceeded")

	committer.
		On("Commit", ctx, mock.MatchedBy(func(batch *ledger.Batch) bool {
			// match write plus ensure+increment for each of the two entries
			return batch.Len() == 5 && batch.Ops()[0].Kind == ledger.OpPutMatch
		})).
		Return(storeErr).
		Once()

	service := NewMatchService(newMemberFixture(), memory.NewLedgerStore(), committer, nil, publisher, id.NewSequenceGenerator("mt"), MatchConfig{}, nil)
	_, err := service.RecordMatch(ctx, RecordMatchInput{
		GroupID: testGroupID,
		Date:    time.Date(2025, time.May, 4, 7, 0, 0, 0, time.UTC),
		Team1:   []match.Entry{entry("mbr-andi", match.PositionForward, 1, 0, 0)},
		Team2:   []match.Entry{entry("mbr-budi", match.PositionGoalkeeper, 0, 0, 0)},
	})
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestMatchService_RecordMatch_PublishFailureDoesNotFailUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publisher := notificationmock.NewPublisher(t)
	store := memory.NewLedgerStore()

	publisher.
		On("Publish", ctx, mock.MatchedBy(func(event notification.Event) bool {
			return event.Type == notification.EventMatchCreated && event.GroupID == testGroupID && event.MatchID == "mt-1"
		})).
		Return(errors.New("queue unavailable")).
		Once()

	service := NewMatchService(newMemberFixture(), store, store, nil, publisher, id.NewSequenceGenerator("mt"), MatchConfig{}, nil)
	item, err := service.RecordMatch(ctx, RecordMatchInput{
		GroupID: testGroupID,
		Date:    time.Date(2025, time.May, 4, 7, 0, 0, 0, time.UTC),
		Team1:   []match.Entry{entry("mbr-andi", match.PositionForward, 1, 0, 0)},
		Team2:   []match.Entry{entry("mbr-budi", match.PositionGoalkeeper, 0, 0, 0)},
	})
	if err != nil {
		t.Fatalf("record match: %v", err)
	}
	if _, exists, _ := store.GetByID(ctx, item.ID); !exists {
		t.Fatalf("match must persist when publishing fails")
	}
}

func TestMatchService_RecordMatch_RefusedWhileRecomputeRuns(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	ctx := context.Background()
	started := jobscheduler.DispatchEvent{
		DispatchID: jobscheduler.RecomputeDispatchID,
		JobName:    jobscheduler.JobStatsRecompute,
		Status:     jobscheduler.StatusStarted,
		OccurredAt: f.clock.Now().Add(-time.Minute),
	}
	if err := f.dispatch.UpsertEvent(ctx, started); err != nil {
		t.Fatalf("seed dispatch event: %v", err)
	}

	input := RecordMatchInput{
		GroupID: testGroupID,
		Date:    f.clock.Now(),
		Team1:   []match.Entry{entry("mbr-andi", match.PositionForward, 0, 0, 0)},
		Team2:   []match.Entry{entry("mbr-budi", match.PositionForward, 0, 0, 0)},
	}
	if _, err := f.matches.RecordMatch(ctx, input); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	f.clock.Advance(6 * time.Hour)
	if _, err := f.matches.RecordMatch(ctx, input); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("a long recompute must keep blocking writes, got %v", err)
	}

	reset, err := newMigrationFixture(t, f, legacy.Snapshot{}).ResetRecomputeGate(ctx)
	if err != nil || !reset {
		t.Fatalf("reset recompute gate: reset=%v err=%v", reset, err)
	}
	if _, err := f.matches.RecordMatch(ctx, input); err != nil {
		t.Fatalf("record after gate reset: %v", err)
	}
	latest, _, _ := f.dispatch.GetLatest(ctx, jobscheduler.RecomputeDispatchID)
	if latest.Status != jobscheduler.StatusFailed || latest.ErrorMessage != "reset by operator" {
		t.Fatalf("unexpected recompute marker after reset: %+v", latest)
	}
}

func TestMatchService_ListMatches_FiltersBySeason(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t)
	team1 := []match.Entry{entry("mbr-andi", match.PositionForward, 0, 0, 0)}
	team2 := []match.Entry{entry("mbr-budi", match.PositionForward, 0, 0, 0)}
	f.record(t, time.Date(2024, time.December, 29, 7, 0, 0, 0, time.UTC), team1, team2)
	f.record(t, time.Date(2025, time.January, 5, 7, 0, 0, 0, time.UTC), team1, team2)

	got, err := f.matches.ListMatches(context.Background(), testGroupID, "2024")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(got) != 1 || got[0].Season != 2024 {
		t.Fatalf("unexpected 2024 matches: %+v", got)
	}

	all, err := f.matches.ListMatches(context.Background(), testGroupID, "")
	if err != nil {
		t.Fatalf("list all matches: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 matches, got=%d", len(all))
	}

	if _, err := f.matches.ListMatches(context.Background(), testGroupID, "last-year"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad season, got %v", err)
	}
}
