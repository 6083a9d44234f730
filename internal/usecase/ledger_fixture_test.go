package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
)

const testGroupID = memory.DemoGroupID

type testClock struct {
	at time.Time
}

func (c *testClock) Now() time.Time {
	return c.at
}

func (c *testClock) Advance(d time.Duration) {
	c.at = c.at.Add(d)
}

type ledgerFixture struct {
	clock    *testClock
	store    *memory.LedgerStore
	members  *memory.MemberRepository
	dispatch *memory.JobDispatchRepository
	matches  *MatchService
	voting   *VotingService
	stats    *SeasonStatsService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	clock := &testClock{at: time.Date(2025, time.March, 9, 10, 0, 0, 0, time.UTC)}
	store := memory.NewLedgerStore()
	members := memory.NewMemberRepository(memory.SeedMembers())
	dispatch := memory.NewJobDispatchRepository()

	matches := NewMatchService(members, store, store, dispatch, nil, id.NewSequenceGenerator("mt"), MatchConfig{}, nil)
	matches.now = clock.Now
	voting := NewVotingService(store, store, dispatch, VotingConfig{MaxWorkers: 2}, nil)
	voting.now = clock.Now

	return &ledgerFixture{
		clock:    clock,
		store:    store,
		members:  members,
		dispatch: dispatch,
		matches:  matches,
		voting:   voting,
		stats:    NewSeasonStatsService(store.SeasonStats(), members),
	}
}

func (f *ledgerFixture) record(t *testing.T, date time.Time, team1, team2 []match.Entry) match.Match {
	t.Helper()

	item, err := f.matches.RecordMatch(context.Background(), RecordMatchInput{
		GroupID: testGroupID,
		Date:    date,
		Team1:   team1,
		Team2:   team2,
	})
	if err != nil {
		t.Fatalf("record match: %v", err)
	}
	return item
}

func (f *ledgerFixture) statsRecord(t *testing.T, season int, memberID string) seasonstats.Record {
	t.Helper()

	rec, exists, err := f.store.Get(context.Background(), seasonstats.Key{GroupID: testGroupID, Season: season, MemberID: memberID})
	if err != nil {
		t.Fatalf("get season stats: %v", err)
	}
	if !exists {
		t.Fatalf("season stats for member=%s season=%d not found", memberID, season)
	}
	return rec
}

func entry(memberID string, position match.Position, goals, assists, ownGoals int) match.Entry {
	return match.Entry{MemberID: memberID, Position: position, Goals: goals, Assists: assists, OwnGoals: ownGoals}
}

func newMemberFixture(seed ...member.Member) *memory.MemberRepository {
	if len(seed) == 0 {
		seed = memory.SeedMembers()
	}
	return memory.NewMemberRepository(seed)
}
