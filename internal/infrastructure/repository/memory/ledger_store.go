package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
)

// LedgerStore keeps matches and season stats under one lock so a batch applies all-or-nothing.
type LedgerStore struct {
	mu       sync.RWMutex
	matches  map[string]match.Match
	byLegacy map[string]string
	stats    map[string]seasonstats.Record
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		matches:  make(map[string]match.Match),
		byLegacy: make(map[string]string),
		stats:    make(map[string]seasonstats.Record),
	}
}

// Commit stages every op on copies and publishes them only if all succeed.
func (s *LedgerStore) Commit(_ context.Context, batch *ledger.Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stagedMatches := make(map[string]match.Match)
	stagedStats := make(map[string]seasonstats.Record)

	getMatch := func(id string) (match.Match, bool) {
		if item, ok := stagedMatches[id]; ok {
			return item, true
		}
		item, ok := s.matches[id]
		if !ok {
			return match.Match{}, false
		}
		return item.Clone(), true
	}
	getStats := func(key seasonstats.Key) (seasonstats.Record, bool) {
		id := key.RecordID()
		if item, ok := stagedStats[id]; ok {
			return item, true
		}
		item, ok := s.stats[id]
		return item, ok
	}
	legacyTaken := func(legacyID string) bool {
		if legacyID == "" {
			return false
		}
		if _, ok := s.byLegacy[legacyID]; ok {
			return true
		}
		for _, item := range stagedMatches {
			if item.LegacyMatchID == legacyID {
				return true
			}
		}
		return false
	}

	for idx, op := range batch.Ops() {
		switch op.Kind {
		case ledger.OpPutMatch:
			if _, exists := getMatch(op.Match.ID); exists {
				return fmt.Errorf("op %d put match=%s: %w", idx, op.Match.ID, ledger.ErrDuplicateMatch)
			}
			if legacyTaken(op.Match.LegacyMatchID) {
				return fmt.Errorf("op %d put legacy match=%s: %w", idx, op.Match.LegacyMatchID, ledger.ErrDuplicateMatch)
			}
			stagedMatches[op.Match.ID] = op.Match.Clone()
		case ledger.OpEnsureSeasonStats:
			if _, exists := getStats(op.Key); !exists {
				stagedStats[op.Key.RecordID()] = seasonstats.NewRecord(op.Key)
			}
		case ledger.OpIncrementSeasonStats:
			rec, exists := getStats(op.Key)
			if !exists {
				rec = seasonstats.NewRecord(op.Key)
			}
			rec.Apply(op.Block, op.Delta)
			stagedStats[op.Key.RecordID()] = rec
		case ledger.OpResolveVoting:
			item, exists := getMatch(op.MatchID)
			if !exists {
				return fmt.Errorf("op %d resolve voting match=%s: not found", idx, op.MatchID)
			}
			if item.Voting.Status != match.VotingOpen {
				return fmt.Errorf("op %d resolve voting match=%s: %w", idx, op.MatchID, ledger.ErrVotingAlreadyResolved)
			}
			at := op.CalculatedAt.UTC()
			item.MvpMemberID = op.WinnerID
			item.Voting.Status = match.VotingCalculated
			item.Voting.CalculatedAt = &at
			stagedMatches[item.ID] = item
		default:
			return fmt.Errorf("op %d: unsupported kind %q", idx, op.Kind)
		}
	}

	for id, item := range stagedMatches {
		s.matches[id] = item
		if item.LegacyMatchID != "" {
			s.byLegacy[item.LegacyMatchID] = id
		}
	}
	for id, rec := range stagedStats {
		s.stats[id] = rec
	}
	return nil
}

func (s *LedgerStore) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.matches[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return item.Clone(), true, nil
}

func (s *LedgerStore) GetByLegacyID(_ context.Context, legacyMatchID string) (match.Match, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byLegacy[legacyMatchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return s.matches[id].Clone(), true, nil
}

func (s *LedgerStore) ListByGroup(_ context.Context, groupID string, season int) ([]match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range s.matches {
		if item.GroupID != groupID {
			continue
		}
		if season > 0 && item.Season != season {
			continue
		}
		out = append(out, item.Clone())
	}
	sortMatches(out)
	return out, nil
}

func (s *LedgerStore) ListVotingDue(_ context.Context, now time.Time, afterID string, limit int) ([]match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range s.matches {
		if item.ID > afterID && item.DueAt(now) {
			out = append(out, item.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *LedgerStore) SaveBallot(_ context.Context, matchID, voterMemberID, votedMemberID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.matches[matchID]
	if !ok || !item.AcceptsBallotsAt(now) {
		return false, nil
	}
	item = item.Clone()
	item.Ballots[voterMemberID] = votedMemberID
	s.matches[matchID] = item
	return true, nil
}

func (s *LedgerStore) Get(_ context.Context, key seasonstats.Key) (seasonstats.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.stats[key.RecordID()]
	return rec, ok, nil
}

func (s *LedgerStore) ListByGroupSeason(_ context.Context, groupID string, season int) ([]seasonstats.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]seasonstats.Record, 0)
	for _, rec := range s.stats {
		if rec.GroupID == groupID && rec.Season == season {
			out = append(out, rec)
		}
	}
	seasonstats.SortRecords(out)
	return out, nil
}

func (s *LedgerStore) ListStatsByGroup(_ context.Context, groupID string) ([]seasonstats.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]seasonstats.Record, 0)
	for _, rec := range s.stats {
		if rec.GroupID == groupID {
			out = append(out, rec)
		}
	}
	seasonstats.SortRecords(out)
	return out, nil
}

// Rebuild holds the write lock across reading matches and swapping the
// ledger, so concurrent Commits land either before or after it.
func (s *LedgerStore) Rebuild(_ context.Context, fold seasonstats.Fold) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]match.Match, 0, len(s.matches))
	for _, item := range s.matches {
		matches = append(matches, item.Clone())
	}
	sortMatches(matches)

	records := fold(matches)
	next := make(map[string]seasonstats.Record, len(records))
	for _, rec := range records {
		rec.ID = rec.Key().RecordID()
		next[rec.ID] = rec
	}
	s.stats = next
	return len(matches), len(records), nil
}

// SeasonStats adapts the store to seasonstats.Repository.
func (s *LedgerStore) SeasonStats() seasonstats.Repository {
	return seasonStatsView{store: s}
}

type seasonStatsView struct {
	store *LedgerStore
}

func (v seasonStatsView) Get(ctx context.Context, key seasonstats.Key) (seasonstats.Record, bool, error) {
	return v.store.Get(ctx, key)
}

func (v seasonStatsView) ListByGroupSeason(ctx context.Context, groupID string, season int) ([]seasonstats.Record, error) {
	return v.store.ListByGroupSeason(ctx, groupID, season)
}

func (v seasonStatsView) ListByGroup(ctx context.Context, groupID string) ([]seasonstats.Record, error) {
	return v.store.ListStatsByGroup(ctx, groupID)
}

func (v seasonStatsView) Rebuild(ctx context.Context, fold seasonstats.Fold) (int, int, error) {
	return v.store.Rebuild(ctx, fold)
}

func sortMatches(items []match.Match) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].ID < items[j].ID
	})
}
