package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/sunday-league/internal/domain/legacy"
)

// LegacyRepository serves a fixed legacy snapshot.
type LegacyRepository struct {
	players []legacy.Player
	matches []legacy.Match
}

func NewLegacyRepository(snapshot legacy.Snapshot) *LegacyRepository {
	players := append([]legacy.Player(nil), snapshot.Players...)
	matches := append([]legacy.Match(nil), snapshot.Matches...)
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return &LegacyRepository{players: players, matches: matches}
}

func (r *LegacyRepository) ListPlayers(_ context.Context) ([]legacy.Player, error) {
	return append([]legacy.Player(nil), r.players...), nil
}

func (r *LegacyRepository) ListMatches(_ context.Context) ([]legacy.Match, error) {
	out := make([]legacy.Match, 0, len(r.matches))
	for _, item := range r.matches {
		copied := item
		copied.Team1 = append([]legacy.Entry(nil), item.Team1...)
		copied.Team2 = append([]legacy.Entry(nil), item.Team2...)
		out = append(out, copied)
	}
	return out, nil
}
