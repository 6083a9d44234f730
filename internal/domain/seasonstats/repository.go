package seasonstats

import (
	"context"

	"github.com/riskibarqy/sunday-league/internal/domain/match"
)

// Fold derives the whole ledger from every stored match.
type Fold func(matches []match.Match) []Record

// Repository reads the ledger. Increments go through ledger batches only.
type Repository interface {
	Get(ctx context.Context, key Key) (Record, bool, error)
	ListByGroupSeason(ctx context.Context, groupID string, season int) ([]Record, error)
	ListByGroup(ctx context.Context, groupID string) ([]Record, error)
	// Rebuild reads every match and replaces the ledger with fold's output in
	// one step that no ledger batch can interleave with. A batch committed
	// after the matches were read is applied on top of the rebuilt ledger.
	Rebuild(ctx context.Context, fold Fold) (matches, records int, err error)
}
