package legacy

import "context"

// Repository is a read-only view of legacy data.
type Repository interface {
	ListPlayers(ctx context.Context) ([]Player, error)
	ListMatches(ctx context.Context) ([]Match, error)
}
