package match

import (
	"context"
	"time"
)

// Repository exposes match reads and the guarded ballot write.
// Match creation and voting resolution go through the ledger batch.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	GetByLegacyID(ctx context.Context, legacyMatchID string) (Match, bool, error)
	// ListByGroup returns matches of a group ordered by date; season 0 means every season.
	ListByGroup(ctx context.Context, groupID string, season int) ([]Match, error)
	// ListVotingDue pages through matches due at now in id order, starting after afterID.
	ListVotingDue(ctx context.Context, now time.Time, afterID string, limit int) ([]Match, error)
	// SaveBallot stores voter's choice only while voting is open and closes after now.
	SaveBallot(ctx context.Context, matchID, voterMemberID, votedMemberID string, now time.Time) (bool, error)
}
