package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
)

// ensureRecomputeIdle refuses incremental stats writes while a full recompute
// is marked started. A recompute left started by a crash is cleared with
// MigrationService.ResetRecomputeGate.
func ensureRecomputeIdle(ctx context.Context, repo jobscheduler.Repository) error {
	if repo == nil {
		return nil
	}

	event, exists, err := repo.GetLatest(ctx, jobscheduler.RecomputeDispatchID)
	if err != nil {
		return fmt.Errorf("%w: read recompute state: %v", ErrDependencyUnavailable, err)
	}
	if !exists || !event.IsRunning() {
		return nil
	}
	return fmt.Errorf("%w: season stats recompute in progress since %s", ErrDependencyUnavailable, event.OccurredAt.UTC().Format(time.RFC3339))
}
