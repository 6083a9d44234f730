package app

import (
	"context"
	"time"

	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

// runSweepLoop calls run once immediately and then every interval until ctx is done.
func runSweepLoop(ctx context.Context, interval time.Duration, run func(context.Context) error, logger *logging.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := run(ctx); err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "local mvp sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("local mvp sweep stopped")
			return
		case <-ticker.C:
		}
	}
}
