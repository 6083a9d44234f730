package resilience

import "github.com/riskibarqy/sunday-league/internal/platform/logging"

// LogStateChanges reports breaker transitions; opening is logged as a warning.
func LogStateChanges(logger *logging.Logger) StateChangeFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(name string, from, to CircuitState) {
		if to == CircuitStateOpen {
			logger.Warn("circuit breaker opened", "dependency", name, "from", string(from))
			return
		}
		logger.Info("circuit breaker state changed", "dependency", name, "from", string(from), "to", string(to))
	}
}
