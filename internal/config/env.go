package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

// envReader reads typed values from the environment and keeps the first
// parse or range error. Later reads after an error return their fallback.
type envReader struct {
	lookup func(string) string
	err    error
}

func newEnvReader() *envReader {
	return &envReader{lookup: os.Getenv}
}

func (r *envReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

// require records an error unless ok holds.
func (r *envReader) require(ok bool, format string, args ...any) {
	if !ok {
		r.fail(format, args...)
	}
}

func (r *envReader) raw(key string) (string, bool) {
	value := strings.TrimSpace(r.lookup(key))
	return value, value != ""
}

func (r *envReader) str(key, fallback string) string {
	if value, ok := r.raw(key); ok {
		return value
	}
	return fallback
}

func (r *envReader) boolean(key string, fallback bool) bool {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		r.fail("parse %s: %w", key, err)
		return fallback
	}
	return out
}

// intRange reads an integer within [lo, hi].
func (r *envReader) intRange(key string, fallback, lo, hi int) int {
	out := fallback
	if value, ok := r.raw(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			r.fail("parse %s: %w", key, err)
			return fallback
		}
		out = parsed
	}
	r.require(out >= lo && out <= hi, "%s must be between %d and %d", key, lo, hi)
	return out
}

// intMin reads an integer that must be at least lo.
func (r *envReader) intMin(key string, fallback, lo int) int {
	out := fallback
	if value, ok := r.raw(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			r.fail("parse %s: %w", key, err)
			return fallback
		}
		out = parsed
	}
	r.require(out >= lo, "%s must be >= %d", key, lo)
	return out
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	out, err := time.ParseDuration(value)
	if err != nil {
		r.fail("parse %s: %w", key, err)
		return fallback
	}
	return out
}

func (r *envReader) positiveDuration(key string, fallback time.Duration) time.Duration {
	out := r.duration(key, fallback)
	r.require(out > 0, "%s must be > 0", key)
	return out
}

func (r *envReader) level(key string, fallback logging.Level) logging.Level {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(value) {
	case "debug":
		return logging.LevelDebug
	case "info":
		return logging.LevelInfo
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return fallback
	}
}

// oneOf reads a lower-cased value that must match one of allowed.
func (r *envReader) oneOf(key, fallback string, allowed ...string) string {
	value := strings.ToLower(r.str(key, fallback))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	r.fail("invalid %s %q: valid values are %s", key, value, strings.Join(allowed, ", "))
	return fallback
}

func (r *envReader) list(key, fallback string) []string {
	parts := strings.Split(r.str(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// uptraceDSNFromOTLPHeaders extracts uptrace-dsn from an
// OTEL_EXPORTER_OTLP_HEADERS value such as `uptrace-dsn=https://...`.
func uptraceDSNFromOTLPHeaders(raw string) string {
	for item := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if ok && strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), `"'`)
		}
	}
	return ""
}
