package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNotEligible           = errors.New("not eligible")
	ErrVotingClosed          = errors.New("voting closed")
	ErrStore                 = errors.New("store error")
)

const (
	IssueSeverityError   = "error"
	IssueSeverityWarning = "warning"
)

// MigrationIssue is one per-record problem reported by a migration phase.
type MigrationIssue struct {
	Severity       string `json:"severity"`
	Phase          string `json:"phase"`
	GroupID        string `json:"group_id"`
	LegacyMatchID  string `json:"legacy_match_id,omitempty"`
	LegacyPlayerID string `json:"legacy_player_id,omitempty"`
	Message        string `json:"message"`
}
