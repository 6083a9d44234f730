// Package jobscheduler models the lifecycle of background jobs triggered
// through the queue or the internal job endpoints.
package jobscheduler

import (
	"context"
	"time"
)

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusStarted   DispatchStatus = "started"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

const (
	JobMvpSweep       = "mvp-sweep"
	JobStatsRecompute = "season-stats-recompute"

	// RecomputeDispatchID is fixed so a running recompute blocks match writes.
	RecomputeDispatchID = JobStatsRecompute
)

// DispatchEvent is one lifecycle step of a job; the store keeps the latest per DispatchID.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	GroupID      string
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

func (e DispatchEvent) IsRunning() bool {
	return e.Status == StatusStarted
}

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	GetLatest(ctx context.Context, dispatchID string) (DispatchEvent, bool, error)
	// StartIfIdle records event as started unless the latest event of its
	// dispatch is already started, and reports whether it was recorded.
	StartIfIdle(ctx context.Context, event DispatchEvent) (bool, error)
}
