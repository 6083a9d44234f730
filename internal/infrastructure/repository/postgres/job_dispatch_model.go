package postgres

import (
	"database/sql"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
)

// jobDispatchInsertModel sets exactly one of the lifecycle timestamps; the
// upsert keeps the others from earlier events.
type jobDispatchInsertModel struct {
	DispatchID  string     `db:"dispatch_id"`
	JobName     string     `db:"job_name"`
	JobPath     string     `db:"job_path"`
	GroupID     string     `db:"group_id"`
	Payload     string     `db:"payload"`
	Status      string     `db:"status"`
	SentAt      *time.Time `db:"sent_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	LastError   *string    `db:"last_error"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type jobDispatchTableModel struct {
	DispatchID string         `db:"dispatch_id"`
	JobName    string         `db:"job_name"`
	JobPath    string         `db:"job_path"`
	GroupID    string         `db:"group_id"`
	Payload    []byte         `db:"payload"`
	Status     string         `db:"status"`
	LastError  sql.NullString `db:"last_error"`
	TraceID    sql.NullString `db:"trace_id"`
	SpanID     sql.NullString `db:"span_id"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

var jobDispatchColumns = []string{
	"dispatch_id", "job_name", "job_path", "group_id", "payload",
	"status", "last_error", "trace_id", "span_id", "updated_at",
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

func newJobDispatchInsertModel(event jobscheduler.DispatchEvent, now time.Time) (jobDispatchInsertModel, error) {
	at := now.UTC()
	if !event.OccurredAt.IsZero() {
		at = event.OccurredAt.UTC()
	}

	payload := []byte("{}")
	if len(event.Payload) > 0 {
		raw, err := jsoniter.Marshal(event.Payload)
		if err != nil {
			return jobDispatchInsertModel{}, err
		}
		payload = raw
	}

	row := jobDispatchInsertModel{
		DispatchID: strings.TrimSpace(event.DispatchID),
		JobName:    orDefault(event.JobName, "unknown"),
		JobPath:    orDefault(event.JobPath, "/unknown"),
		GroupID:    orDefault(event.GroupID, "all"),
		Payload:    string(payload),
		Status:     string(event.Status),
		TraceID:    optionalString(event.TraceID),
		SpanID:     optionalString(event.SpanID),
		UpdatedAt:  at,
	}

	stamp := map[jobscheduler.DispatchStatus]**time.Time{
		jobscheduler.StatusSent:      &row.SentAt,
		jobscheduler.StatusStarted:   &row.StartedAt,
		jobscheduler.StatusCompleted: &row.CompletedAt,
		jobscheduler.StatusFailed:    &row.FailedAt,
	}
	if field, ok := stamp[event.Status]; ok {
		*field = &at
	}
	if event.Status == jobscheduler.StatusFailed {
		row.LastError = optionalString(event.ErrorMessage)
	}
	return row, nil
}

func (row jobDispatchTableModel) event() (jobscheduler.DispatchEvent, error) {
	payload := map[string]any{}
	if len(row.Payload) > 0 {
		if err := jsoniter.Unmarshal(row.Payload, &payload); err != nil {
			return jobscheduler.DispatchEvent{}, err
		}
	}

	return jobscheduler.DispatchEvent{
		DispatchID:   row.DispatchID,
		JobName:      row.JobName,
		JobPath:      row.JobPath,
		GroupID:      row.GroupID,
		Status:       jobscheduler.DispatchStatus(row.Status),
		Payload:      payload,
		ErrorMessage: row.LastError.String,
		OccurredAt:   row.UpdatedAt.UTC(),
		TraceID:      row.TraceID.String,
		SpanID:       row.SpanID.String,
	}, nil
}
