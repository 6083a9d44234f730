package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

// A started event reopens a dispatch, so it clears completion and failure.
const upsertJobDispatchSuffix = `ON CONFLICT (dispatch_id) DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    group_id = EXCLUDED.group_id,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    sent_at = COALESCE(EXCLUDED.sent_at, job_dispatches.sent_at),
    started_at = COALESCE(EXCLUDED.started_at, job_dispatches.started_at),
    completed_at = CASE WHEN EXCLUDED.status = 'started' THEN NULL
        ELSE COALESCE(EXCLUDED.completed_at, job_dispatches.completed_at) END,
    failed_at = CASE WHEN EXCLUDED.status IN ('started', 'completed') THEN NULL
        ELSE COALESCE(EXCLUDED.failed_at, job_dispatches.failed_at) END,
    last_error = EXCLUDED.last_error,
    trace_id = EXCLUDED.trace_id,
    span_id = EXCLUDED.span_id,
    updated_at = EXCLUDED.updated_at`

// JobDispatchRepository stores the latest lifecycle state of each job dispatch.
type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	row, err := newJobDispatchInsertModel(event, time.Now())
	if err != nil {
		return fmt.Errorf("encode job dispatch payload: %w", err)
	}
	if row.DispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	query, args, err := qb.InsertModel("job_dispatches", row, upsertJobDispatchSuffix)
	if err != nil {
		return fmt.Errorf("build job dispatch upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch %s (%s): %w", row.DispatchID, row.Status, err)
	}
	return nil
}

// StartIfIdle relies on the upsert's WHERE clause: a conflicting row that is
// already started is left untouched and no row is affected.
func (r *JobDispatchRepository) StartIfIdle(ctx context.Context, event jobscheduler.DispatchEvent) (bool, error) {
	event.Status = jobscheduler.StatusStarted
	row, err := newJobDispatchInsertModel(event, time.Now())
	if err != nil {
		return false, fmt.Errorf("encode job dispatch payload: %w", err)
	}
	if row.DispatchID == "" {
		return false, fmt.Errorf("dispatch id is required")
	}

	query, args, err := qb.InsertModel("job_dispatches", row, upsertJobDispatchSuffix+"\nWHERE job_dispatches.status <> 'started'")
	if err != nil {
		return false, fmt.Errorf("build job dispatch start: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("start job dispatch %s: %w", row.DispatchID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read job dispatch start rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *JobDispatchRepository) GetLatest(ctx context.Context, dispatchID string) (jobscheduler.DispatchEvent, bool, error) {
	query, args, err := qb.Select(jobDispatchColumns...).
		From("job_dispatches").
		Where(qb.Eq("dispatch_id", dispatchID)).
		ToSQL()
	if err != nil {
		return jobscheduler.DispatchEvent{}, false, fmt.Errorf("build job dispatch query: %w", err)
	}

	var row jobDispatchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return jobscheduler.DispatchEvent{}, false, nil
		}
		return jobscheduler.DispatchEvent{}, false, fmt.Errorf("get job dispatch %s: %w", dispatchID, err)
	}

	event, err := row.event()
	if err != nil {
		return jobscheduler.DispatchEvent{}, false, fmt.Errorf("decode job dispatch payload: %w", err)
	}
	return event, true, nil
}
