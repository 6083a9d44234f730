package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

const MvpSweepJobPath = "/v1/internal/jobs/mvp-sweep"

// JobQueue delivers a POST to path after delay. Messages sharing a
// deduplicationID are delivered once.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(context.Context, string, any, time.Duration, string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type JobOrchestratorConfig struct {
	SweepInterval time.Duration
	// SelfSchedule re-enqueues the sweep after every run. Off when a local ticker drives it.
	SelfSchedule bool
}

type MvpSweepJobInput struct {
	DispatchID string
	MaxWorkers int
}

type MvpSweepJobResult struct {
	Mode             string      `json:"mode"`
	Sweep            SweepResult `json:"sweep"`
	QueuedCount      int         `json:"queued_count"`
	QueuedOperations []string    `json:"queued_operations"`
}

type MvpSweeper interface {
	RunSweep(ctx context.Context, input SweepInput) (SweepResult, error)
}

// JobOrchestratorService drives the periodic MVP sweep through the job queue.
type JobOrchestratorService struct {
	sweeper      MvpSweeper
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          JobOrchestratorConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewJobOrchestratorService(
	sweeper MvpSweeper,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg JobOrchestratorConfig,
	logger *logging.Logger,
) *JobOrchestratorService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 3 * time.Hour
	}

	return &JobOrchestratorService{
		sweeper:      sweeper,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// RunMvpSweepJob runs one sweep and, when self scheduling, queues the next
// one. The next run is queued even after a failed sweep.
func (s *JobOrchestratorService) RunMvpSweepJob(ctx context.Context, input MvpSweepJobInput) (MvpSweepJobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService.RunMvpSweepJob")
	defer span.End()

	now := s.now().UTC()
	dispatchID := strings.TrimSpace(input.DispatchID)
	s.recordSweep(ctx, dispatchID, jobscheduler.StatusStarted, nil, nil, now)

	sweep, sweepErr := s.sweeper.RunSweep(ctx, SweepInput{MaxWorkers: input.MaxWorkers})
	result := MvpSweepJobResult{Mode: "mvp-sweep", Sweep: sweep, QueuedOperations: []string{}}

	if s.cfg.SelfSchedule {
		if err := s.enqueueSweep(ctx, s.cfg.SweepInterval, now); err != nil {
			s.logger.ErrorContext(ctx, "enqueue next mvp sweep failed", "error", err)
		} else {
			result.QueuedCount = 1
			result.QueuedOperations = append(result.QueuedOperations, jobscheduler.JobMvpSweep)
		}
	}

	status := jobscheduler.StatusCompleted
	if sweepErr != nil {
		status = jobscheduler.StatusFailed
	}
	s.recordSweep(ctx, dispatchID, status, map[string]any{
		"match_count":   sweep.MatchCount,
		"success_count": sweep.SuccessCount,
		"skipped_count": sweep.SkippedCount,
		"failed_count":  sweep.FailedCount,
	}, sweepErr, s.now().UTC())

	if sweepErr != nil {
		return result, fmt.Errorf("run mvp sweep: %w", sweepErr)
	}
	return result, nil
}

// Bootstrap queues the first sweep of a fresh deployment.
func (s *JobOrchestratorService) Bootstrap(ctx context.Context) (MvpSweepJobResult, error) {
	if err := s.enqueueSweep(ctx, 0, s.now().UTC()); err != nil {
		return MvpSweepJobResult{}, err
	}
	return MvpSweepJobResult{
		Mode:             "bootstrap",
		QueuedCount:      1,
		QueuedOperations: []string{jobscheduler.JobMvpSweep},
	}, nil
}

func (s *JobOrchestratorService) enqueueSweep(ctx context.Context, delay time.Duration, now time.Time) error {
	dispatchID := sweepDispatchID(now.Add(delay), s.cfg.SweepInterval)
	payload := map[string]any{"dispatch_id": dispatchID}

	err := s.queue.Enqueue(ctx, MvpSweepJobPath, payload, delay, dispatchID)
	status := jobscheduler.StatusSent
	if err != nil {
		status = jobscheduler.StatusFailed
	}
	s.recordSweep(ctx, dispatchID, status, payload, err, now)
	if err != nil {
		return fmt.Errorf("enqueue mvp sweep: %w", err)
	}
	return nil
}

// sweepDispatchID names the sweep slot containing at. Runs landing in the
// same slot share an id, which the queue uses for deduplication.
func sweepDispatchID(at time.Time, slot time.Duration) string {
	if slot <= 0 {
		slot = time.Minute
	}
	return jobscheduler.JobMvpSweep + "-" + at.UTC().Truncate(slot).Format("20060102T150405Z")
}

func (s *JobOrchestratorService) recordSweep(ctx context.Context, dispatchID string, status jobscheduler.DispatchStatus, payload map[string]any, jobErr error, at time.Time) {
	if s.dispatchRepo == nil || dispatchID == "" {
		return
	}

	event := jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobscheduler.JobMvpSweep,
		JobPath:    MvpSweepJobPath,
		Status:     status,
		Payload:    payload,
		OccurredAt: at,
	}
	if jobErr != nil {
		event.ErrorMessage = jobErr.Error()
	}
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)

	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", dispatchID,
			"status", status,
			"error", err,
		)
	}
}
