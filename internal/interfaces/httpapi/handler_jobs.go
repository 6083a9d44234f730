package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

// jobRunner executes one internal job after the request body is validated.
type jobRunner func(ctx context.Context, req internalJobRequest) (any, error)

// RunMvpSweepJob records its own dispatch events inside the orchestrator.
func (h *Handler) RunMvpSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunMvpSweepJob")
	defer span.End()

	if h.jobOrchestrator == nil {
		writeError(ctx, w, fmt.Errorf("%w: job orchestrator is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	h.serveJob(ctx, w, r, "", func(ctx context.Context, req internalJobRequest) (any, error) {
		return h.jobOrchestrator.RunMvpSweepJob(ctx, usecase.MvpSweepJobInput{
			DispatchID: req.DispatchID,
			MaxWorkers: req.MaxWorkers,
		})
	})
}

func (h *Handler) RunBootstrapJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBootstrapJob")
	defer span.End()

	if h.jobOrchestrator == nil {
		writeError(ctx, w, fmt.Errorf("%w: job orchestrator is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	h.serveJob(ctx, w, r, "bootstrap", func(ctx context.Context, _ internalJobRequest) (any, error) {
		return h.jobOrchestrator.Bootstrap(ctx)
	})
}

// RunMigration executes one deduplication phase, or all of them in order.
func (h *Handler) RunMigration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunMigration")
	defer span.End()

	if h.migrationService == nil {
		writeError(ctx, w, fmt.Errorf("%w: migration service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	phase := strings.ToLower(strings.TrimSpace(r.PathValue("phase")))
	run, ok := h.migrationPhases()[phase]
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown migration phase %q", usecase.ErrInvalidInput, phase))
		return
	}
	h.serveJob(ctx, w, r, "dedup-"+phase, run)
}

func (h *Handler) migrationPhases() map[string]jobRunner {
	svc := h.migrationService
	return map[string]jobRunner{
		"members": func(ctx context.Context, _ internalJobRequest) (any, error) {
			return svc.MigrateGroupMembers(ctx)
		},
		"matches": func(ctx context.Context, req internalJobRequest) (any, error) {
			return svc.MigrateMatches(ctx, usecase.MigrateMatchesInput{MaxWorkers: req.MaxWorkers})
		},
		"recompute": func(ctx context.Context, _ internalJobRequest) (any, error) {
			return svc.RecomputeSeasonStats(ctx)
		},
		"all": func(ctx context.Context, _ internalJobRequest) (any, error) {
			return svc.RunDeduplication(ctx)
		},
	}
}

// serveJob decodes the job body, runs it and writes the result. A non-empty
// jobName records the outcome as a dispatch event.
func (h *Handler) serveJob(ctx context.Context, w http.ResponseWriter, r *http.Request, jobName string, run jobRunner) {
	var req internalJobRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := run(ctx, req)
	if jobName != "" {
		h.recordJobOutcome(ctx, r.URL.Path, jobName, req, err)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "internal job failed",
			"path", r.URL.Path,
			"dispatch_id", req.DispatchID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) recordJobOutcome(ctx context.Context, path, jobName string, req internalJobRequest, jobErr error) {
	if h.jobDispatchRepo == nil {
		return
	}

	now := time.Now().UTC()
	event := jobscheduler.DispatchEvent{
		DispatchID: strings.TrimSpace(req.DispatchID),
		JobName:    jobName,
		JobPath:    path,
		Status:     jobscheduler.StatusCompleted,
		Payload:    map[string]any{"max_workers": req.MaxWorkers},
		OccurredAt: now,
	}
	if event.DispatchID == "" {
		event.DispatchID = manualDispatchID(jobName, now)
	} else {
		event.Payload["dispatch_id"] = event.DispatchID
	}
	if jobErr != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = jobErr.Error()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		event.TraceID = sc.TraceID().String()
		event.SpanID = sc.SpanID().String()
	}

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record job dispatch failed",
			"dispatch_id", event.DispatchID,
			"job_name", jobName,
			"status", event.Status,
			"error", err,
		)
	}
}

// manualDispatchID names runs triggered without a queue-assigned id.
func manualDispatchID(jobName string, at time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(jobName))
	if slug == "" {
		slug = "unknown"
	}
	return "manual-" + slug + "-" + at.UTC().Format("20060102T150405.000000000Z")
}
