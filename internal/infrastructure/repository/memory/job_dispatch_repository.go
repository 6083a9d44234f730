package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	mu     sync.RWMutex
	latest map[string]jobscheduler.DispatchEvent
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{latest: make(map[string]jobscheduler.DispatchEvent)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[dispatchID] = event
	return nil
}

func (r *JobDispatchRepository) StartIfIdle(_ context.Context, event jobscheduler.DispatchEvent) (bool, error) {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return false, fmt.Errorf("dispatch id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.latest[dispatchID]; ok && current.IsRunning() {
		return false, nil
	}
	event.Status = jobscheduler.StatusStarted
	r.latest[dispatchID] = event
	return true, nil
}

func (r *JobDispatchRepository) GetLatest(_ context.Context, dispatchID string) (jobscheduler.DispatchEvent, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.latest[dispatchID]
	return event, ok, nil
}
