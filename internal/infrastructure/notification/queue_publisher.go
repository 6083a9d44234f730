package notification

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	domain "github.com/riskibarqy/sunday-league/internal/domain/notification"
)

const DefaultDispatchPath = "/v1/internal/notifications/dispatch"

// Enqueuer is the job queue surface the publisher needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

// QueuePublisher hands notification events to the fan-out endpoint through the job queue.
type QueuePublisher struct {
	queue Enqueuer
	path  string
}

func NewQueuePublisher(queue Enqueuer, path string) *QueuePublisher {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultDispatchPath
	}
	return &QueuePublisher{queue: queue, path: path}
}

func (p *QueuePublisher) Publish(ctx context.Context, event domain.Event) error {
	if p.queue == nil {
		return nil
	}
	if err := p.queue.Enqueue(ctx, p.path, event, 0, deduplicationID(event)); err != nil {
		return crerr.Wrapf(err, "enqueue %s notification", event.Type)
	}
	return nil
}

func deduplicationID(event domain.Event) string {
	subject := event.MatchID
	if event.Type == domain.EventInviteReceived {
		subject = event.InviteID
	}
	if subject == "" {
		return ""
	}
	return string(event.Type) + "-" + subject
}
