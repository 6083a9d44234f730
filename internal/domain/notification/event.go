package notification

import "context"

type EventType string

const (
	EventMatchCreated   EventType = "match-created"
	EventInviteReceived EventType = "invite-received"
)

type Event struct {
	Type     EventType `json:"type"`
	MatchID  string    `json:"matchId,omitempty"`
	GroupID  string    `json:"groupId,omitempty"`
	InviteID string    `json:"inviteId,omitempty"`
}

// Publisher hands events to the fan-out collaborator.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error {
	return nil
}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}
