package invite

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Invite struct {
	ID          string
	GroupID     string
	MemberID    string
	Email       string
	InvitedBy   string
	Status      Status
	CreatedAt   time.Time
	RespondedAt *time.Time
}

func (i Invite) Validate() error {
	if i.ID == "" || i.GroupID == "" || i.MemberID == "" {
		return fmt.Errorf("invite id, group id and member id are required")
	}
	if !strings.Contains(i.Email, "@") {
		return fmt.Errorf("invalid invite email: %s", i.Email)
	}
	return nil
}

func (i Invite) IsPending() bool {
	return i.Status == StatusPending
}
