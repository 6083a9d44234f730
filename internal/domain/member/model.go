package member

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member is the canonical identity of one physical player inside a group.
type Member struct {
	ID          string
	GroupID     string
	UserID      string
	DisplayName string
	PhotoURL    string
	IsGuest     bool
	Role        Role
	LegacyIDs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m Member) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("member id is required")
	}
	if m.GroupID == "" {
		return fmt.Errorf("member group id is required")
	}
	if strings.TrimSpace(m.DisplayName) == "" {
		return fmt.Errorf("member display name is required")
	}
	switch m.Role {
	case RoleAdmin, RoleMember:
	default:
		return fmt.Errorf("invalid member role: %s", m.Role)
	}

	return nil
}

func (m Member) IsLinked() bool {
	return strings.TrimSpace(m.UserID) != ""
}

func (m Member) HasLegacyID(legacyID string) bool {
	for _, id := range m.LegacyIDs {
		if id == legacyID {
			return true
		}
	}
	return false
}

// NormalizeName is the comparison form of a display name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
