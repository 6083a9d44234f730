package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type memberTableModel struct {
	ID          string         `db:"id"`
	GroupID     string         `db:"group_id"`
	UserID      sql.NullString `db:"user_id"`
	DisplayName string         `db:"display_name"`
	PhotoURL    sql.NullString `db:"photo_url"`
	IsGuest     bool           `db:"is_guest"`
	Role        string         `db:"role"`
	LegacyIDs   pq.StringArray `db:"legacy_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type memberInsertModel struct {
	ID          string         `db:"id"`
	GroupID     string         `db:"group_id"`
	UserID      *string        `db:"user_id"`
	DisplayName string         `db:"display_name"`
	PhotoURL    *string        `db:"photo_url"`
	IsGuest     bool           `db:"is_guest"`
	Role        string         `db:"role"`
	LegacyIDs   pq.StringArray `db:"legacy_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
