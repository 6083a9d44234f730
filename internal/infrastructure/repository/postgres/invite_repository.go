package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sunday-league/internal/domain/invite"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

type inviteTableModel struct {
	ID          string       `db:"id"`
	GroupID     string       `db:"group_id"`
	MemberID    string       `db:"member_id"`
	Email       string       `db:"email"`
	InvitedBy   string       `db:"invited_by"`
	Status      string       `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	RespondedAt sql.NullTime `db:"responded_at"`
}

type inviteInsertModel struct {
	ID        string    `db:"id"`
	GroupID   string    `db:"group_id"`
	MemberID  string    `db:"member_id"`
	Email     string    `db:"email"`
	InvitedBy string    `db:"invited_by"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type InviteRepository struct {
	db *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) GetByID(ctx context.Context, inviteID string) (invite.Invite, bool, error) {
	query, args, err := qb.Select("*").
		From("invites").
		Where(qb.Eq("id", inviteID)).
		ToSQL()
	if err != nil {
		return invite.Invite{}, false, fmt.Errorf("build get invite query: %w", err)
	}

	var row inviteTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return invite.Invite{}, false, nil
		}
		return invite.Invite{}, false, fmt.Errorf("get invite: %w", err)
	}
	return inviteFromRow(row), true, nil
}

func (r *InviteRepository) ListByGroup(ctx context.Context, groupID string) ([]invite.Invite, error) {
	query, args, err := qb.Select("*").
		From("invites").
		Where(qb.Eq("group_id", groupID)).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list invites query: %w", err)
	}

	var rows []inviteTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	out := make([]invite.Invite, 0, len(rows))
	for _, row := range rows {
		out = append(out, inviteFromRow(row))
	}
	return out, nil
}

func (r *InviteRepository) Create(ctx context.Context, item invite.Invite) error {
	query, args, err := qb.InsertModel("invites", inviteInsertModel{
		ID:        item.ID,
		GroupID:   item.GroupID,
		MemberID:  item.MemberID,
		Email:     item.Email,
		InvitedBy: item.InvitedBy,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert invite query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert invite id=%s: %w", item.ID, err)
	}
	return nil
}

func (r *InviteRepository) Update(ctx context.Context, item invite.Invite) error {
	query, args, err := qb.Update("invites").
		Set("status", string(item.Status)).
		Set("responded_at", optionalTime(item.RespondedAt)).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update invite query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update invite id=%s: %w", item.ID, err)
	}
	return nil
}

func inviteFromRow(row inviteTableModel) invite.Invite {
	return invite.Invite{
		ID:          row.ID,
		GroupID:     row.GroupID,
		MemberID:    row.MemberID,
		Email:       row.Email,
		InvitedBy:   row.InvitedBy,
		Status:      invite.Status(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
		RespondedAt: nullTimePtr(row.RespondedAt),
	}
}
