package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sunday-league/internal/domain/legacy"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

type legacyPlayerTableModel struct {
	ID       string         `db:"id"`
	GroupID  string         `db:"group_id"`
	Name     string         `db:"name"`
	UserID   sql.NullString `db:"user_id"`
	PhotoURL sql.NullString `db:"photo_url"`
}

type legacyMatchTableModel struct {
	ID      string `db:"id"`
	GroupID string `db:"group_id"`
	Payload []byte `db:"payload"`
}

// LegacyRepository reads the pre-migration tables.
type LegacyRepository struct {
	db *sqlx.DB
}

func NewLegacyRepository(db *sqlx.DB) *LegacyRepository {
	return &LegacyRepository{db: db}
}

func (r *LegacyRepository) ListPlayers(ctx context.Context) ([]legacy.Player, error) {
	query, args, err := qb.Select("id", "group_id", "name", "user_id", "photo_url").
		From("legacy_players").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list legacy players query: %w", err)
	}

	var rows []legacyPlayerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list legacy players: %w", err)
	}
	out := make([]legacy.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, legacy.Player{
			ID:       row.ID,
			GroupID:  row.GroupID,
			Name:     row.Name,
			UserID:   row.UserID.String,
			PhotoURL: row.PhotoURL.String,
		})
	}
	return out, nil
}

func (r *LegacyRepository) ListMatches(ctx context.Context) ([]legacy.Match, error) {
	query, args, err := qb.Select("id", "group_id", "payload").
		From("legacy_matches").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list legacy matches query: %w", err)
	}

	var rows []legacyMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list legacy matches: %w", err)
	}
	out := make([]legacy.Match, 0, len(rows))
	for _, row := range rows {
		var item legacy.Match
		if err := sonic.Unmarshal(row.Payload, &item); err != nil {
			return nil, fmt.Errorf("decode legacy match id=%s: %w", row.ID, err)
		}
		item.ID = row.ID
		item.GroupID = row.GroupID
		out = append(out, item)
	}
	return out, nil
}
