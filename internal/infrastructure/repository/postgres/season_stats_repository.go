package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

type SeasonStatsRepository struct {
	db *sqlx.DB
}

func NewSeasonStatsRepository(db *sqlx.DB) *SeasonStatsRepository {
	return &SeasonStatsRepository{db: db}
}

func (r *SeasonStatsRepository) Get(ctx context.Context, key seasonstats.Key) (seasonstats.Record, bool, error) {
	query, args, err := qb.Select(seasonStatsColumns).
		From("season_stats").
		Where(qb.Eq("id", key.RecordID())).
		ToSQL()
	if err != nil {
		return seasonstats.Record{}, false, fmt.Errorf("build get season stats query: %w", err)
	}

	var row seasonStatsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return seasonstats.Record{}, false, nil
		}
		return seasonstats.Record{}, false, fmt.Errorf("get season stats id=%s: %w", key.RecordID(), err)
	}
	return seasonStatsFromRow(row), true, nil
}

func (r *SeasonStatsRepository) ListByGroupSeason(ctx context.Context, groupID string, season int) ([]seasonstats.Record, error) {
	query, args, err := qb.Select(seasonStatsColumns).
		From("season_stats").
		Where(
			qb.Eq("group_id", groupID),
			qb.Eq("season", season),
		).
		OrderBy("member_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season stats query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *SeasonStatsRepository) ListByGroup(ctx context.Context, groupID string) ([]seasonstats.Record, error) {
	query, args, err := qb.Select(seasonStatsColumns).
		From("season_stats").
		Where(qb.Eq("group_id", groupID)).
		OrderBy("season", "member_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list group season stats query: %w", err)
	}
	return r.list(ctx, query, args)
}

// Rebuild locks season_stats before reading matches. Ledger batches that
// already wrote stats commit first and are read; later ones wait for the
// lock and increment the rebuilt rows.
func (r *SeasonStatsRepository) Rebuild(ctx context.Context, fold seasonstats.Fold) (int, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx rebuild season stats: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "LOCK TABLE season_stats IN EXCLUSIVE MODE"); err != nil {
		return 0, 0, fmt.Errorf("lock season stats: %w", err)
	}

	query, args, err := qb.Select(matchColumns).From("matches").OrderBy("match_date", "id").ToSQL()
	if err != nil {
		return 0, 0, fmt.Errorf("build rebuild matches query: %w", err)
	}
	var rows []matchTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return 0, 0, fmt.Errorf("read matches for rebuild: %w", err)
	}
	matches := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := matchFromRow(row)
		if err != nil {
			return 0, 0, err
		}
		matches = append(matches, item)
	}

	records := fold(matches)
	if _, err := tx.ExecContext(ctx, "DELETE FROM season_stats"); err != nil {
		return 0, 0, fmt.Errorf("clear season stats: %w", err)
	}
	if err := insertSeasonStats(ctx, tx, records); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit rebuild season stats tx: %w", err)
	}
	return len(matches), len(records), nil
}

func insertSeasonStats(ctx context.Context, tx *sqlx.Tx, records []seasonstats.Record) error {
	const chunkSize = 200
	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))

		var builder *qb.InsertBuilder
		for _, rec := range records[start:end] {
			cols, vals, err := qb.ColumnsAndValues(seasonStatsInsertFromDomain(rec))
			if err != nil {
				return fmt.Errorf("map season stats row: %w", err)
			}
			if builder == nil {
				builder = qb.InsertInto("season_stats").Columns(cols...)
			}
			builder.Values(vals...)
		}

		query, args, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert season stats query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert season stats chunk=%d: %w", start/chunkSize, err)
		}
	}
	return nil
}

func (r *SeasonStatsRepository) list(ctx context.Context, query string, args []any) ([]seasonstats.Record, error) {
	var rows []seasonStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season stats: %w", err)
	}
	out := make([]seasonstats.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, seasonStatsFromRow(row))
	}
	return out, nil
}
