package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns).
		From("matches").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *MatchRepository) GetByLegacyID(ctx context.Context, legacyMatchID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns).
		From("matches").
		Where(qb.Eq("legacy_match_id", legacyMatchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by legacy id query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *MatchRepository) ListByGroup(ctx context.Context, groupID string, season int) ([]match.Match, error) {
	conditions := []qb.Condition{qb.Eq("group_id", groupID)}
	if season > 0 {
		conditions = append(conditions, qb.Eq("season", season))
	}
	query, args, err := qb.Select(matchColumns).
		From("matches").
		Where(conditions...).
		OrderBy("match_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *MatchRepository) ListVotingDue(ctx context.Context, now time.Time, afterID string, limit int) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns).
		From("matches").
		Where(
			qb.Eq("voting_status", string(match.VotingOpen)),
			qb.Lte("voting_closes_at", now.UTC()),
			qb.Gt("id", afterID),
		).
		OrderBy("id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list voting due query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *MatchRepository) SaveBallot(ctx context.Context, matchID, voterMemberID, votedMemberID string, now time.Time) (bool, error) {
	const query = `INSERT INTO match_ballots (match_id, voter_member_id, voted_member_id, updated_at)
SELECT m.id, $2, $3, $4
FROM matches m
WHERE m.id = $1 AND m.voting_status = 'open' AND m.voting_closes_at > $4
ON CONFLICT (match_id, voter_member_id)
DO UPDATE SET voted_member_id = EXCLUDED.voted_member_id, updated_at = EXCLUDED.updated_at`

	res, err := r.db.ExecContext(ctx, query, matchID, voterMemberID, votedMemberID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("save ballot match=%s voter=%s: %w", matchID, voterMemberID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read ballot rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchRepository) getOne(ctx context.Context, query string, args []any) (match.Match, bool, error) {
	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	item, err := matchFromRow(row)
	if err != nil {
		return match.Match{}, false, err
	}
	if err := r.attachBallots(ctx, []*match.Match{&item}); err != nil {
		return match.Match{}, false, err
	}
	return item, true, nil
}

func (r *MatchRepository) list(ctx context.Context, query string, args []any) ([]match.Match, error) {
	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := matchFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	refs := make([]*match.Match, 0, len(out))
	for i := range out {
		refs = append(refs, &out[i])
	}
	if err := r.attachBallots(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MatchRepository) attachBallots(ctx context.Context, items []*match.Match) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	byID := make(map[string]*match.Match, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		byID[item.ID] = item
	}

	query, args, err := qb.Select("match_id", "voter_member_id", "voted_member_id").
		From("match_ballots").
		Where(qb.EqAny("match_id", pq.Array(ids))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build list ballots query: %w", err)
	}

	var rows []ballotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list ballots: %w", err)
	}
	for _, row := range rows {
		if item, ok := byID[row.MatchID]; ok {
			item.Ballots[row.VoterMemberID] = row.VotedMemberID
		}
	}
	return nil
}
