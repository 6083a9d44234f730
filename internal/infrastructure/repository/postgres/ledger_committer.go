package postgres

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

// LedgerCommitter applies a ledger batch inside one transaction.
type LedgerCommitter struct {
	db *sqlx.DB
}

func NewLedgerCommitter(db *sqlx.DB) *LedgerCommitter {
	return &LedgerCommitter{db: db}
}

func (c *LedgerCommitter) Commit(ctx context.Context, batch *ledger.Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrap(err, "begin ledger tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for idx, op := range batch.Ops() {
		if err := applyOp(ctx, tx, op); err != nil {
			return crerr.Wrapf(err, "ledger op %d (%s)", idx, op.Kind)
		}
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit ledger tx")
	}
	return nil
}

func applyOp(ctx context.Context, tx *sqlx.Tx, op ledger.Op) error {
	switch op.Kind {
	case ledger.OpPutMatch:
		return putMatch(ctx, tx, op.Match)
	case ledger.OpEnsureSeasonStats:
		query, args, err := qb.InsertInto("season_stats").
			Columns("id", "group_id", "season", "member_id").
			Values(op.Key.RecordID(), op.Key.GroupID, op.Key.Season, op.Key.MemberID).
			Suffix("ON CONFLICT (id) DO NOTHING").
			ToSQL()
		if err != nil {
			return crerr.Wrap(err, "build ensure season stats query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "ensure season stats id=%s", op.Key.RecordID())
		}
		return nil
	case ledger.OpIncrementSeasonStats:
		cols := incrementColumns(op.Block, op.Delta)
		if len(cols) == 0 {
			return nil
		}
		builder := qb.Update("season_stats")
		for _, col := range cols {
			builder.SetIncrement(col.column, col.value)
		}
		query, args, err := builder.Where(qb.Eq("id", op.Key.RecordID())).ToSQL()
		if err != nil {
			return crerr.Wrap(err, "build increment season stats query")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return crerr.Wrapf(err, "increment season stats id=%s", op.Key.RecordID())
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return crerr.Newf("increment season stats id=%s: record missing", op.Key.RecordID())
		}
		return nil
	case ledger.OpResolveVoting:
		query, args, err := qb.Update("matches").
			Set("mvp_member_id", optionalString(op.WinnerID)).
			Set("voting_status", string(match.VotingCalculated)).
			Set("voting_calculated_at", op.CalculatedAt.UTC()).
			Where(
				qb.Eq("id", op.MatchID),
				qb.Eq("voting_status", string(match.VotingOpen)),
			).
			ToSQL()
		if err != nil {
			return crerr.Wrap(err, "build resolve voting query")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return crerr.Wrapf(err, "resolve voting match=%s", op.MatchID)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return crerr.Wrapf(ledger.ErrVotingAlreadyResolved, "match=%s", op.MatchID)
		}
		return nil
	default:
		return crerr.Newf("unsupported ledger op %q", op.Kind)
	}
}

func putMatch(ctx context.Context, tx *sqlx.Tx, item match.Match) error {
	model, err := matchInsertFromDomain(item)
	if err != nil {
		return crerr.Wrapf(err, "map match=%s", item.ID)
	}
	query, args, err := qb.InsertModel("matches", model, "ON CONFLICT DO NOTHING")
	if err != nil {
		return crerr.Wrap(err, "build insert match query")
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrapf(err, "insert match=%s", item.ID)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return crerr.Wrapf(ledger.ErrDuplicateMatch, "match=%s legacy=%s", item.ID, item.LegacyMatchID)
	}

	for voter, voted := range item.Ballots {
		query, args, err := qb.InsertInto("match_ballots").
			Columns("match_id", "voter_member_id", "voted_member_id").
			Values(item.ID, voter, voted).
			ToSQL()
		if err != nil {
			return crerr.Wrap(err, "build insert ballot query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "insert ballot match=%s voter=%s", item.ID, voter)
		}
	}
	return nil
}
