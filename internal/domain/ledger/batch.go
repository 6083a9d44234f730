package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
)

var (
	// ErrVotingAlreadyResolved aborts a batch whose ResolveVoting guard found the match not open.
	ErrVotingAlreadyResolved = errors.New("voting already resolved")
	// ErrDuplicateMatch aborts a batch whose PutMatch collides with an existing id or legacy id.
	ErrDuplicateMatch = errors.New("match already exists")
)

type OpKind string

const (
	OpPutMatch             OpKind = "put_match"
	OpEnsureSeasonStats    OpKind = "ensure_season_stats"
	OpIncrementSeasonStats OpKind = "increment_season_stats"
	OpResolveVoting        OpKind = "resolve_voting"
)

// Op is one write inside a batch. Only the fields relevant to Kind are set.
type Op struct {
	Kind OpKind

	Match match.Match

	Key   seasonstats.Key
	Block seasonstats.Block
	Delta seasonstats.Delta

	MatchID      string
	WinnerID     string
	CalculatedAt time.Time
}

// Batch is an ordered list of writes committed all-or-nothing.
type Batch struct {
	ops []Op
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) PutMatch(item match.Match) *Batch {
	b.ops = append(b.ops, Op{Kind: OpPutMatch, Match: item})
	return b
}

// EnsureSeasonStats creates the identity fields of a record without touching its counters.
func (b *Batch) EnsureSeasonStats(key seasonstats.Key) *Batch {
	b.ops = append(b.ops, Op{Kind: OpEnsureSeasonStats, Key: key})
	return b
}

// IncrementSeasonStats adds delta to one block; absent counters count as zero.
func (b *Batch) IncrementSeasonStats(key seasonstats.Key, block seasonstats.Block, delta seasonstats.Delta) *Batch {
	b.ops = append(b.ops, Op{Kind: OpIncrementSeasonStats, Key: key, Block: block, Delta: delta})
	return b
}

// Contribute is EnsureSeasonStats followed by IncrementSeasonStats.
func (b *Batch) Contribute(c seasonstats.Contribution) *Batch {
	return b.EnsureSeasonStats(c.Key).IncrementSeasonStats(c.Key, c.Block, c.Delta)
}

// ResolveVoting closes voting with winner (may be empty); guarded by status open.
func (b *Batch) ResolveVoting(matchID, winnerID string, at time.Time) *Batch {
	b.ops = append(b.ops, Op{Kind: OpResolveVoting, MatchID: matchID, WinnerID: winnerID, CalculatedAt: at})
	return b
}

func (b *Batch) Ops() []Op {
	return append([]Op(nil), b.ops...)
}

func (b *Batch) Len() int {
	return len(b.ops)
}

// Committer applies a batch atomically.
type Committer interface {
	Commit(ctx context.Context, batch *Batch) error
}
