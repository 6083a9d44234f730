package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/sunday-league/internal/config"
	"github.com/riskibarqy/sunday-league/internal/domain/invite"
	"github.com/riskibarqy/sunday-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/sunday-league/internal/domain/ledger"
	"github.com/riskibarqy/sunday-league/internal/domain/legacy"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/sunday-league/internal/platform/cache"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// Stores is the set of repositories every service is built from.
type Stores struct {
	Members   member.Repository
	Matches   match.Repository
	Stats     seasonstats.Repository
	Committer ledger.Committer
	Invites   invite.Repository
	Dispatch  jobscheduler.Repository
	Legacy    legacy.Repository

	close func() error
}

func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores builds the repositories selected by STORE_DRIVER.
// A non-empty legacyFile replaces the legacy source with a JSON snapshot.
func OpenStores(cfg config.Config, legacyFile string, logger *logging.Logger) (*Stores, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		stores *Stores
		err    error
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		stores, err = openPostgresStores(cfg, logger)
	default:
		stores = newMemoryStores()
	}
	if err != nil {
		return nil, err
	}

	if legacyFile = strings.TrimSpace(legacyFile); legacyFile != "" {
		snapshot, err := memory.LoadLegacySnapshot(legacyFile)
		if err != nil {
			_ = stores.Close()
			return nil, fmt.Errorf("load legacy snapshot: %w", err)
		}
		stores.Legacy = memory.NewLegacyRepository(snapshot)
		logger.Info("legacy snapshot loaded",
			"path", legacyFile,
			"players", len(snapshot.Players),
			"matches", len(snapshot.Matches),
		)
	}

	if cfg.CacheEnabled {
		stores.Members = cache.NewMemberRepository(stores.Members, basecache.NewStore(cfg.CacheTTL))
	}

	logger.Info("stores ready", "driver", cfg.StoreDriver, "cache_enabled", cfg.CacheEnabled)
	return stores, nil
}

func newMemoryStores() *Stores {
	ledgerStore := memory.NewLedgerStore()
	return &Stores{
		Members:   memory.NewMemberRepository(memory.SeedMembers()),
		Matches:   ledgerStore,
		Stats:     ledgerStore.SeasonStats(),
		Committer: ledgerStore,
		Invites:   memory.NewInviteRepository(),
		Dispatch:  memory.NewJobDispatchRepository(),
		Legacy:    memory.NewLegacyRepository(legacy.Snapshot{}),
	}
}

func openPostgresStores(cfg config.Config, logger *logging.Logger) (*Stores, error) {
	dsn := postgresDSN(cfg.DBURL, cfg.ServiceName)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(max(1, cfg.DBMaxOpenConns/4))
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres connected", "db_name", dbNameFromURL(dsn))

	return &Stores{
		Members:   postgres.NewMemberRepository(db),
		Matches:   postgres.NewMatchRepository(db),
		Stats:     postgres.NewSeasonStatsRepository(db),
		Committer: postgres.NewLedgerCommitter(db),
		Invites:   postgres.NewInviteRepository(db),
		Dispatch:  postgres.NewJobDispatchRepository(db),
		Legacy:    postgres.NewLegacyRepository(db),
		close:     closeDB(db),
	}, nil
}

func closeDB(db *sqlx.DB) func() error {
	return func() error {
		return db.Close()
	}
}
