package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/sunday-league/internal/config"
	"github.com/riskibarqy/sunday-league/internal/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/jobqueue"
	notificationqueue "github.com/riskibarqy/sunday-league/internal/infrastructure/notification"
	"github.com/riskibarqy/sunday-league/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/sunday-league/internal/platform/id"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"github.com/riskibarqy/sunday-league/internal/platform/resilience"
	"github.com/riskibarqy/sunday-league/internal/usecase"
)

// App is the assembled API process.
type App struct {
	Server *http.Server
	Jobs   *usecase.JobOrchestratorService

	cfg    config.Config
	stores *Stores
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	stores, err := OpenStores(cfg, "", logger)
	if err != nil {
		return nil, err
	}

	queue := newJobQueue(cfg, logger)
	var publisher notification.Publisher = notification.NewNoopPublisher()
	if cfg.NotificationsEnabled {
		publisher = notificationqueue.NewQueuePublisher(queue, cfg.NotificationDispatchPath)
	}

	memberSvc := usecase.NewMemberService(stores.Members, idgen.NewUUIDGenerator("mbr_"))
	matchSvc := usecase.NewMatchService(
		stores.Members,
		stores.Matches,
		stores.Committer,
		stores.Dispatch,
		publisher,
		idgen.NewUUIDGenerator("mt_"),
		usecase.MatchConfig{VotingWindow: cfg.MvpVotingWindow},
		logger,
	)
	votingSvc := usecase.NewVotingService(
		stores.Matches,
		stores.Committer,
		stores.Dispatch,
		usecase.VotingConfig{MaxWorkers: cfg.MvpSweepMaxWorkers},
		logger,
	)
	statsSvc := usecase.NewSeasonStatsService(stores.Stats, stores.Members)
	inviteSvc := usecase.NewInviteService(
		stores.Invites,
		stores.Members,
		memberSvc,
		publisher,
		idgen.NewUUIDGenerator("inv_"),
		logger,
	)
	migrationSvc := newMigrationService(cfg, stores, logger)
	jobs := usecase.NewJobOrchestratorService(
		votingSvc,
		queue,
		stores.Dispatch,
		usecase.JobOrchestratorConfig{
			SweepInterval: cfg.MvpSweepInterval,
			SelfSchedule:  cfg.QStashEnabled,
		},
		logger,
	)

	verifier := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		anubis.ClientConfig{
			BaseURL:        cfg.AnubisBaseURL,
			IntrospectPath: cfg.AnubisIntrospectURL,
			AdminKey:       cfg.AnubisAdminKey,
			CacheTTL:       cfg.AnubisTokenCacheTTL,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.AnubisCircuitEnabled,
				FailureThreshold: cfg.AnubisCircuitFailureCount,
				OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
			},
		},
		logger,
	)

	handler := httpapi.NewHandler(
		matchSvc,
		votingSvc,
		statsSvc,
		memberSvc,
		inviteSvc,
		migrationSvc,
		jobs,
		stores.Dispatch,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}, logger)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Jobs:   jobs,
		cfg:    cfg,
		stores: stores,
		logger: logger,
	}, nil
}

// Start queues the first sweep through QStash, or runs a local ticker until ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.cfg.QStashEnabled {
		if _, err := a.Jobs.Bootstrap(ctx); err != nil {
			a.logger.WarnContext(ctx, "bootstrap mvp sweep failed", "error", err)
		}
		return
	}

	go runSweepLoop(ctx, a.cfg.MvpSweepInterval, func(ctx context.Context) error {
		_, err := a.Jobs.RunMvpSweepJob(ctx, usecase.MvpSweepJobInput{
			MaxWorkers: a.cfg.MvpSweepMaxWorkers,
		})
		return err
	}, a.logger)
}

func (a *App) Close() error {
	return a.stores.Close()
}

// NewMigrationService builds the deduplication engine for cmd/migration.
func NewMigrationService(cfg config.Config, legacyFile string, logger *logging.Logger) (*usecase.MigrationService, func() error, error) {
	stores, err := OpenStores(cfg, legacyFile, logger)
	if err != nil {
		return nil, nil, err
	}
	return newMigrationService(cfg, stores, logger), stores.Close, nil
}

func newMigrationService(cfg config.Config, stores *Stores, logger *logging.Logger) *usecase.MigrationService {
	return usecase.NewMigrationService(
		stores.Legacy,
		stores.Members,
		stores.Matches,
		stores.Stats,
		stores.Committer,
		stores.Dispatch,
		idgen.NewUUIDGenerator("mbr_"),
		idgen.NewUUIDGenerator("mt_"),
		usecase.MigrationConfig{MaxWorkers: cfg.MigrationMaxWorkers},
		logger,
	)
}

func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		logger.Info("qstash disabled, mvp sweep runs on a local ticker", "interval", cfg.MvpSweepInterval.String())
		return usecase.NewNoopJobQueue()
	}

	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          10 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)
}
