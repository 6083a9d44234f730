package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/sunday-league/internal/app"
	"github.com/riskibarqy/sunday-league/internal/config"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"github.com/riskibarqy/sunday-league/internal/usecase"
)

type dedupOptions struct {
	Phase      string
	LegacyFile string
	MaxWorkers int
	ResetGate  bool
}

func parseDedupArgs(args []string) (dedupOptions, error) {
	if len(args) == 0 {
		return dedupOptions{}, fmt.Errorf("dedup requires a phase: members, matches, recompute or all")
	}

	opts := dedupOptions{Phase: strings.ToLower(strings.TrimSpace(args[0]))}
	switch opts.Phase {
	case "members", "matches", "recompute", "all":
	default:
		return dedupOptions{}, fmt.Errorf("unknown dedup phase %q", args[0])
	}

	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.LegacyFile, "legacy-file", "", "JSON legacy snapshot; default reads the legacy tables")
	fs.IntVar(&opts.MaxWorkers, "max-workers", 0, "phase B worker count; default MIGRATION_MAX_WORKERS")
	fs.BoolVar(&opts.ResetGate, "reset-gate", false, "clear a recompute left started by a crashed run before the phase")
	if err := fs.Parse(args[1:]); err != nil {
		return dedupOptions{}, err
	}
	if opts.MaxWorkers < 0 || opts.MaxWorkers > 64 {
		return dedupOptions{}, fmt.Errorf("max-workers must be between 0 and 64")
	}
	if fs.NArg() > 0 {
		return dedupOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return opts, nil
}

func runDedup(args []string) error {
	opts, err := parseDedupArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewJSON(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("dedup running against the memory store, results are discarded on exit")
	}

	svc, closeStores, err := app.NewMigrationService(cfg, opts.LegacyFile, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStores() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := runDedupPhase(ctx, svc, opts)
	if err != nil {
		return err
	}

	out, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func runDedupPhase(ctx context.Context, svc *usecase.MigrationService, opts dedupOptions) (any, error) {
	if opts.ResetGate {
		if _, err := svc.ResetRecomputeGate(ctx); err != nil {
			return nil, err
		}
	}

	switch opts.Phase {
	case "members":
		return svc.MigrateGroupMembers(ctx)
	case "matches":
		return svc.MigrateMatches(ctx, usecase.MigrateMatchesInput{MaxWorkers: opts.MaxWorkers})
	case "recompute":
		return svc.RecomputeSeasonStats(ctx)
	default:
		return svc.RunDeduplication(ctx)
	}
}
