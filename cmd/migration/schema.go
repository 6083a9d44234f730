package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var migrationDirCandidates = []string{"./db/migrations", "/app/db/migrations"}

// schemaCommand applies one golang-migrate operation and describes the outcome.
type schemaCommand func(m *migrate.Migrate, args []string) (string, error)

var schemaCommands = map[string]schemaCommand{
	"up":      schemaUp,
	"down":    schemaDown,
	"version": schemaVersion,
	"force":   schemaForce,
	"goto":    schemaGoto,
	"migrate": schemaGoto,
}

func runSchema(run schemaCommand, args []string) error {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			log.Printf("close migrator: %v", err)
		}
	}()

	summary, err := run(m, args)
	if errors.Is(err, migrate.ErrNoChange) {
		summary, err = "no migration changes", nil
	}
	if err != nil {
		return err
	}
	log.Printf("%s (source=%s)", summary, dir)
	return nil
}

func schemaUp(m *migrate.Migrate, _ []string) (string, error) {
	return "ledger schema up to date", m.Up()
}

func schemaDown(m *migrate.Migrate, args []string) (string, error) {
	steps, err := parseSteps(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rolled back %d migration(s)", steps), m.Steps(-steps)
}

func schemaVersion(m *migrate.Migrate, _ []string) (string, error) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return "version: none, dirty: false", nil
	case err != nil:
		return "", fmt.Errorf("read version: %w", err)
	}
	return fmt.Sprintf("version: %d, dirty: %t", version, dirty), nil
}

func schemaForce(m *migrate.Migrate, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("force requires a version argument")
	}
	version, err := parseVersion(args[0])
	if err != nil {
		return "", err
	}
	if err := m.Force(version); err != nil {
		return "", fmt.Errorf("force version %d: %w", version, err)
	}
	return fmt.Sprintf("forced version to %d", version), nil
}

func schemaGoto(m *migrate.Migrate, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("goto requires a target version argument")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("migrated to version %d", target), m.Migrate(target)
}

// parseSteps defaults to rolling back a single migration.
func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || steps <= 0 {
		return 0, fmt.Errorf("down steps must be a positive integer, got %q", args[0])
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0, fmt.Errorf("version must be a non-negative integer, got %q", raw)
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

// resolveMigrationsDir prefers MIGRATIONS_DIR, then the repo and container layouts.
func resolveMigrationsDir() (string, error) {
	candidates := append([]string{strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))}, migrationDirCandidates...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, %s)", strings.Join(migrationDirCandidates, ", "))
}
