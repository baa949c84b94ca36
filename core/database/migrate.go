package database

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
)

const defaultMigrationsDir = "migrations"

// RunMigrations applies every pending up migration in dir ("migrations"
// when empty) and logs the version change.
func RunMigrations(ctx context.Context, cfg Config, dir string) error {
	if dir == "" {
		dir = defaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return err
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{DatabaseName: cfg.Name})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(abs), "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migrate init: %w", err)
	}
	// Closing m closes the driver and with it db.
	defer m.Close()

	return apply(ctx, m, abs)
}

// migrator is the part of *migrate.Migrate that apply drives.
type migrator interface {
	Version() (uint, bool, error)
	Up() error
}

func apply(ctx context.Context, m migrator, dir string) error {
	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migrate: database is dirty at version %d; fix it and force the version", from)
	}

	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "apply",
			slog.String("status", "fail"),
			slog.Uint64("from_ver", uint64(from)),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("migrate up: %w", err)
	}
	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate version: %w", err)
	}

	applied := between(upFiles(dir), from, to)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.Took(start)),
	}
	if list, cut := logger.SummarizeStrings(applied, 6); list != "" {
		attrs = append(attrs, slog.String("applied", list), slog.Bool("applied_truncated", cut))
	}
	logger.Info(ctx, "db.migrate", "summary", attrs...)
	return nil
}

// upFiles lists the *.up.sql files in dir in version order.
func upFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Compare(fileVersion(a), fileVersion(b))
	})
	return names
}

// between keeps the files whose version lies in (from, to].
func between(files []string, from, to uint) []string {
	var out []string
	for _, f := range files {
		if v := fileVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}

func fileVersion(name string) uint {
	prefix, _, _ := strings.Cut(name, "_")
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
