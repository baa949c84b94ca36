// Package database connects to PostgreSQL and applies schema migrations for
// the postgres storage driver.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
)

// Config is the PostgreSQL section of the bot configuration.
type Config = coreconfig.PostgresConfig

const (
	// readyTimeout bounds how long Connect waits for the server to come up.
	readyTimeout = 30 * time.Second
	retryEvery   = 2 * time.Second
	pingTimeout  = 5 * time.Second
)

// DSN renders the key/value connection string understood by lib/pq. Values
// are quoted so passwords may contain spaces and quotes.
func DSN(cfg Config) string {
	pairs := []struct{ k, v string }{
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
	}
	var sb strings.Builder
	for _, p := range pairs {
		if p.v == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		v := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(p.v)
		fmt.Fprintf(&sb, "%s='%s'", p.k, v)
	}
	return sb.String()
}

// URL renders the postgres:// form used by golang-migrate.
func URL(cfg Config) string {
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Connect opens a pool and waits up to readyTimeout for the server to answer
// a ping, so the bot can start alongside its database container.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := waitReady(ctx, db); err != nil {
		_ = db.Close()
		logger.Error(ctx, "db", "connect",
			slog.String("status", "fail"),
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if n := cfg.MaxConnections; n > 0 {
		db.SetMaxOpenConns(n)
		db.SetMaxIdleConns(n)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info(ctx, "db", "connect",
		slog.String("status", "ok"),
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Int("pool", cfg.MaxConnections),
		slog.Duration("duration", logger.Took(start)),
	)
	return db, nil
}

func waitReady(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	tick := time.NewTicker(retryEvery)
	defer tick.Stop()
	for attempt := 1; ; attempt++ {
		pingCtx, done := context.WithTimeout(ctx, pingTimeout)
		err := db.PingContext(pingCtx)
		done()
		if err == nil {
			return nil
		}
		logger.Debug(ctx, "db", "wait",
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", err)
		case <-tick.C:
		}
	}
}
