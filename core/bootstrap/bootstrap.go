// Package bootstrap prepares logging and storage before the app is built.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	coredatabase "github.com/12farit21/nosql-telegram-bot/core/database"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
	coremongo "github.com/12farit21/nosql-telegram-bot/core/mongo"
)

// Options configure Run. Nil hooks use the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(context.Context, coredatabase.Config, string) error
	ConnectMongo func(context.Context, coreconfig.MongoConfig) (*mongo.Client, *mongo.Collection, error)
}

// Result holds the handles opened for the configured storage driver.
type Result struct {
	Driver     string
	DB         *sqlx.DB
	Mongo      *mongo.Client
	Collection *mongo.Collection
}

// Close releases every opened connection.
func (r *Result) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.Mongo != nil {
		errs = append(errs, r.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// Run initializes the logger and opens the configured storage driver. The
// postgres driver is migrated before Run returns.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config")
	}

	initLogger := opts.LoggerInit
	if initLogger == nil {
		initLogger = logger.InitLogger
	}
	if err := initLogger(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}

	res := &Result{Driver: cfg.Storage.Driver}
	var err error
	switch res.Driver {
	case coreconfig.DriverMongo:
		err = opts.openMongo(ctx, cfg, res)
	case coreconfig.DriverPostgres:
		err = opts.openPostgres(ctx, cfg, res)
	case coreconfig.DriverMemory:
		logger.Warn(ctx, "app", "storage.ephemeral", slog.String("driver", res.Driver))
	default:
		err = fmt.Errorf("unknown storage driver %q", res.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return res, nil
}

func (o Options) openMongo(ctx context.Context, cfg *coreconfig.Config, res *Result) error {
	connect := o.ConnectMongo
	if connect == nil {
		connect = coremongo.Connect
	}
	client, coll, err := connect(ctx, cfg.Storage.Mongo)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	res.Mongo, res.Collection = client, coll
	return nil
}

func (o Options) openPostgres(ctx context.Context, cfg *coreconfig.Config, res *Result) error {
	connect := o.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	migrate := o.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}

	db, err := connect(ctx, cfg.Storage.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := migrate(ctx, cfg.Storage.Postgres, cfg.Storage.MigrationsDir); err != nil {
		_ = db.Close()
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	res.DB = db
	return nil
}
