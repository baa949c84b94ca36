// Package mongo opens the MongoDB connection used by the listings store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
)

const connectTimeout = 10 * time.Second

// Connect dials MongoDB, verifies the primary is reachable and returns the
// listings collection together with its client.
func Connect(ctx context.Context, cfg coreconfig.MongoConfig) (*mongo.Client, *mongo.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Error(ctx, "db", "connect",
			slog.String("driver", "mongo"),
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error(ctx, "db", "ping",
			slog.String("driver", "mongo"),
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	// Without an explicit name the database comes from the URI path.
	var db *mongo.Database
	if cfg.Database != "" {
		db = client.Database(cfg.Database)
	} else {
		cs, err := connectionDatabase(cfg.URI)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		db = client.Database(cs)
	}

	logger.Info(ctx, "db", "connect",
		slog.String("driver", "mongo"),
		slog.String("status", "ok"),
		slog.String("db", db.Name()),
		slog.String("collection", cfg.Collection),
		slog.Duration("duration", logger.Took(start)),
	)
	return client, db.Collection(cfg.Collection), nil
}

func connectionDatabase(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("mongo uri: %w", err)
	}
	if cs.Database == "" {
		return "", fmt.Errorf("mongo uri has no database; set storage.mongo.database")
	}
	return cs.Database, nil
}
