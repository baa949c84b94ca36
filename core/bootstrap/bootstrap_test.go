package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	coredatabase "github.com/12farit21/nosql-telegram-bot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func configFor(driver string) *coreconfig.Config {
	cfg := &coreconfig.Config{}
	cfg.Storage.Driver = driver
	cfg.Storage.MigrationsDir = "migrations"
	return cfg
}

func TestRunRejectsNilConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestRunLoggerFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), Options{
		Config:     configFor(coreconfig.DriverMemory),
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunMemory(t *testing.T) {
	res, err := Run(context.Background(), Options{Config: configFor(coreconfig.DriverMemory), LoggerInit: noLogger})
	require.NoError(t, err)
	assert.Equal(t, coreconfig.DriverMemory, res.Driver)
	assert.Nil(t, res.DB)
	assert.Nil(t, res.Mongo)
	assert.NoError(t, res.Close(context.Background()))
}

func TestRunMongoConnectError(t *testing.T) {
	boom := errors.New("unreachable")
	_, err := Run(context.Background(), Options{
		Config:     configFor(coreconfig.DriverMongo),
		LoggerInit: noLogger,
		ConnectMongo: func(context.Context, coreconfig.MongoConfig) (*mongo.Client, *mongo.Collection, error) {
			return nil, nil, boom
		},
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "mongo")
}

func TestRunPostgres(t *testing.T) {
	open := func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
		// sql.Open does not dial, so no server is needed.
		return sqlx.Open("postgres", "host=localhost dbname=realty")
	}

	var migratedDir string
	res, err := Run(context.Background(), Options{
		Config:     configFor(coreconfig.DriverPostgres),
		LoggerInit: noLogger,
		Connect:    open,
		Migrate: func(_ context.Context, _ coredatabase.Config, dir string) error {
			migratedDir = dir
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "migrations", migratedDir)
	require.NotNil(t, res.DB)
	assert.NoError(t, res.Close(context.Background()))

	boom := errors.New("dirty")
	_, err = Run(context.Background(), Options{
		Config:     configFor(coreconfig.DriverPostgres),
		LoggerInit: noLogger,
		Connect:    open,
		Migrate:    func(context.Context, coredatabase.Config, string) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrate")
}

func TestRunUnknownDriver(t *testing.T) {
	_, err := Run(context.Background(), Options{Config: configFor("redis"), LoggerInit: noLogger})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestNilResultClose(t *testing.T) {
	var res *Result
	assert.NoError(t, res.Close(context.Background()))
}
