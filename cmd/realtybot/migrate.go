package main

import (
	"fmt"

	"github.com/spf13/cobra"

	corecmd "github.com/12farit21/nosql-telegram-bot/core/cmd"
	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	coredatabase "github.com/12farit21/nosql-telegram-bot/core/database"
	"github.com/12farit21/nosql-telegram-bot/core/logger"
)

// migrateCmd applies PostgreSQL migrations without starting the bot.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL migrations for the postgres storage driver",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := coreconfig.Load(corecmd.ResolveConfigPath(runOptions()))
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != coreconfig.DriverPostgres {
		return fmt.Errorf("migrate: storage.driver is %q, want %q", cfg.Storage.Driver, coreconfig.DriverPostgres)
	}
	if err := logger.InitLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	return coredatabase.RunMigrations(cmd.Context(), cfg.Storage.Postgres, cfg.Storage.MigrationsDir)
}
