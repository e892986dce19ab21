package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/quotekit/internal/config"
	"github.com/dmitrymomot/quotekit/internal/store/postgres"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending Postgres migrations and exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	config.LoadDotEnv()

	var appCfg config.App
	if err := config.ParseInto(&appCfg); err != nil {
		return err
	}
	var pg config.Postgres
	if err := config.ParseInto(&pg); err != nil {
		return err
	}
	if pg.ConnectionString == "" {
		return errors.Join(config.ErrMissingDatabase, postgres.ErrEmptyConnectionString)
	}

	log := newLogger(config.Config{App: appCfg}).With(logger.Component("migrate"))
	ctx := cmd.Context()

	pool, err := postgres.Connect(ctx, postgres.Config(pg))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, pg.MigrationsTable, log); err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied")
	return nil
}
