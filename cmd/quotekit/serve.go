package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/quotekit/internal/config"
	"github.com/dmitrymomot/quotekit/pkg/httpserver"
	"github.com/dmitrymomot/quotekit/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until SIGINT or SIGTERM",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	logger.SetAsDefault(log)
	ctx := cmd.Context()

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to build application", logger.Error(err))
		return err
	}
	defer a.close()

	log.InfoContext(ctx, "starting quotekit",
		"version", Version,
		"store", cfg.App.StoreDriver,
		"billing", cfg.Billing.Provider,
	)

	srv := httpserver.New(
		httpserver.WithAddr(cfg.HTTP.Addr),
		httpserver.WithReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WithWriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.WithIdleTimeout(cfg.HTTP.IdleTimeout),
		httpserver.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		httpserver.WithLogger(log.With(logger.Component("server"))),
	)
	return srv.Run(ctx, a.handler)
}
