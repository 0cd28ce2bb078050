package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/casualty-data-service/internal/adapter/http"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
	"github.com/couchcryptid/casualty-data-service/internal/refresh"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the datasets over HTTP and refresh them periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics := observability.NewMetrics()
		c := build(cfg, metrics)
		defer c.close()

		scheduler := refresh.New(c.daily, c.names, cfg.RefreshInterval, nil, logger, metrics)
		srv := httpadapter.NewServer(cfg.HTTPAddr, scheduler,
			httpadapter.Datasets{Daily: c.daily, Names: c.names}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()

		go func() {
			if err := scheduler.Run(ctx); err != nil {
				logger.Error("refresh scheduler error", "error", err)
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
