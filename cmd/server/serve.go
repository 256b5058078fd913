package main

import (
	"cardash/internal/api"
	"cardash/internal/engine"
	"cardash/internal/logger"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard datasets over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	store := engine.NewStore()
	pipeline, err := newPipeline(store)
	if err != nil {
		return err
	}

	// 1. Server goes live at once; data endpoints return 503 until the first load publishes.
	h := api.NewHandler(ctx, store, pipeline)
	e := api.NewServer(h, cfg.Server.ReloadRatePerMinute)

	// 2. First load in the background
	go func() {
		logger.Info("BACKGROUND: loading %s", cfg.Data.Path)
		if _, err := pipeline.Run(ctx); err != nil {
			logger.Error("BACKGROUND: initial load failed: %v", err)
		}
	}()

	// 3. Start server
	errc := make(chan error, 1)
	go func() {
		logger.Info("Server ready on %s (data loading in background...)", cfg.Server.Address)
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
