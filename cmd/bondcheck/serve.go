package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/bondcheck/internal/config"
	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/JonMunkholm/bondcheck/internal/logging"
	"github.com/JonMunkholm/bondcheck/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bond checker web page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load .env file if it exists (Overload overwrites existing env vars)
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Info("readers registered",
		"count", core.ReaderCount(),
		"own", core.Extensions(core.CategoryOwn),
		"winning", core.Extensions(core.CategoryWinning),
	)

	limiter := core.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	store := core.NewSessionStore(core.StoreConfig{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Session: core.SessionOptions{
			PrizeLabel: cfg.Match.PrizeLabel,
			Limiter:    limiter,
		},
	})

	server := web.NewServer(cfg, store, limiter)

	// Cancellable context for the session sweeper
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	go store.StartSweeper(jobCtx, cfg.Session.SweepInterval)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		server.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sigCtx.Done():
	}

	slog.Info("shutting down...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Wait for in-flight reads to finish (with timeout)
	if status := limiter.Status(); status.Active > 0 {
		slog.Info("waiting for reads to complete", "active", status.Active)
		if err := limiter.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("reads did not complete in time", "error", err)
		} else {
			slog.Info("all reads completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
