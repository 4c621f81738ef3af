package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/biblioteca/internal/config"
	"github.com/JonMunkholm/biblioteca/internal/core"
	"github.com/JonMunkholm/biblioteca/internal/logging"
	"github.com/JonMunkholm/biblioteca/internal/storage"
	"github.com/JonMunkholm/biblioteca/internal/store"
	"github.com/JonMunkholm/biblioteca/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	if cfg.UsesDefaultPassword() {
		slog.Warn("imported accounts get the default password; set IMPORT_DEFAULT_PASSWORD")
	}

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database", "driver", cfg.Database.Driver)

	files, err := storage.NewLocalStore(cfg.Storage.TempDir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	service, err := core.NewService(db, files, cfg.Import)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartUploadSweeper(jobCtx, core.SweepConfig{
		MaxAge:   cfg.Storage.SweepAge,
		Interval: cfg.Storage.SweepInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active imports to complete (with timeout)
		if status := service.ImportLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		db.Close()
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
