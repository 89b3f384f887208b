package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/eventmap/internal/config"
	"github.com/JonMunkholm/eventmap/internal/core"
	_ "github.com/JonMunkholm/eventmap/internal/core/sheets" // Register all sheets
	"github.com/JonMunkholm/eventmap/internal/logging"
	"github.com/JonMunkholm/eventmap/internal/metrics"
	"github.com/JonMunkholm/eventmap/internal/schema"
	"github.com/JonMunkholm/eventmap/internal/source"
	"github.com/JonMunkholm/eventmap/internal/source/watch"
	"github.com/JonMunkholm/eventmap/internal/web"
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

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("configuration", "config", cfg.String())

	sch, err := schema.Resolve(cfg.Schema.AliasFile)
	if err != nil {
		logger.Error("failed to load schema overrides", "file", cfg.Schema.AliasFile, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		logger.Error("failed to open sheet source", "driver", cfg.Source.Driver, "error", err)
		os.Exit(1)
	}
	defer src.Close()

	logger.Info("sheet source opened",
		"driver", src.Driver,
		"location", src.Location,
		"sheets", core.SheetCount(),
	)

	rec := metrics.NewRecorder(true)

	service := core.NewService(src, core.ServiceConfig{
		Compute:     cfg.Filter.ComputeOptions(sch),
		Filter:      cfg.Filter.DefaultFilter(),
		LoadTimeout: cfg.Source.LoadTimeout,
		Metrics:     rec,
		Logger:      logger,
	})

	// A failed sheet only produces a diagnostic; an error here means the
	// whole load timed out.
	if _, err := service.Reload(ctx); err != nil {
		logger.Error("initial load failed", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, *cfg, web.WithMetrics(rec), web.WithLogger(logger))

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	go service.StartReloadScheduler(jobCtx, cfg.Source.ReloadInterval)

	if cfg.Source.Watch {
		w, err := watch.New(cfg.Source.Dir, service, watch.Options{
			Debounce: cfg.Source.WatchDebounce,
			Sheets:   service.SheetNames(),
			Logger:   logger,
		})
		if err != nil {
			logger.Error("failed to watch source directory", "dir", cfg.Source.Dir, "error", err)
			os.Exit(1)
		}
		defer w.Close()
		go w.Run(jobCtx)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
