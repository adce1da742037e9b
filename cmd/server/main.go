package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/catalog/source"
	"github.com/JonMunkholm/recipebox/internal/config"
	"github.com/JonMunkholm/recipebox/internal/feedback"
	"github.com/JonMunkholm/recipebox/internal/logging"
	"github.com/JonMunkholm/recipebox/internal/metrics"
	"github.com/JonMunkholm/recipebox/internal/profile"
	"github.com/JonMunkholm/recipebox/internal/recommend"
	"github.com/JonMunkholm/recipebox/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("effective configuration", "config", cfg.String())

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"catalog_source", cfg.Catalog.Source,
		"catalog_max_rows", cfg.Catalog.MaxRows,
		"recommender_configured", cfg.Recommender.URL != "",
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog source and store
	src, err := source.New(ctx, cfg.Catalog)
	if err != nil {
		slog.Error("failed to create catalog source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	m := metrics.New()
	store := catalog.NewStore(src, catalog.Options{MaxRows: cfg.Catalog.MaxRows})
	feedbackStore := feedback.NewStore(store)
	profiles := profile.NewStore()
	store.SetObserver(m)

	// A failed first load leaves the API up and degraded; the reloader or
	// the admin endpoint can recover it.
	if res, err := store.Reload(ctx); err != nil {
		slog.Warn("initial catalog load failed", "error", err)
	} else {
		slog.Info("catalog loaded", "records", res.Snapshot.Len(), "source", src.Name())
	}

	// Recommendations
	var (
		remote      recommend.Remote
		remoteState func() string
	)
	if cfg.Recommender.URL != "" {
		client := recommend.NewClient(cfg.Recommender, m.BreakerStateChanged)
		remote = client
		remoteState = client.State
	} else {
		slog.Info("no recommendation service configured, using local fallback only")
	}
	recommender := recommend.NewService(remote, recommend.NewFallback(cfg.Recommender.ResultLimit), store)
	recommender.SetObserver(m)
	recommender.SetPreferences(profiles)

	server := web.NewServer(cfg, web.Deps{
		Catalog:     store,
		Recommender: recommender,
		Feedback:    feedbackStore,
		Profiles:    profiles,
		Metrics:     m,
		RemoteState: remoteState,
	})

	// Background catalog reloads stop with ctx
	go store.RunReloader(ctx, cfg.Catalog.ReloadInterval)

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}
