package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freegames-notifier/internal/config"
	"freegames-notifier/internal/db"
	"freegames-notifier/internal/handlers"
	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/middleware"
	"freegames-notifier/internal/models"
	"freegames-notifier/internal/subscription"
	"freegames-notifier/pkg/tasks"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// Store is what the admin API needs from the database.
type Store interface {
	subscription.Store
	ListNotifiedGamesByGuild(ctx context.Context, guildID string) ([]models.NotifiedGame, error)
	Ping(ctx context.Context) error
}

// App is the admin API process. Cycles run in the worker; this process only
// enqueues them.
type App struct {
	store       Store
	asynqClient tasks.TaskEnqueuer
	registry    *prometheus.Registry
	cfg         *config.Config
}

func (a *App) router() http.Handler {
	enqueuer := tasks.NewCycleEnqueuer(a.asynqClient, a.cfg.PollingInterval)
	h := handlers.New(subscription.NewService(a.store), a.store, enqueuer, a.store, a.registry, a.cfg.BaseURL)
	return h.Router(a.cfg.AdminToken, middleware.NewRateLimiterMiddleware(5, 10))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	app := &App{
		store:       store,
		asynqClient: client,
		registry:    registry,
		cfg:         cfg,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "commit", CommitSHA)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}
