package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"freegames-notifier/internal/config"
	"freegames-notifier/internal/db"
	"freegames-notifier/internal/discord"
	"freegames-notifier/internal/dispatcher"
	"freegames-notifier/internal/feed"
	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/metrics"
	"freegames-notifier/internal/scheduler"
	"freegames-notifier/internal/worker"
	"freegames-notifier/pkg/tasks"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if err := cfg.RequireDiscord(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

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

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		slog.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	// The worker only sends messages, so the session is never opened and
	// all calls go through the REST API.
	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		slog.Error("Failed to create Discord session", "error", err)
		os.Exit(1)
	}

	fetcher := feed.NewClient(cfg.FeedURL, &http.Client{Timeout: cfg.FeedTimeout})
	d := dispatcher.NewDispatcher(store, discord.NewNotifier(session), m)
	cycle := scheduler.NewCycle(store, worker.NewChecker(fetcher), d, m)

	go serveMetrics(cfg.Port, registry)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			// One cycle at a time; the ledger is the only shared state.
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			ShutdownTimeout: 30 * time.Second,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeCheckFreeGames, worker.NewTaskHandler(cycle).HandleCheckFreeGamesTask)

	slog.Info("Worker starting", "commit", CommitSHA)
	if err := srv.Run(mux); err != nil {
		slog.Error("Could not run worker", "error", err)
		os.Exit(1)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := cycle.Wait(waitCtx); err != nil {
		slog.Error("Cycle still running at shutdown", "error", err)
	}
}

func serveMetrics(port string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
