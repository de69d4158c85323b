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
	"freegames-notifier/internal/discord"
	"freegames-notifier/internal/dispatcher"
	"freegames-notifier/internal/feed"
	"freegames-notifier/internal/handlers"
	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/metrics"
	"freegames-notifier/internal/middleware"
	"freegames-notifier/internal/scheduler"
	"freegames-notifier/internal/subscription"
	"freegames-notifier/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

	if err := run(cfg); err != nil {
		slog.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	fetcher := feed.NewClient(cfg.FeedURL, &http.Client{Timeout: cfg.FeedTimeout})
	d := dispatcher.NewDispatcher(store, discord.NewNotifier(session), m)
	cycle := scheduler.NewCycle(store, worker.NewChecker(fetcher), d, m)

	subs := subscription.NewService(store)
	bot := discord.NewBot(session, discord.NewCommands(subs, discord.GuildOwner(session)), cfg.DiscordApplicationID)
	if err := bot.Start(); err != nil {
		return err
	}
	defer bot.Stop()

	sched := scheduler.New(cycle, cfg.PollingInterval)
	sched.Start(ctx)

	router := handlers.New(subs, store, cycle, store, registry, cfg.BaseURL).
		Router(cfg.AdminToken, middleware.NewRateLimiterMiddleware(5, 10))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	slog.Info("Bot started", "commit", CommitSHA, "interval", cfg.PollingInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("HTTP server failed", "error", err)
	}

	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	if err := cycle.Wait(shutdownCtx); err != nil {
		slog.Error("Cycle still running at shutdown", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
