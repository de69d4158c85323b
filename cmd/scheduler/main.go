package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"freegames-notifier/internal/config"
	"freegames-notifier/internal/logging"
	"freegames-notifier/pkg/tasks"

	"github.com/hibiken/asynq"
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

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	// First cycle runs at startup, not one interval later.
	client := asynq.NewClient(redisOpt)
	defer client.Close()
	if err := tasks.NewCycleEnqueuer(client, cfg.PollingInterval).TriggerCycle(context.Background()); err != nil {
		slog.Error("Could not enqueue startup cycle", "error", err)
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	spec := fmt.Sprintf("@every %s", cfg.PollingInterval)
	if _, err := scheduler.Register(spec, tasks.NewCheckFreeGamesTask(cfg.PollingInterval)); err != nil {
		slog.Error("Could not register task", "error", err)
		os.Exit(1)
	}

	slog.Info("Scheduler starting", "commit", CommitSHA, "spec", spec)
	if err := scheduler.Run(); err != nil {
		slog.Error("Could not run scheduler", "error", err)
		os.Exit(1)
	}
}
