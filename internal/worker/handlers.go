package worker

import (
	"context"
	"fmt"
	"log/slog"

	"freegames-notifier/internal/logging"

	"github.com/hibiken/asynq"
)

// CycleRunner runs one full fetch, match and dispatch cycle.
type CycleRunner interface {
	Run(ctx context.Context) error
}

type TaskHandler struct {
	cycle  CycleRunner
	logger *slog.Logger
}

func NewTaskHandler(cycle CycleRunner) *TaskHandler {
	return &TaskHandler{
		cycle:  cycle,
		logger: logging.Component("task_handler"),
	}
}

func (h *TaskHandler) HandleCheckFreeGamesTask(ctx context.Context, t *asynq.Task) error {
	h.logger.Info("Checking free games...")

	if err := h.cycle.Run(ctx); err != nil {
		// The next scheduled check is the retry.
		h.logger.Error("Free games check failed", "error", err)
		return fmt.Errorf("check failed: %v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("Finished checking free games.")
	return nil
}
