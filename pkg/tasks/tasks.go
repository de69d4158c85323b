package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCheckFreeGames = "freegames:check"
)

// NewCheckFreeGamesTask returns the task that runs one polling cycle. It is
// never retried, the next scheduled task is the retry, and it is unique for
// uniqueFor so a slow cycle does not pile up queued duplicates.
func NewCheckFreeGamesTask(uniqueFor time.Duration) *asynq.Task {
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	return asynq.NewTask(TypeCheckFreeGames, nil, opts...)
}

// CycleEnqueuer triggers a cycle by enqueuing a check task, for processes
// that do not run cycles themselves.
type CycleEnqueuer struct {
	client    TaskEnqueuer
	uniqueFor time.Duration
}

func NewCycleEnqueuer(client TaskEnqueuer, uniqueFor time.Duration) *CycleEnqueuer {
	return &CycleEnqueuer{client: client, uniqueFor: uniqueFor}
}

// TriggerCycle enqueues a check. A check that is already queued counts as success.
func (e *CycleEnqueuer) TriggerCycle(ctx context.Context) error {
	_, err := e.client.Enqueue(NewCheckFreeGamesTask(e.uniqueFor))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("failed to enqueue check task: %w", err)
	}
	return nil
}
