package tasks

import (
	"context"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer is the part of *asynq.Client the enqueuer uses.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CycleTrigger is satisfied by CycleEnqueuer and by the in-process cycle.
type CycleTrigger interface {
	TriggerCycle(ctx context.Context) error
}

var (
	_ TaskEnqueuer = (*asynq.Client)(nil)
	_ CycleTrigger = (*CycleEnqueuer)(nil)
)
