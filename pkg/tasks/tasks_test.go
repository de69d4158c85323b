package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "id", Queue: "default"}, nil
}

func TestCycleEnqueuer(t *testing.T) {
	enq := &fakeEnqueuer{}
	e := NewCycleEnqueuer(enq, time.Minute)

	assert.NoError(t, e.TriggerCycle(context.Background()))
	assert.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeCheckFreeGames, enq.tasks[0].Type())
}

func TestCycleEnqueuerDuplicateIsNotAnError(t *testing.T) {
	enq := &fakeEnqueuer{err: fmt.Errorf("enqueue: %w", asynq.ErrDuplicateTask)}
	assert.NoError(t, NewCycleEnqueuer(enq, time.Minute).TriggerCycle(context.Background()))

	enq.err = errors.New("redis down")
	assert.ErrorContains(t, NewCycleEnqueuer(enq, time.Minute).TriggerCycle(context.Background()), "redis down")
}
