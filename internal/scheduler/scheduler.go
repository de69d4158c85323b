package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"freegames-notifier/internal/logging"
)

// Trigger starts a cycle without blocking the caller.
type Trigger interface {
	Trigger(ctx context.Context)
}

// Scheduler fires its trigger once on Start and then every interval until Stop.
type Scheduler struct {
	trigger  Trigger
	interval time.Duration
	logger   *slog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(trigger Trigger, interval time.Duration) *Scheduler {
	return &Scheduler{
		trigger:  trigger,
		interval: interval,
		logger:   logging.Component("scheduler"),
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler", "interval", s.interval)
	s.trigger.Trigger(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.trigger.Trigger(ctx)
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels future firings. A cycle already running is left to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}
