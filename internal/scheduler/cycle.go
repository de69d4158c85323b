// Package scheduler runs polling cycles on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"freegames-notifier/internal/dispatcher"
	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/metrics"
	"freegames-notifier/internal/models"
	"freegames-notifier/internal/worker"

	"golang.org/x/sync/singleflight"
)

// SnapshotSource supplies the subscriptions and ledger a cycle starts from.
type SnapshotSource interface {
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	ListNotifiedGames(ctx context.Context) ([]models.NotifiedGame, error)
}

// Cycle is one snapshot, check and dispatch pass. At most one pass runs at a
// time; callers arriving during a pass share its outcome.
type Cycle struct {
	source     SnapshotSource
	checker    *worker.Checker
	dispatcher *dispatcher.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	flight     singleflight.Group

	mu   sync.Mutex
	done chan struct{} // closed when the latest pass ends
}

func NewCycle(source SnapshotSource, checker *worker.Checker, d *dispatcher.Dispatcher, m *metrics.Metrics) *Cycle {
	return &Cycle{
		source:     source,
		checker:    checker,
		dispatcher: d,
		metrics:    m,
		logger:     logging.Component("cycle"),
	}
}

const flightKey = "cycle"

// Run runs a cycle, or joins the one in progress, and waits for it. If ctx
// ends first Run returns ctx.Err() and the cycle carries on.
func (c *Cycle) Run(ctx context.Context) error {
	ch := c.flight.DoChan(flightKey, func() (interface{}, error) {
		return c.runOnce(context.WithoutCancel(ctx))
	})
	select {
	case r := <-ch:
		if r.Shared {
			c.metrics.CycleJoined()
		}
		if r.Err != nil {
			return r.Err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger starts a cycle without waiting for it. A trigger during a running
// cycle joins it.
func (c *Cycle) Trigger(ctx context.Context) {
	c.flight.DoChan(flightKey, func() (interface{}, error) {
		return c.runOnce(context.WithoutCancel(ctx))
	})
}

// TriggerCycle lets the cycle stand in where a trigger that can fail is expected.
func (c *Cycle) TriggerCycle(ctx context.Context) error {
	c.Trigger(ctx)
	return nil
}

// Wait blocks until the pass in progress, if any, has finished. Triggered
// passes outlive their caller's context, so shutdown waits here before
// closing the store.
func (c *Cycle) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cycle) runOnce(ctx context.Context) (dispatcher.Summary, error) {
	done := make(chan struct{})
	c.mu.Lock()
	c.done = done
	c.mu.Unlock()
	defer close(done)

	start := time.Now()
	sum, err := c.run(ctx)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		c.logger.Error("Cycle failed", "error", err, "duration", time.Since(start))
	} else {
		c.logger.Info("Cycle finished", "delivered", sum.Delivered, "inserted", sum.Inserted, "cleaned", sum.Cleaned, "duration", time.Since(start))
	}
	c.metrics.ObserveCycle(status, time.Since(start))
	return sum, err
}

func (c *Cycle) run(ctx context.Context) (dispatcher.Summary, error) {
	subs, err := c.source.ListSubscriptions(ctx)
	if err != nil {
		return dispatcher.Summary{}, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	notified, err := c.source.ListNotifiedGames(ctx)
	if err != nil {
		return dispatcher.Summary{}, fmt.Errorf("failed to list notified games: %w", err)
	}

	res := <-c.checker.Start(ctx, worker.NewSnapshot(subs, notified))
	if res.Err != nil {
		return dispatcher.Summary{}, fmt.Errorf("check failed: %w", res.Err)
	}
	c.metrics.SetFeedListings(len(res.CurrentIDs))

	return c.dispatcher.Dispatch(ctx, res), nil
}
