// Package dispatcher turns a finished check into deliveries and ledger writes.
package dispatcher

import (
	"context"
	"log/slog"

	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/metrics"
	"freegames-notifier/internal/models"
	"freegames-notifier/internal/worker"
)

// Ledger is the dedup store the dispatcher writes to. Uniqueness of the
// natural key is enforced by the store, not by the dispatcher.
type Ledger interface {
	NotifiedGameExists(ctx context.Context, key models.NotifiedKey) (bool, error)
	InsertNotifiedGame(ctx context.Context, g models.NotifiedGame) (bool, error)
	DeleteNotifiedGamesNotIn(ctx context.Context, currentIDs []string) (int64, error)
}

// Notifier delivers one announcement to a subscription's target.
type Notifier interface {
	Notify(ctx context.Context, sub models.Subscription, listing models.Listing) error
}

// Summary counts what one Dispatch did.
type Summary struct {
	Groups           int
	Delivered        int
	DeliveryFailures int
	Inserted         int
	Skipped          int
	Cleaned          int64
}

type Dispatcher struct {
	ledger   Ledger
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewDispatcher(ledger Ledger, notifier Notifier, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		ledger:   ledger,
		notifier: notifier,
		metrics:  m,
		logger:   logging.Component("dispatcher"),
	}
}

type group struct {
	key           models.NotifiedKey
	listing       models.Listing
	subscriptions []models.Subscription
}

// groupMatches splits every match by (guild, platform, content type), keeping
// the order in which keys were first seen.
func groupMatches(matches []worker.Match) []group {
	var groups []group
	index := make(map[models.NotifiedKey]int)
	for _, m := range matches {
		for _, sub := range m.Subscriptions {
			key := sub.Key(m.Listing.ExternalID())
			if i, ok := index[key]; ok {
				groups[i].subscriptions = append(groups[i].subscriptions, sub)
				continue
			}
			index[key] = len(groups)
			groups = append(groups, group{key: key, listing: m.Listing, subscriptions: []models.Subscription{sub}})
		}
	}
	return groups
}

// Dispatch processes res group by group, then drops ledger rows for listings
// that left the feed. A failed result mutates nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, res worker.Result) Summary {
	var sum Summary
	if res.Err != nil {
		d.logger.Error("Skipping dispatch of failed check", "error", res.Err)
		return sum
	}

	handled := make(map[models.NotifiedKey]struct{})
	for _, g := range groupMatches(res.NewGames) {
		sum.Groups++
		if d.dispatchGroup(ctx, g, handled, &sum) {
			handled[g.key] = struct{}{}
		}
	}

	sum.Cleaned = d.cleanup(ctx, res.CurrentIDs)

	d.logger.Info("Dispatch finished",
		"groups", sum.Groups,
		"delivered", sum.Delivered,
		"delivery_failures", sum.DeliveryFailures,
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"cleaned", sum.Cleaned,
	)
	return sum
}

// dispatchGroup reports whether it created the ledger row for g.
func (d *Dispatcher) dispatchGroup(ctx context.Context, g group, handled map[models.NotifiedKey]struct{}, sum *Summary) bool {
	log := d.logger.With("guild_id", g.key.GuildID, "platform", g.key.Platform, "content_type", g.key.ContentType, "game_id", g.key.GameID)

	if _, ok := handled[g.key]; ok {
		sum.Skipped++
		return false
	}
	exists, err := d.ledger.NotifiedGameExists(ctx, g.key)
	if err != nil {
		log.Error("Failed to check ledger, skipping group", "error", err)
		sum.Skipped++
		return false
	}
	if exists {
		log.Debug("Already notified")
		sum.Skipped++
		return false
	}

	// Every member shares the key, so the first one stands for the group.
	if err := d.notifier.Notify(ctx, g.subscriptions[0], g.listing); err != nil {
		log.Warn("Failed to deliver notification", "channel_id", g.subscriptions[0].ChannelID, "error", err)
		sum.DeliveryFailures++
		d.metrics.ObserveDelivery(metrics.StatusError)
	} else {
		sum.Delivered++
		d.metrics.ObserveDelivery(metrics.StatusSuccess)
	}

	created, err := d.ledger.InsertNotifiedGame(ctx, models.NewNotifiedGame(g.key, g.listing))
	switch {
	case err != nil:
		log.Error("Failed to record notification", "error", err)
		d.metrics.ObserveLedgerInsert(metrics.InsertError)
		return false
	case !created:
		log.Debug("Ledger row already written by another cycle")
		d.metrics.ObserveLedgerInsert(metrics.InsertDuplicate)
		return false
	}
	sum.Inserted++
	d.metrics.ObserveLedgerInsert(metrics.InsertInserted)
	return true
}

// cleanup deletes ledger rows whose listing is gone. An empty id set means the
// fetch failed or the feed is empty, and the ledger is left alone.
func (d *Dispatcher) cleanup(ctx context.Context, currentIDs []string) int64 {
	if len(currentIDs) == 0 {
		return 0
	}
	n, err := d.ledger.DeleteNotifiedGamesNotIn(ctx, currentIDs)
	if err != nil {
		d.logger.Error("Failed to clean up ledger", "error", err)
		return 0
	}
	if n > 0 {
		d.logger.Info("Cleaned up ledger", "deleted", n)
	}
	d.metrics.AddLedgerCleaned(n)
	return n
}
