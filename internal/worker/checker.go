package worker

import (
	"context"
	"fmt"
	"log/slog"

	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/matcher"
	"freegames-notifier/internal/models"
)

// Fetcher is the feed port. It never fails; a broken fetch is an empty slice.
type Fetcher interface {
	FetchListings(ctx context.Context) []models.Listing
}

// Snapshot is the immutable input of one check: the subscriptions and the
// game ids in the ledger as read at the start of the cycle.
type Snapshot struct {
	subscriptions []models.Subscription
	notified      map[string]struct{}
}

// NewSnapshot copies its inputs so later mutation by the caller cannot leak
// into a running check. Ledger rows collapse to their game id across every
// guild, platform and type.
func NewSnapshot(subscriptions []models.Subscription, notified []models.NotifiedGame) Snapshot {
	snap := Snapshot{
		subscriptions: append([]models.Subscription(nil), subscriptions...),
		notified:      make(map[string]struct{}, len(notified)),
	}
	for _, g := range notified {
		snap.notified[g.GameID] = struct{}{}
	}
	return snap
}

// Subscriptions returns a copy of the snapshot's subscriptions.
func (s Snapshot) Subscriptions() []models.Subscription {
	return append([]models.Subscription(nil), s.subscriptions...)
}

// Notified reports whether gameID had a ledger row, for any guild, when the
// snapshot was taken.
func (s Snapshot) Notified(gameID string) bool {
	_, ok := s.notified[gameID]
	return ok
}

// Match is a listing together with the subscriptions that should hear about it.
type Match struct {
	Listing       models.Listing
	Subscriptions []models.Subscription
}

// Result is the output of one check. Err is set when the check failed; the
// other fields are then empty and the cycle must not touch the stores.
type Result struct {
	NewGames   []Match
	CurrentIDs []string
	Err        error
}

// Checker fetches the feed and matches new listings to subscriptions.
type Checker struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func NewChecker(fetcher Fetcher) *Checker {
	return &Checker{
		fetcher: fetcher,
		logger:  logging.Component("checker"),
	}
}

// Start runs Check on its own goroutine and delivers the result on the
// returned channel. The channel is buffered, so an abandoned result does not
// leak the goroutine.
func (c *Checker) Start(ctx context.Context, snap Snapshot) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		out <- c.Check(ctx, snap)
	}()
	return out
}

// Check fetches the feed and returns the listings whose id is not in the
// snapshot, each with the subscriptions it matches. The snapshot check is only
// a fast path; the dispatcher re-checks the ledger per key before delivery.
func (c *Checker) Check(ctx context.Context, snap Snapshot) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Check panicked", "panic", r)
			res = Result{Err: fmt.Errorf("check panicked: %v", r)}
		}
	}()

	listings := c.fetcher.FetchListings(ctx)
	if len(listings) == 0 {
		return Result{NewGames: []Match{}, CurrentIDs: []string{}}
	}

	res.CurrentIDs = make([]string, 0, len(listings))
	for _, l := range listings {
		res.CurrentIDs = append(res.CurrentIDs, l.ExternalID())
	}

	res.NewGames = []Match{}
	for _, l := range listings {
		if snap.Notified(l.ExternalID()) {
			continue
		}
		var matching []models.Subscription
		for _, sub := range snap.subscriptions {
			if matcher.Matches(l, sub) {
				matching = append(matching, sub)
			}
		}
		if len(matching) == 0 {
			continue
		}
		res.NewGames = append(res.NewGames, Match{Listing: l, Subscriptions: matching})
	}

	c.logger.Debug("Check finished", "listings", len(listings), "new", len(res.NewGames))
	return res
}
