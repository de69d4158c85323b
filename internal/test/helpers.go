package test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"freegames-notifier/internal/models"
)

// MemoryStore is an in-memory subscription store and dedup ledger. The ledger
// enforces natural-key uniqueness the way the database does.
type MemoryStore struct {
	mu            sync.Mutex
	subscriptions []models.Subscription
	ledger        map[models.NotifiedKey]models.NotifiedGame

	// ListErr, when set, is returned by the snapshot reads.
	ListErr error
	// InsertErr, when set, is returned by InsertNotifiedGame.
	InsertErr error
	// ExistsCalls counts NotifiedGameExists calls.
	ExistsCalls int
	// DeleteCalls records the id sets passed to DeleteNotifiedGamesNotIn.
	DeleteCalls [][]string
}

func NewMemoryStore(subs ...models.Subscription) *MemoryStore {
	return &MemoryStore{
		subscriptions: append([]models.Subscription(nil), subs...),
		ledger:        make(map[models.NotifiedKey]models.NotifiedGame),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]models.Subscription(nil), m.subscriptions...), nil
}

func (m *MemoryStore) ListSubscriptionsByGuild(ctx context.Context, guildID string) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscription
	for _, s := range m.subscriptions {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildLocalID < out[j].GuildLocalID })
	return out, nil
}

func (m *MemoryStore) GetSubscriptionByLocalID(ctx context.Context, guildID string, localID int) (models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.GuildID == guildID && s.GuildLocalID == localID {
			return s, nil
		}
	}
	return models.Subscription{}, fmt.Errorf("subscription %d: %w", localID, sql.ErrNoRows)
}

func (m *MemoryStore) InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.GuildID == sub.GuildID && s.GuildLocalID == sub.GuildLocalID {
			return false, nil
		}
	}
	m.subscriptions = append(m.subscriptions, sub)
	return true, nil
}

func (m *MemoryStore) DeleteSubscription(ctx context.Context, sub models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.subscriptions[:0]
	for _, s := range m.subscriptions {
		if s.ID != sub.ID {
			kept = append(kept, s)
		}
	}
	m.subscriptions = kept
	for key := range m.ledger {
		if key.GuildID == sub.GuildID && key.Platform == sub.Platform && key.ContentType == sub.ContentType {
			delete(m.ledger, key)
		}
	}
	return nil
}

func (m *MemoryStore) ListNotifiedGames(ctx context.Context) ([]models.NotifiedGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]models.NotifiedGame, 0, len(m.ledger))
	for _, g := range m.ledger {
		out = append(out, g)
	}
	return out, nil
}

func (m *MemoryStore) ListNotifiedGamesByGuild(ctx context.Context, guildID string) ([]models.NotifiedGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NotifiedGame
	for key, g := range m.ledger {
		if key.GuildID == guildID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (m *MemoryStore) NotifiedGameExists(ctx context.Context, key models.NotifiedKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExistsCalls++
	_, ok := m.ledger[key]
	return ok, nil
}

func (m *MemoryStore) InsertNotifiedGame(ctx context.Context, g models.NotifiedGame) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return false, m.InsertErr
	}
	if _, ok := m.ledger[g.Key()]; ok {
		return false, nil
	}
	m.ledger[g.Key()] = g
	return true, nil
}

func (m *MemoryStore) DeleteNotifiedGamesNotIn(ctx context.Context, currentIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, append([]string(nil), currentIDs...))
	if len(currentIDs) == 0 {
		return 0, nil
	}
	live := make(map[string]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		live[id] = struct{}{}
	}
	var n int64
	for key := range m.ledger {
		if _, ok := live[key.GameID]; !ok {
			delete(m.ledger, key)
			n++
		}
	}
	return n, nil
}

// AddNotified seeds a ledger row.
func (m *MemoryStore) AddNotified(key models.NotifiedKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger[key] = models.NotifiedGame{
		GuildID:     key.GuildID,
		Platform:    key.Platform,
		ContentType: key.ContentType,
		GameID:      key.GameID,
	}
}

// LedgerKeys returns the ledger's keys.
func (m *MemoryStore) LedgerKeys() []models.NotifiedKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]models.NotifiedKey, 0, len(m.ledger))
	for key := range m.ledger {
		keys = append(keys, key)
	}
	return keys
}

// StaticFetcher returns whatever listings were last set.
type StaticFetcher struct {
	mu       sync.Mutex
	listings []models.Listing
	Calls    int
}

func (f *StaticFetcher) Set(listings ...models.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = append([]models.Listing(nil), listings...)
}

func (f *StaticFetcher) FetchListings(ctx context.Context) []models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	return append([]models.Listing(nil), f.listings...)
}

// Delivery is one recorded Notify call.
type Delivery struct {
	Subscription models.Subscription
	Listing      models.Listing
}

// RecordingNotifier records deliveries and optionally fails them.
type RecordingNotifier struct {
	mu         sync.Mutex
	Deliveries []Delivery
	Err        error
}

func (n *RecordingNotifier) Notify(ctx context.Context, sub models.Subscription, listing models.Listing) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deliveries = append(n.Deliveries, Delivery{Subscription: sub, Listing: listing})
	return n.Err
}

func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Deliveries)
}
