// Package subscription manages guild subscriptions: creation with
// guild-local ids, listing and removal.
package subscription

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

var (
	ErrNotFound = errors.New("subscription not found")
	ErrInvalid  = errors.New("invalid subscription")
)

// maxCreateAttempts bounds retries when a concurrent create takes the same local id.
const maxCreateAttempts = 5

// Store is the persistence the service needs.
type Store interface {
	ListSubscriptionsByGuild(ctx context.Context, guildID string) ([]models.Subscription, error)
	GetSubscriptionByLocalID(ctx context.Context, guildID string, localID int) (models.Subscription, error)
	InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error)
	DeleteSubscription(ctx context.Context, sub models.Subscription) error
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	GuildID     string `json:"guild_id" validate:"required,numeric"`
	Platform    string `json:"platform" validate:"required,oneof=steam epic-games-store"`
	ContentType string `json:"content_type" validate:"required,oneof=game dlc"`
	ChannelID   string `json:"channel_id" validate:"required,numeric"`
	RoleID      string `json:"role_id" validate:"required,numeric"`
}

var validate = validator.New()

func validateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

type Service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		logger: logging.Component("subscriptions"),
	}
}

// NextLocalID returns the smallest positive id not in used.
func NextLocalID(used []int) int {
	taken := make(map[int]struct{}, len(used))
	for _, id := range used {
		taken[id] = struct{}{}
	}
	next := 1
	for {
		if _, ok := taken[next]; !ok {
			return next
		}
		next++
	}
}

// Create stores a new subscription under the guild's smallest free local id.
func (s *Service) Create(ctx context.Context, req CreateRequest) (models.Subscription, error) {
	if err := validateStruct(req); err != nil {
		return models.Subscription{}, err
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		existing, err := s.store.ListSubscriptionsByGuild(ctx, req.GuildID)
		if err != nil {
			return models.Subscription{}, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		used := make([]int, 0, len(existing))
		for _, e := range existing {
			used = append(used, e.GuildLocalID)
		}

		sub := models.Subscription{
			ID:           ulid.MustNew(ulid.Now(), rand.Reader).String(),
			GuildID:      req.GuildID,
			GuildLocalID: NextLocalID(used),
			Platform:     models.Platform(req.Platform),
			ContentType:  models.ContentType(req.ContentType),
			ChannelID:    req.ChannelID,
			RoleID:       req.RoleID,
			CreatedAt:    s.now().UTC(),
		}
		created, err := s.store.InsertSubscription(ctx, sub)
		if err != nil {
			return models.Subscription{}, fmt.Errorf("failed to insert subscription: %w", err)
		}
		if created {
			s.logger.Info("Subscription created", "guild_id", sub.GuildID, "local_id", sub.GuildLocalID, "platform", sub.Platform, "content_type", sub.ContentType)
			return sub, nil
		}
		s.logger.Debug("Local id taken concurrently, retrying", "guild_id", sub.GuildID, "local_id", sub.GuildLocalID)
	}
	return models.Subscription{}, fmt.Errorf("failed to allocate a local id for guild %s", req.GuildID)
}

func (s *Service) List(ctx context.Context, guildID string) ([]models.Subscription, error) {
	subs, err := s.store.ListSubscriptionsByGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// Remove deletes the subscription with the given local id together with the
// ledger rows of its (guild, platform, content type), so recreating the same
// configuration announces current listings again.
func (s *Service) Remove(ctx context.Context, guildID string, localID int) (models.Subscription, error) {
	sub, err := s.store.GetSubscriptionByLocalID(ctx, guildID, localID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, ErrNotFound
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	if err := s.store.DeleteSubscription(ctx, sub); err != nil {
		return models.Subscription{}, fmt.Errorf("failed to delete subscription: %w", err)
	}
	s.logger.Info("Subscription removed", "guild_id", guildID, "local_id", localID)
	return sub, nil
}
