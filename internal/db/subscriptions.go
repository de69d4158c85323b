package db

import (
	"context"
	"fmt"

	"freegames-notifier/internal/models"
)

const subscriptionColumns = `id, guild_id, guild_local_id, platform, content_type, channel_id, role_id, created_at`

// ListSubscriptions returns every subscription across all guilds.
func (s *Store) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY guild_id, guild_local_id`
	subscriptions := []models.Subscription{}
	if err := s.db.SelectContext(ctx, &subscriptions, query); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// ListSubscriptionsByGuild returns a guild's subscriptions ordered by local id.
func (s *Store) ListSubscriptionsByGuild(ctx context.Context, guildID string) ([]models.Subscription, error) {
	query := s.db.Rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE guild_id = ? ORDER BY guild_local_id`)
	subscriptions := []models.Subscription{}
	if err := s.db.SelectContext(ctx, &subscriptions, query, guildID); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for guild %s: %w", guildID, err)
	}
	return subscriptions, nil
}

// GetSubscriptionByLocalID finds a subscription by its guild-local id. The
// returned error wraps sql.ErrNoRows when there is none.
func (s *Store) GetSubscriptionByLocalID(ctx context.Context, guildID string, localID int) (models.Subscription, error) {
	query := s.db.Rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE guild_id = ? AND guild_local_id = ?`)
	subscription := models.Subscription{}
	if err := s.db.GetContext(ctx, &subscription, query, guildID, localID); err != nil {
		return subscription, fmt.Errorf("failed to get subscription %d for guild %s: %w", localID, guildID, err)
	}
	return subscription, nil
}

// InsertSubscription stores sub unless its (guild_id, guild_local_id) is
// already taken, in which case it reports false.
func (s *Store) InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	query := s.db.Rebind(`
		INSERT INTO subscriptions (id, guild_id, guild_local_id, platform, content_type, channel_id, role_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	result, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.GuildID, sub.GuildLocalID, sub.Platform, sub.ContentType, sub.ChannelID, sub.RoleID, sub.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert subscription for guild %s: %w", sub.GuildID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// DeleteSubscription removes sub and every ledger row sharing its
// (guild_id, platform, content_type), so recreating the same configuration
// starts with a fresh notification window.
func (s *Store) DeleteSubscription(ctx context.Context, sub models.Subscription) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM subscriptions WHERE id = ?`), sub.ID); err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", sub.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`DELETE FROM notified_games WHERE guild_id = ? AND platform = ? AND content_type = ?`),
		sub.GuildID, sub.Platform, sub.ContentType)
	if err != nil {
		return fmt.Errorf("failed to reset notified games for subscription %s: %w", sub.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit subscription delete: %w", err)
	}
	return nil
}
