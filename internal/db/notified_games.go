package db

import (
	"context"
	"fmt"

	"freegames-notifier/internal/models"

	"github.com/jmoiron/sqlx"
)

const notifiedGameColumns = `guild_id, platform, content_type, game_id, title, platforms, end_date, claim_url, created_at`

// ListNotifiedGames returns the whole ledger.
func (s *Store) ListNotifiedGames(ctx context.Context) ([]models.NotifiedGame, error) {
	games := []models.NotifiedGame{}
	if err := s.db.SelectContext(ctx, &games, `SELECT `+notifiedGameColumns+` FROM notified_games`); err != nil {
		return nil, fmt.Errorf("failed to list notified games: %w", err)
	}
	return games, nil
}

// ListNotifiedGamesByGuild returns a guild's ledger rows, newest first.
func (s *Store) ListNotifiedGamesByGuild(ctx context.Context, guildID string) ([]models.NotifiedGame, error) {
	query := s.db.Rebind(`SELECT ` + notifiedGameColumns + ` FROM notified_games WHERE guild_id = ? ORDER BY created_at DESC`)
	games := []models.NotifiedGame{}
	if err := s.db.SelectContext(ctx, &games, query, guildID); err != nil {
		return nil, fmt.Errorf("failed to list notified games for guild %s: %w", guildID, err)
	}
	return games, nil
}

// NotifiedGameExists reports whether a ledger row exists for key.
func (s *Store) NotifiedGameExists(ctx context.Context, key models.NotifiedKey) (bool, error) {
	query := s.db.Rebind(`
		SELECT COUNT(*) FROM notified_games
		WHERE guild_id = ? AND platform = ? AND content_type = ? AND game_id = ?`)
	var count int
	if err := s.db.GetContext(ctx, &count, query, key.GuildID, key.Platform, key.ContentType, key.GameID); err != nil {
		return false, fmt.Errorf("failed to check notified game %s: %w", key.GameID, err)
	}
	return count > 0, nil
}

// InsertNotifiedGame records g with insert-or-ignore semantics. It reports
// whether this call created the row; a racing insert of the same key yields
// false without error.
func (s *Store) InsertNotifiedGame(ctx context.Context, g models.NotifiedGame) (bool, error) {
	query := s.db.Rebind(`
		INSERT INTO notified_games (guild_id, platform, content_type, game_id, title, platforms, end_date, claim_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	result, err := s.db.ExecContext(ctx, query,
		g.GuildID, g.Platform, g.ContentType, g.GameID, g.Title, g.Platforms, g.EndDate, g.ClaimURL)
	if err != nil {
		return false, fmt.Errorf("failed to insert notified game %s: %w", g.GameID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// DeleteNotifiedGamesNotIn deletes, in one statement, every ledger row whose
// game id is not in currentIDs. An empty currentIDs deletes nothing.
func (s *Store) DeleteNotifiedGamesNotIn(ctx context.Context, currentIDs []string) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM notified_games WHERE game_id NOT IN (?)`, currentIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale notified games: %w", err)
	}
	return result.RowsAffected()
}
