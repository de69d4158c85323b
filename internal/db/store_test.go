package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"freegames-notifier/internal/models"
	"freegames-notifier/internal/test"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subscriptionCols = []string{"id", "guild_id", "guild_local_id", "platform", "content_type", "channel_id", "role_id", "created_at"}

func TestMigrate(t *testing.T) {
	store, mock := test.NewMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS subscriptions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS notified_games`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_subscriptions_guild`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_notified_games_game_id`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubscriptions(t *testing.T) {
	store, mock := test.NewMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows(subscriptionCols).
		AddRow("01A", "G1", 1, "steam", "game", "C1", "R1", now).
		AddRow("01B", "G1", 2, "epic-games-store", "dlc", "C2", "R2", now)
	mock.ExpectQuery(`SELECT id, guild_id, guild_local_id, platform, content_type, channel_id, role_id, created_at FROM subscriptions ORDER BY guild_id, guild_local_id`).
		WillReturnRows(rows)

	subs, err := store.ListSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, models.PlatformSteam, subs[0].Platform)
	assert.Equal(t, models.ContentTypeDLC, subs[1].ContentType)
	assert.Equal(t, 2, subs[1].GuildLocalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscriptionByLocalIDNotFound(t *testing.T) {
	store, mock := test.NewMockStore(t)

	mock.ExpectQuery(`FROM subscriptions WHERE guild_id = \$1 AND guild_local_id = \$2`).
		WithArgs("G1", 7).
		WillReturnRows(sqlmock.NewRows(subscriptionCols))

	_, err := store.GetSubscriptionByLocalID(context.Background(), "G1", 7)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSubscriptionConflict(t *testing.T) {
	store, mock := test.NewMockStore(t)
	sub := models.Subscription{ID: "01A", GuildID: "G1", GuildLocalID: 1, Platform: models.PlatformSteam, ContentType: models.ContentTypeGame, ChannelID: "C1", RoleID: "R1", CreatedAt: time.Now()}

	mock.ExpectExec(`INSERT INTO subscriptions .* ON CONFLICT DO NOTHING`).
		WithArgs("01A", "G1", 1, "steam", "game", "C1", "R1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.InsertSubscription(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubscriptionResetsLedger(t *testing.T) {
	store, mock := test.NewMockStore(t)
	sub := models.Subscription{ID: "01A", GuildID: "G1", Platform: models.PlatformSteam, ContentType: models.ContentTypeGame}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM subscriptions WHERE id = \$1`).WithArgs("01A").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM notified_games WHERE guild_id = \$1 AND platform = \$2 AND content_type = \$3`).
		WithArgs("G1", "steam", "game").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	require.NoError(t, store.DeleteSubscription(context.Background(), sub))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubscriptionRollsBackOnLedgerFailure(t *testing.T) {
	store, mock := test.NewMockStore(t)
	sub := models.Subscription{ID: "01A", GuildID: "G1", Platform: models.PlatformSteam, ContentType: models.ContentTypeGame}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM subscriptions WHERE id = \$1`).WithArgs("01A").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM notified_games`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.DeleteSubscription(context.Background(), sub)
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNotifiedGame(t *testing.T) {
	store, mock := test.NewMockStore(t)
	key := models.NotifiedKey{GuildID: "G1", Platform: models.PlatformSteam, ContentType: models.ContentTypeGame, GameID: "42"}
	game := models.NewNotifiedGame(key, models.Listing{ID: 42, Title: "Free Game", Platforms: "PC, Steam", EndDate: "2026-01-15 23:59:00"})

	mock.ExpectExec(`INSERT INTO notified_games .* ON CONFLICT DO NOTHING`).
		WithArgs("G1", "steam", "game", "42", "Free Game", "PC, Steam", "2026-01-15 23:59:00", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO notified_games .* ON CONFLICT DO NOTHING`).
		WithArgs("G1", "steam", "game", "42", "Free Game", "PC, Steam", "2026-01-15 23:59:00", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.InsertNotifiedGame(context.Background(), game)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.InsertNotifiedGame(context.Background(), game)
	require.NoError(t, err)
	assert.False(t, created, "conflicting insert is ignored, not an error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifiedGameExists(t *testing.T) {
	store, mock := test.NewMockStore(t)
	key := models.NotifiedKey{GuildID: "G1", Platform: models.PlatformSteam, ContentType: models.ContentTypeGame, GameID: "42"}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notified_games\s+WHERE guild_id = \$1 AND platform = \$2 AND content_type = \$3 AND game_id = \$4`).
		WithArgs("G1", "steam", "game", "42").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := store.NotifiedGameExists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotifiedGamesNotIn(t *testing.T) {
	store, mock := test.NewMockStore(t)

	mock.ExpectExec(`DELETE FROM notified_games WHERE game_id NOT IN \(\$1, \$2\)`).
		WithArgs("42", "43").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteNotifiedGamesNotIn(context.Background(), []string{"42", "43"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = store.DeleteNotifiedGamesNotIn(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n, "an empty id set must never wipe the ledger")

	assert.NoError(t, mock.ExpectationsWereMet())
}
