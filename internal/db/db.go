package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store is the persistence layer for subscriptions and the dedup ledger.
// Queries are written with ? placeholders and rebound for the driver.
type Store struct {
	db *sqlx.DB
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to databaseURL. postgres:// and postgresql:// URLs use lib/pq,
// sqlite:// URLs and bare paths use the embedded sqlite driver.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	driver, dsn, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		if dir := filepath.Dir(strings.SplitN(dsn, "?", 2)[0]); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// A single writer avoids SQLITE_BUSY between overlapping cycles.
		conn.SetMaxOpenConns(1)
	}

	slog.Info("Database connection established", "driver", driver)
	return New(conn), nil
}

func parseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case databaseURL == "":
		return "", "", fmt.Errorf("database URL is empty")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "postgres", databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return "sqlite", withBusyTimeout(strings.TrimPrefix(databaseURL, "sqlite://")), nil
	case strings.Contains(databaseURL, "://"):
		return "", "", fmt.Errorf("unsupported database URL scheme: %s", databaseURL)
	default:
		return "sqlite", withBusyTimeout(databaseURL), nil
	}
}

func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id VARCHAR(26) PRIMARY KEY,
		guild_id VARCHAR(255) NOT NULL,
		guild_local_id INTEGER NOT NULL,
		platform VARCHAR(50) NOT NULL,
		content_type VARCHAR(50) NOT NULL,
		channel_id VARCHAR(255) NOT NULL,
		role_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (guild_id, guild_local_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notified_games (
		guild_id VARCHAR(255) NOT NULL,
		platform VARCHAR(50) NOT NULL,
		content_type VARCHAR(50) NOT NULL,
		game_id VARCHAR(255) NOT NULL,
		title VARCHAR(500) NOT NULL,
		platforms VARCHAR(500) NOT NULL,
		end_date VARCHAR(255),
		claim_url VARCHAR(1000),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (guild_id, platform, content_type, game_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_guild ON subscriptions (guild_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notified_games_game_id ON notified_games (game_id)`,
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
