package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FEED_URL", "")
	t.Setenv("POLLING_INTERVAL_SECONDS", "")
	t.Setenv("FEED_TIMEOUT_SECONDS", "")
	t.Setenv("PORT", "")
	t.Setenv("BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, DefaultFeedURL, cfg.FeedURL)
	assert.Equal(t, 60*time.Second, cfg.PollingInterval)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Error(t, cfg.RequireDiscord())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("POLLING_INTERVAL_SECONDS", "15")
	t.Setenv("BASE_URL", "https://games.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.PollingInterval)
	assert.Equal(t, "https://games.example.com", cfg.BaseURL)
	assert.NoError(t, cfg.RequireDiscord())
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("POLLING_INTERVAL_SECONDS", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "POLLING_INTERVAL_SECONDS")

	t.Setenv("POLLING_INTERVAL_SECONDS", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "must be positive")
}
