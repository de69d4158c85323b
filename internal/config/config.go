package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultFeedURL     = "https://www.gamerpower.com/api/giveaways"
	DefaultDatabaseURL = "sqlite://./data/freegames.db"
)

// Config holds all configuration values for the notifier binaries.
type Config struct {
	// Discord
	DiscordToken         string
	DiscordApplicationID string

	// Storage
	DatabaseURL string

	// Feed
	FeedURL     string
	FeedTimeout time.Duration

	// Polling
	PollingInterval time.Duration

	// Distributed mode
	RedisAddr string

	// Admin HTTP
	Port       string
	BaseURL    string
	AdminToken string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables, after loading a .env
// file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:         os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", DefaultDatabaseURL),
		FeedURL:              getEnvOrDefault("FEED_URL", DefaultFeedURL),
		RedisAddr:            getEnvOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		Port:                 getEnvOrDefault("PORT", "8080"),
		BaseURL:              os.Getenv("BASE_URL"),
		AdminToken:           os.Getenv("ADMIN_TOKEN"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
	}

	interval, err := getEnvSeconds("POLLING_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.PollingInterval = interval

	timeout, err := getEnvSeconds("FEED_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.FeedTimeout = timeout

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}

	return cfg, nil
}

// RequireDiscord fails when the binary needs to talk to Discord but no
// credentials are configured.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) (time.Duration, error) {
	raw := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return time.Duration(n) * time.Second, nil
}
