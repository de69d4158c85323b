package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/models"
)

const userAgent = "freegames-notifier"

// Client fetches giveaway listings from the GamerPower API.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a Client for url. A nil httpClient gets a client with a
// 30 second timeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		url:        url,
		httpClient: httpClient,
		logger:     logging.Component("feed"),
	}
}

// FetchListings returns the current listings. Any transport, status or decode
// failure is logged and yields an empty result; the next cycle is the retry.
func (c *Client) FetchListings(ctx context.Context) []models.Listing {
	listings, err := c.fetch(ctx)
	if err != nil {
		c.logger.Error("Error fetching free games", "url", c.url, "error", err)
		return []models.Listing{}
	}
	return listings
}

func (c *Client) fetch(ctx context.Context) ([]models.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API responded with status %d", resp.StatusCode)
	}

	var listings []models.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	return listings, nil
}
