package feed

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://feed.test/api/giveaways"

const listingsJSON = `[
  {
    "id": 42,
    "title": "Free Game",
    "description": "A free game",
    "image": "https://img.test/42.jpg",
    "platforms": "PC, Steam",
    "type": "Game",
    "end_date": "2026-01-15 23:59:00",
    "open_giveaway": "https://www.gamerpower.com/open/free-game"
  },
  {
    "id": 43,
    "title": "Free DLC",
    "description": "Some loot",
    "image": "https://img.test/43.jpg",
    "platforms": "PC, Epic Games Store",
    "type": "Loot",
    "end_date": "N/A",
    "open_giveaway": "https://www.gamerpower.com/open/free-dlc"
  }
]`

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	return NewClient(testURL, &http.Client{Transport: transport}), transport
}

func TestFetchListings(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testURL, httpmock.NewStringResponder(http.StatusOK, listingsJSON))

	listings := client.FetchListings(context.Background())

	require.Len(t, listings, 2)
	assert.Equal(t, int64(42), listings[0].ID)
	assert.Equal(t, "42", listings[0].ExternalID())
	assert.Equal(t, "PC, Steam", listings[0].Platforms)
	assert.Equal(t, "2026-01-15 23:59:00", listings[0].EndDate)
	assert.Equal(t, "https://www.gamerpower.com/open/free-game", listings[0].ClaimURL)
	assert.Equal(t, "Loot", listings[1].Type)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestFetchListingsFailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"transport error", httpmock.NewErrorResponder(errors.New("connection reset"))},
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "oops")},
		{"not found", httpmock.NewStringResponder(http.StatusNotFound, "")},
		{"malformed json", httpmock.NewStringResponder(http.StatusOK, `[{"id": "forty-two"`)},
		{"object instead of list", httpmock.NewStringResponder(http.StatusOK, `{"status":0,"status_message":"No active giveaways"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newMockedClient(t)
			transport.RegisterResponder(http.MethodGet, testURL, tt.responder)

			listings := client.FetchListings(context.Background())

			assert.NotNil(t, listings)
			assert.Empty(t, listings)
			assert.Equal(t, 1, transport.GetTotalCallCount(), "no retry within a cycle")
		})
	}
}
