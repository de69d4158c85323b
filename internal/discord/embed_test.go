package discord

import (
	"strings"
	"testing"
	"time"

	"freegames-notifier/internal/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func TestFormatEndDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-01-15 23:59:00", "<t:1768521540:f> (<t:1768521540:R>)"},
		{"soon", "soon"},
		{"2026-01-15", "2026-01-15"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEndDate(tt.in))
		})
	}
}

func TestBuildEmbed(t *testing.T) {
	l := models.Listing{
		ID:          42,
		Title:       "Free Game",
		Description: "A game",
		Image:       "https://img.example.com/42.jpg",
		Platforms:   "PC, Steam",
		Type:        "Game",
		EndDate:     "2026-01-15 23:59:00",
		ClaimURL:    "https://example.com/claim/42",
	}

	e := BuildEmbed(l, now)
	assert.Equal(t, "Free Game", e.Title)
	assert.Equal(t, 0x00ff00, e.Color)
	assert.Equal(t, "A game", e.Description)
	require.NotNil(t, e.Image)
	assert.Equal(t, l.Image, e.Image.URL)
	assert.Equal(t, l.ClaimURL, e.URL)
	require.Len(t, e.Fields, 3)
	assert.Equal(t, "Platform", e.Fields[0].Name)
	assert.True(t, e.Fields[0].Inline)
	assert.Equal(t, "Type", e.Fields[1].Name)
	assert.Equal(t, "Ends", e.Fields[2].Name)
	assert.False(t, e.Fields[2].Inline)
	assert.Equal(t, "<t:1768521540:f> (<t:1768521540:R>)", e.Fields[2].Value)
}

func TestBuildEmbedSparseListing(t *testing.T) {
	e := BuildEmbed(models.Listing{Image: "/relative.png", ClaimURL: "ftp://x", EndDate: models.EndDateUnknown}, now)

	assert.Equal(t, "Free Game", e.Title, "title falls back")
	assert.Empty(t, e.Description)
	assert.Nil(t, e.Image)
	assert.Empty(t, e.URL)
	assert.Empty(t, e.Fields)
}

func TestBuildEmbedTruncatesDescription(t *testing.T) {
	e := BuildEmbed(models.Listing{Description: strings.Repeat("é", 4500)}, now)
	assert.Equal(t, 4003, len([]rune(e.Description)))
	assert.True(t, strings.HasSuffix(e.Description, "..."))

	e = BuildEmbed(models.Listing{Description: strings.Repeat("a", 4000)}, now)
	assert.Len(t, e.Description, 4000)
}

func TestBuildEmbedUnparseableEndDate(t *testing.T) {
	e := BuildEmbed(models.Listing{EndDate: "until stocks last"}, now)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "until stocks last", e.Fields[0].Value)
}

func TestBuildMessage(t *testing.T) {
	sub := models.Subscription{RoleID: "555", ContentType: models.ContentTypeDLC}
	msg := BuildMessage(sub, models.Listing{Title: "Pack", ClaimURL: "https://example.com/claim"}, now)

	assert.Equal(t, "<@&555> New free DLC available!", msg.Content)
	require.NotNil(t, msg.AllowedMentions)
	assert.Equal(t, []string{"555"}, msg.AllowedMentions.Roles)
	assert.Empty(t, msg.AllowedMentions.Parse)
	require.Len(t, msg.Embeds, 1)

	require.Len(t, msg.Components, 1)
	row, ok := msg.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 1)
	button, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "CLAIM", button.Label)
	assert.Equal(t, discordgo.LinkButton, button.Style)
	assert.Equal(t, "https://example.com/claim", button.URL)
}

func TestBuildMessageWithoutClaimURL(t *testing.T) {
	msg := BuildMessage(models.Subscription{RoleID: "1", ContentType: models.ContentTypeGame}, models.Listing{}, now)
	assert.Equal(t, "<@&1> New free Game available!", msg.Content)
	assert.Empty(t, msg.Components)
}
