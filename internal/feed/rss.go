package feed

import (
	"fmt"
	"strings"
	"time"

	"freegames-notifier/internal/models"

	"github.com/eduncan911/podcast"
)

// GenerateGuildRSS renders the giveaways a guild has been notified about as an
// RSS document, newest first as given.
func GenerateGuildRSS(guildID string, games []models.NotifiedGame, baseURL string, now time.Time) (string, error) {
	feedURL := fmt.Sprintf("%s/guilds/%s/feed.rss", strings.TrimRight(baseURL, "/"), guildID)

	p := podcast.New(
		fmt.Sprintf("Free games announced in guild %s", guildID),
		feedURL,
		"Free game and DLC giveaways announced to this Discord server.",
		&now, &now,
	)

	for _, game := range games {
		link := feedURL
		if game.ClaimURL != nil && *game.ClaimURL != "" {
			link = *game.ClaimURL
		}

		pubDate := game.CreatedAt
		item := podcast.Item{
			GUID:        fmt.Sprintf("%s:%s:%s:%s", game.GuildID, game.Platform, game.ContentType, game.GameID),
			Title:       game.Title,
			Description: describe(game),
			Link:        link,
			PubDate:     &pubDate,
		}
		if item.Title == "" {
			item.Title = "Free Game"
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add item %s: %w", game.GameID, err)
		}
	}

	return p.String(), nil
}

func describe(game models.NotifiedGame) string {
	desc := fmt.Sprintf("%s %s on %s", game.Platform.Label(), game.ContentType.Label(), game.Platforms)
	if game.EndDate != nil && *game.EndDate != "" && *game.EndDate != models.EndDateUnknown {
		desc += ", ends " + *game.EndDate + " UTC"
	}
	return desc
}
