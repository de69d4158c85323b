package discord

import (
	"fmt"
	"strings"
	"time"

	"freegames-notifier/internal/models"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColor          = 0x00ff00
	maxDescriptionChars = 4000
	endDateLayout       = "2006-01-02 15:04:05"
	defaultTitle        = "Free Game"
)

// FormatEndDate renders a feed end date as a Discord timestamp, absolute and
// relative. Dates that do not parse are returned unchanged.
func FormatEndDate(endDate string) string {
	t, err := time.ParseInLocation(endDateLayout, endDate, time.UTC)
	if err != nil {
		return endDate
	}
	unix := t.Unix()
	return fmt.Sprintf("<t:%d:f> (<t:%d:R>)", unix, unix)
}

func hasHTTPPrefix(s string) bool {
	return strings.HasPrefix(s, "http")
}

// BuildEmbed renders a listing.
func BuildEmbed(l models.Listing, now time.Time) *discordgo.MessageEmbed {
	title := l.Title
	if title == "" {
		title = defaultTitle
	}
	embed := &discordgo.MessageEmbed{
		Title:     title,
		Color:     embedColor,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	if strings.TrimSpace(l.Description) != "" {
		embed.Description = truncate(l.Description, maxDescriptionChars)
	}
	if hasHTTPPrefix(l.Image) {
		embed.Image = &discordgo.MessageEmbedImage{URL: l.Image}
	}
	if hasHTTPPrefix(l.ClaimURL) {
		embed.URL = l.ClaimURL
	}

	if strings.TrimSpace(l.Platforms) != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Platform", Value: l.Platforms, Inline: true})
	}
	if strings.TrimSpace(l.Type) != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Type", Value: l.Type, Inline: true})
	}
	if strings.TrimSpace(l.EndDate) != "" && l.EndDate != models.EndDateUnknown {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Ends", Value: FormatEndDate(l.EndDate)})
	}
	return embed
}

// truncate cuts s to n runes and marks the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// BuildMessage renders the announcement of l for sub. Only sub's role may be pinged.
func BuildMessage(sub models.Subscription, l models.Listing, now time.Time) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Content: fmt.Sprintf("<@&%s> New free %s available!", sub.RoleID, sub.ContentType.Label()),
		Embeds:  []*discordgo.MessageEmbed{BuildEmbed(l, now)},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: []string{sub.RoleID},
		},
	}
	if hasHTTPPrefix(l.ClaimURL) {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label: "CLAIM",
						Style: discordgo.LinkButton,
						URL:   l.ClaimURL,
					},
				},
			},
		}
	}
	return msg
}
