// Package matcher maps the feed's free-text platform and type fields onto
// subscription filter values.
package matcher

import (
	"strings"

	"freegames-notifier/internal/models"
)

// platformRules maps each platform to the lowercase substring that must
// appear in a listing's platforms text.
var platformRules = map[models.Platform]string{
	models.PlatformSteam:          "steam",
	models.PlatformEpicGamesStore: "epic games store",
}

// typeRules maps each content type to the exact (case-insensitive) type text
// the feed uses for it. The feed labels DLC giveaways "loot".
var typeRules = map[models.ContentType]string{
	models.ContentTypeGame: "game",
	models.ContentTypeDLC:  "loot",
}

// PlatformMatches reports whether platformsText mentions platform.
func PlatformMatches(platformsText string, platform models.Platform) bool {
	needle, ok := platformRules[platform]
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(platformsText), needle)
}

// TypeMatches reports whether typeText is the feed's label for contentType.
func TypeMatches(typeText string, contentType models.ContentType) bool {
	want, ok := typeRules[contentType]
	if !ok {
		return false
	}
	return strings.ToLower(typeText) == want
}

// Matches reports whether l satisfies both of sub's filters.
func Matches(l models.Listing, sub models.Subscription) bool {
	return PlatformMatches(l.Platforms, sub.Platform) && TypeMatches(l.Type, sub.ContentType)
}
