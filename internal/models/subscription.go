package models

import "time"

// Platform is the storefront a subscription filters on.
type Platform string

const (
	PlatformSteam          Platform = "steam"
	PlatformEpicGamesStore Platform = "epic-games-store"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformSteam, PlatformEpicGamesStore}

var platformLabels = map[Platform]string{
	PlatformSteam:          "Steam",
	PlatformEpicGamesStore: "Epic Games Store",
}

// Label returns the human readable platform name.
func (p Platform) Label() string {
	if label, ok := platformLabels[p]; ok {
		return label
	}
	return string(p)
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	_, ok := platformLabels[p]
	return ok
}

// ContentType is the kind of giveaway a subscription filters on.
type ContentType string

const (
	ContentTypeGame ContentType = "game"
	ContentTypeDLC  ContentType = "dlc"
)

// ContentTypes lists every supported content type in display order.
var ContentTypes = []ContentType{ContentTypeGame, ContentTypeDLC}

var contentTypeLabels = map[ContentType]string{
	ContentTypeGame: "Game",
	ContentTypeDLC:  "DLC",
}

// Label returns the human readable content type name.
func (c ContentType) Label() string {
	if label, ok := contentTypeLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is a supported content type.
func (c ContentType) Valid() bool {
	_, ok := contentTypeLabels[c]
	return ok
}

// Subscription is a guild's configured filter and delivery target.
type Subscription struct {
	ID           string      `db:"id" json:"id"`
	GuildID      string      `db:"guild_id" json:"guild_id"`
	GuildLocalID int         `db:"guild_local_id" json:"guild_local_id"`
	Platform     Platform    `db:"platform" json:"platform"`
	ContentType  ContentType `db:"content_type" json:"content_type"`
	ChannelID    string      `db:"channel_id" json:"channel_id"`
	RoleID       string      `db:"role_id" json:"role_id"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Key returns the ledger key this subscription would record for gameID.
func (s Subscription) Key(gameID string) NotifiedKey {
	return NotifiedKey{
		GuildID:     s.GuildID,
		Platform:    s.Platform,
		ContentType: s.ContentType,
		GameID:      gameID,
	}
}
