package models

import "time"

// NotifiedKey is the natural key of a ledger row.
type NotifiedKey struct {
	GuildID     string
	Platform    Platform
	ContentType ContentType
	GameID      string
}

// NotifiedGame is a ledger row recording that a guild/platform/type was told about a listing.
type NotifiedGame struct {
	GuildID     string      `db:"guild_id" json:"guild_id"`
	Platform    Platform    `db:"platform" json:"platform"`
	ContentType ContentType `db:"content_type" json:"content_type"`
	GameID      string      `db:"game_id" json:"game_id"`
	Title       string      `db:"title" json:"title"`
	Platforms   string      `db:"platforms" json:"platforms"`
	EndDate     *string     `db:"end_date" json:"end_date"`
	ClaimURL    *string     `db:"claim_url" json:"claim_url"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// Key returns the natural key of the row.
func (g NotifiedGame) Key() NotifiedKey {
	return NotifiedKey{
		GuildID:     g.GuildID,
		Platform:    g.Platform,
		ContentType: g.ContentType,
		GameID:      g.GameID,
	}
}

// NewNotifiedGame builds the ledger row for key from the listing that triggered it.
func NewNotifiedGame(key NotifiedKey, l Listing) NotifiedGame {
	g := NotifiedGame{
		GuildID:     key.GuildID,
		Platform:    key.Platform,
		ContentType: key.ContentType,
		GameID:      key.GameID,
		Title:       l.Title,
		Platforms:   l.Platforms,
	}
	if l.EndDate != "" {
		endDate := l.EndDate
		g.EndDate = &endDate
	}
	if l.ClaimURL != "" {
		claimURL := l.ClaimURL
		g.ClaimURL = &claimURL
	}
	return g
}
