package models

import "strconv"

// EndDateUnknown is what the feed reports when a giveaway has no end date.
const EndDateUnknown = "N/A"

// Listing is one giveaway reported by the feed.
type Listing struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Platforms   string `json:"platforms"`
	Type        string `json:"type"`
	EndDate     string `json:"end_date"`
	ClaimURL    string `json:"open_giveaway"`
}

// ExternalID is the listing id as stored in the ledger.
func (l Listing) ExternalID() string {
	return strconv.FormatInt(l.ID, 10)
}
