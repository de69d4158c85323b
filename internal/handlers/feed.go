package handlers

import (
	"log/slog"
	"net/http"

	"freegames-notifier/internal/feed"
	"freegames-notifier/internal/models"

	"github.com/gorilla/mux"
)

func (h *Handlers) GetNotifiedGames(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	games, err := h.ledger.ListNotifiedGamesByGuild(r.Context(), guildID)
	if err != nil {
		slog.Error("Error getting notified games", "guild_id", guildID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []models.NotifiedGame{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *Handlers) GetGuildRSSFeed(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	games, err := h.ledger.ListNotifiedGamesByGuild(r.Context(), guildID)
	if err != nil {
		slog.Error("Error getting notified games", "guild_id", guildID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateGuildRSS(guildID, games, h.baseURL, h.now())
	if err != nil {
		slog.Error("Error generating RSS", "guild_id", guildID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
