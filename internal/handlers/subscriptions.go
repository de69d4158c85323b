package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"freegames-notifier/internal/models"
	"freegames-notifier/internal/subscription"

	"github.com/gorilla/mux"
)

type subscriptionRequest struct {
	Platform    string `json:"platform"`
	ContentType string `json:"content_type"`
	ChannelID   string `json:"channel_id"`
	RoleID      string `json:"role_id"`
}

func (h *Handlers) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	subs, err := h.subscriptions.List(r.Context(), guildID)
	if err != nil {
		slog.Error("Error getting subscriptions", "guild_id", guildID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handlers) PostSubscription(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), subscription.CreateRequest{
		GuildID:     guildID,
		Platform:    req.Platform,
		ContentType: req.ContentType,
		ChannelID:   req.ChannelID,
		RoleID:      req.RoleID,
	})
	if errors.Is(err, subscription.ErrInvalid) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("Error creating subscription", "guild_id", guildID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	guildID := vars["guildID"]
	localID, err := strconv.Atoi(vars["localID"])
	if err != nil {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	_, err = h.subscriptions.Remove(r.Context(), guildID, localID)
	if errors.Is(err, subscription.ErrNotFound) {
		http.Error(w, "Subscription not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Error deleting subscription", "guild_id", guildID, "local_id", localID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
