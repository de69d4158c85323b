package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"freegames-notifier/internal/middleware"
	"freegames-notifier/internal/models"
	"freegames-notifier/internal/subscription"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerReader is the read side of the dedup ledger.
type LedgerReader interface {
	ListNotifiedGamesByGuild(ctx context.Context, guildID string) ([]models.NotifiedGame, error)
}

// CycleTrigger starts a polling cycle, in process or through the queue.
type CycleTrigger interface {
	TriggerCycle(ctx context.Context) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	subscriptions *subscription.Service
	ledger        LedgerReader
	trigger       CycleTrigger
	pinger        Pinger
	gatherer      prometheus.Gatherer
	baseURL       string
	now           func() time.Time
}

func New(subs *subscription.Service, ledger LedgerReader, trigger CycleTrigger, pinger Pinger, gatherer prometheus.Gatherer, baseURL string) *Handlers {
	return &Handlers{
		subscriptions: subs,
		ledger:        ledger,
		trigger:       trigger,
		pinger:        pinger,
		gatherer:      gatherer,
		baseURL:       baseURL,
		now:           time.Now,
	}
}

// Router wires the public routes and the token protected, rate limited /api routes.
func (h *Handlers) Router(adminToken string, limiter *middleware.RateLimiterMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/guilds/{guildID:[0-9]+}/feed.rss", h.GetGuildRSSFeed).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.BearerAuth(adminToken))
	if limiter != nil {
		api.Use(limiter.Middleware)
	}
	api.HandleFunc("/guilds/{guildID:[0-9]+}/subscriptions", h.GetSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/guilds/{guildID:[0-9]+}/subscriptions", h.PostSubscription).Methods(http.MethodPost)
	api.HandleFunc("/guilds/{guildID:[0-9]+}/subscriptions/{localID:[0-9]+}", h.DeleteSubscription).Methods(http.MethodDelete)
	api.HandleFunc("/guilds/{guildID:[0-9]+}/notified", h.GetNotifiedGames).Methods(http.MethodGet)
	api.HandleFunc("/cycles", h.PostCycle).Methods(http.MethodPost)
	return r
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) PostCycle(w http.ResponseWriter, r *http.Request) {
	if err := h.trigger.TriggerCycle(r.Context()); err != nil {
		slog.Error("Error triggering cycle", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
