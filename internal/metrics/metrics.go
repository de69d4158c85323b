// Package metrics provides Prometheus metrics for polling cycles, deliveries
// and the dedup ledger.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values shared by callers.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	InsertInserted  = "inserted"
	InsertDuplicate = "duplicate"
	InsertError     = "error"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec // cycles by status
	CycleDuration      prometheus.Histogram
	CyclesJoinedTotal  prometheus.Counter // triggers coalesced into a running cycle
	FeedListings       prometheus.Gauge   // listings in the latest fetch
	DeliveriesTotal    *prometheus.CounterVec
	LedgerInsertsTotal *prometheus.CounterVec
	LedgerCleanedTotal prometheus.Counter
}

// New creates the collectors and registers them on registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freegames_cycles_total",
				Help: "Total number of polling cycles by outcome",
			},
			[]string{"status"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "freegames_cycle_duration_seconds",
				Help:    "Wall time of a full fetch, match and dispatch cycle",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		CyclesJoinedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "freegames_cycles_joined_total",
				Help: "Triggers that joined an already running cycle instead of starting a new one",
			},
		),
		FeedListings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "freegames_feed_listings",
				Help: "Number of listings returned by the latest feed fetch",
			},
		),
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freegames_deliveries_total",
				Help: "Notification delivery attempts by status",
			},
			[]string{"status"},
		),
		LedgerInsertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freegames_ledger_inserts_total",
				Help: "Ledger insert attempts by result (inserted, duplicate, error)",
			},
			[]string{"result"},
		),
		LedgerCleanedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "freegames_ledger_cleaned_total",
				Help: "Ledger rows deleted because their listing left the feed",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.CyclesTotal,
		m.CycleDuration,
		m.CyclesJoinedTotal,
		m.FeedListings,
		m.DeliveriesTotal,
		m.LedgerInsertsTotal,
		m.LedgerCleanedTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) ObserveCycle(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) CycleJoined() {
	if m == nil {
		return
	}
	m.CyclesJoinedTotal.Inc()
}

func (m *Metrics) SetFeedListings(n int) {
	if m == nil {
		return
	}
	m.FeedListings.Set(float64(n))
}

func (m *Metrics) ObserveDelivery(status string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveLedgerInsert(result string) {
	if m == nil {
		return
	}
	m.LedgerInsertsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AddLedgerCleaned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.LedgerCleanedTotal.Add(float64(n))
}
