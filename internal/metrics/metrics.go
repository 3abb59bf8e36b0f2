// Package metrics exposes Prometheus collectors for list loading and favorites.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spotlight"

// Page outcomes.
const (
	OutcomeData      = "data"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
	OutcomeDiscarded = "discarded"
)

// Toggle outcomes.
const (
	ToggleAdded   = "added"
	ToggleRemoved = "removed"
	ToggleFailed  = "failed"
)

type Metrics struct {
	reg            prometheus.Registerer
	pagesFetched   *prometheus.CounterVec
	favoriteToggle *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		pagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_fetched_total",
				Help:      "Page fetches completed, by list and outcome.",
			},
			[]string{"list", "outcome"},
		),
		favoriteToggle: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorite_toggles_total",
				Help:      "Favorite toggles, by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObservePage(list, outcome string) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(list, outcome).Inc()
}

func (m *Metrics) ObserveToggle(outcome string) {
	if m == nil {
		return
	}
	m.favoriteToggle.WithLabelValues(outcome).Inc()
}

// TrackSubscribers exports the number of live favorite subscribers.
func (m *Metrics) TrackSubscribers(count func() int) {
	if m == nil {
		return
	}
	promauto.With(m.reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "favorite_subscribers",
			Help:      "Live article entries registered for favorite updates.",
		},
		func() float64 { return float64(count()) },
	)
}
