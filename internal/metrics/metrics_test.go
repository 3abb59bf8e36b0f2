package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePage("search", OutcomeData)
	m.ObservePage("search", OutcomeData)
	m.ObservePage("home", OutcomeError)
	m.ObserveToggle(ToggleAdded)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues("search", OutcomeData)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues("home", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.favoriteToggle.WithLabelValues(ToggleAdded)))
}

func TestMetrics_TrackSubscribers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	n := 3
	m.TrackSubscribers(func() int { return n })

	families, err := reg.Gather()
	assert.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "spotlight_favorite_subscribers" {
			found = true
			assert.Equal(t, 3.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePage("home", OutcomeData)
	m.ObserveToggle(ToggleFailed)
	m.TrackSubscribers(func() int { return 0 })
}
