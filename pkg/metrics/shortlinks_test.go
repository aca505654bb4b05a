package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortlinkMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewShortlinkMetrics(reg)
	m.ObserveCollisionCheck(120*time.Millisecond, true)
	m.ObserveCollisionCheck(30*time.Millisecond, false)
	m.IncNamespaceFailure("blog")
	m.IncNamespaceFailure("blog")
	m.IncResolution("redirect")
	m.IncClickFailure("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.namespaceFailures.WithLabelValues("blog")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clickFailures.WithLabelValues("unknown")), "blank stage is labelled unknown")

	collision := histogram(t, reg, "shortlink_collision_check_duration_seconds", "outcome", "collision")
	assert.Equal(t, uint64(1), collision.GetSampleCount())
	assert.InDelta(t, 0.12, collision.GetSampleSum(), 0.001)
	assert.Equal(t, uint64(1), histogram(t, reg, "shortlink_collision_check_duration_seconds", "outcome", "free").GetSampleCount())
}

func TestHTTPAndConsumerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg).Observe("GET", "/api/v1/cart", 200, 10*time.Millisecond)
	consumer := NewClickConsumerMetrics(reg)
	consumer.Inc("duplicate")
	consumer.Inc("rejected")

	assert.Equal(t, uint64(1), histogram(t, reg, "http_request_duration_seconds", "route", "/api/v1/cart").GetSampleCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(consumer.processed.WithLabelValues("duplicate")))
	assert.Equal(t, 2, testutil.CollectAndCount(consumer.processed))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *ShortlinkMetrics
	assert.NotPanics(t, func() {
		m.ObserveCollisionCheck(time.Second, false)
		m.IncNamespaceFailure("blog")
		m.IncResolution("redirect")
		m.IncClickFailure("publish")

		NewShortlinkMetrics(nil).IncResolution("redirect")
		NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
		NewClickConsumerMetrics(nil).Inc("inserted")
	})
}

func histogram(t *testing.T, reg *prometheus.Registry, name, label, value string) *dto.Histogram {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetHistogram()
				}
			}
		}
	}
	t.Fatalf("histogram %s{%s=%q} not found", name, label, value)
	return nil
}
