package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShortlinkMetrics records collision checks and redirect resolution.
type ShortlinkMetrics struct {
	checkDuration     *prometheus.HistogramVec
	namespaceFailures *prometheus.CounterVec
	resolutions       *prometheus.CounterVec
	clickFailures     *prometheus.CounterVec
}

// NewShortlinkMetrics registers the shortlink metrics on the provided registerer.
func NewShortlinkMetrics(reg prometheus.Registerer) *ShortlinkMetrics {
	if reg == nil {
		return &ShortlinkMetrics{}
	}
	checkDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shortlink_collision_check_duration_seconds",
		Help:    "Duration of fan-out collision checks in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	namespaceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_collision_namespace_failures_total",
		Help: "Namespace lookups that failed during a collision check.",
	}, []string{"namespace"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_resolutions_total",
		Help: "Short path resolutions by terminal state.",
	}, []string{"state"})
	clickFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_click_record_failures_total",
		Help: "Click recordings that failed after a redirect.",
	}, []string{"stage"})
	reg.MustRegister(checkDuration, namespaceFailures, resolutions, clickFailures)
	return &ShortlinkMetrics{
		checkDuration:     checkDuration,
		namespaceFailures: namespaceFailures,
		resolutions:       resolutions,
		clickFailures:     clickFailures,
	}
}

// ObserveCollisionCheck records how long a check took and whether it found a collision.
func (m *ShortlinkMetrics) ObserveCollisionCheck(duration time.Duration, collided bool) {
	if m == nil || m.checkDuration == nil {
		return
	}
	outcome := "free"
	if collided {
		outcome = "collision"
	}
	m.checkDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *ShortlinkMetrics) IncNamespaceFailure(namespace string) {
	if m == nil || m.namespaceFailures == nil {
		return
	}
	m.namespaceFailures.WithLabelValues(normalizeLabel(namespace)).Inc()
}

func (m *ShortlinkMetrics) IncResolution(state string) {
	if m == nil || m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(state)).Inc()
}

// IncClickFailure counts a failed click-recording stage (count, publish).
func (m *ShortlinkMetrics) IncClickFailure(stage string) {
	if m == nil || m.clickFailures == nil {
		return
	}
	m.clickFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
