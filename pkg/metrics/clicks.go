package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClickConsumerMetrics counts click events handled by the analytics worker.
type ClickConsumerMetrics struct {
	processed *prometheus.CounterVec
}

func NewClickConsumerMetrics(reg prometheus.Registerer) *ClickConsumerMetrics {
	if reg == nil {
		return &ClickConsumerMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "click_events_processed_total",
		Help: "Click events consumed, labelled by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(processed)
	return &ClickConsumerMetrics{processed: processed}
}

func (m *ClickConsumerMetrics) Inc(outcome string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(outcome)).Inc()
}
