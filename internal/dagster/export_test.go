package dagster

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) RequestCounter(op, outcome string) prometheus.Counter {
	return m.requests.WithLabelValues(op, outcome)
}

func (m *Metrics) FallbackCounter(list string) prometheus.Counter {
	return m.fallbacks.WithLabelValues(list)
}
