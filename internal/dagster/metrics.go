package dagster

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts GraphQL traffic and mock fallbacks. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infinity",
			Subsystem: "dagster",
			Name:      "graphql_requests_total",
			Help:      "GraphQL requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infinity",
			Subsystem: "dagster",
			Name:      "fallbacks_total",
			Help:      "Initial-load lists replaced by fallback data.",
		}, []string{"list"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.fallbacks)
	}
	return m
}

func (m *Metrics) observeRequest(op string, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) observeFallback(list string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(list).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrGraphQL):
		return "graphql_error"
	default:
		return "unexpected"
	}
}
