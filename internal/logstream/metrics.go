package logstream

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the stream state and message counts. A nil *Metrics
// records nothing.
type Metrics struct {
	state    *prometheus.GaugeVec
	messages prometheus.Counter
	drops    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "infinity",
			Subsystem: "logstream",
			Name:      "state",
			Help:      "1 for the current log stream state.",
		}, []string{"state"}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infinity",
			Subsystem: "logstream",
			Name:      "messages_total",
			Help:      "Log messages received over the subscription.",
		}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infinity",
			Subsystem: "logstream",
			Name:      "dropped_frames_total",
			Help:      "Malformed or unknown frames ignored.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.state, m.messages, m.drops)
	}
	return m
}

func (m *Metrics) setState(current State) {
	if m == nil {
		return
	}
	for _, st := range states {
		v := 0.0
		if st == current {
			v = 1
		}
		m.state.WithLabelValues(string(st)).Set(v)
	}
}

func (m *Metrics) received(n int) {
	if m == nil {
		return
	}
	m.messages.Add(float64(n))
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.drops.Inc()
}
