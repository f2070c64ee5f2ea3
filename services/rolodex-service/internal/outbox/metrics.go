package outbox

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	relayed  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rolodex_outbox_relayed_total",
			Help: "Outbox events published and marked processed.",
		}, []string{"event_type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rolodex_outbox_relay_failures_total",
			Help: "Outbox relay failures by stage (fetch, publish, mark).",
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(m.relayed, m.failures)
	}
	return m
}

func (m *Metrics) incRelayed(eventType string) {
	if m != nil {
		m.relayed.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) incFailure(stage string) {
	if m != nil {
		m.failures.WithLabelValues(stage).Inc()
	}
}
