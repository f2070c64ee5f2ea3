package consumer

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	applied    prometheus.Counter
	stale      prometheus.Counter
	failed     *prometheus.CounterVec
	bootstraps prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rolodex_consumer_entries_applied_total",
			Help: "Stream entries upserted and acknowledged.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rolodex_consumer_entries_stale_total",
			Help: "Stream entries acknowledged without change because a newer entry was already applied.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rolodex_consumer_entries_failed_total",
			Help: "Stream entries left pending, by stage (decode, apply, ack).",
		}, []string{"stage"}),
		bootstraps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rolodex_consumer_group_bootstraps_total",
			Help: "Consumer group creation attempts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.applied, m.stale, m.failed, m.bootstraps)
	}
	return m
}

func (m *Metrics) incApplied() {
	if m != nil {
		m.applied.Inc()
	}
}

func (m *Metrics) incFailed(stage string) {
	if m != nil {
		m.failed.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) incBootstrap() {
	if m != nil {
		m.bootstraps.Inc()
	}
}

func (m *Metrics) incStale() {
	if m != nil {
		m.stale.Inc()
	}
}
