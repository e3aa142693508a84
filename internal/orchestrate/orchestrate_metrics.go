package orchestrate

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the run pipeline.
type Metrics struct {
	ZonesProcessed   *prometheus.CounterVec
	ProviderRetries  prometheus.Counter
	RunDuration      prometheus.Histogram
	CrosscheckTotal  *prometheus.CounterVec
	NotifyFailures   prometheus.Counter
	PublishFailures  prometheus.Counter
}

// NewMetrics registers and returns orchestrator metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ZonesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stormwatch_run_zones_total",
			Help: "Zones processed per run by outcome.",
		}, []string{"outcome"}),
		ProviderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_run_provider_retries_total",
			Help: "Forecast provider calls retried after a failure.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stormwatch_run_duration_seconds",
			Help:    "End-to-end duration of a detection run in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms .. ~200s
		}),
		CrosscheckTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stormwatch_crosscheck_total",
			Help: "Cross-check verdicts by exclusivity status.",
		}, []string{"status"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_notify_failures_total",
			Help: "Best-effort notification deliveries that failed.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_event_publish_failures_total",
			Help: "Best-effort lifecycle event publishes that failed.",
		}),
	}

	reg.MustRegister(
		m.ZonesProcessed,
		m.ProviderRetries,
		m.RunDuration,
		m.CrosscheckTotal,
		m.NotifyFailures,
		m.PublishFailures,
	)

	return m
}
