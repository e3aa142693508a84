package lifecycle

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the evolution subsystem.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	EvolveDuration   prometheus.Histogram
	CandidatesPerRun prometheus.Histogram
	RecordsCreated   prometheus.Counter
	RecordsUpdated   prometheus.Counter
	RecordsDeleted   prometheus.Counter
	RecordsDecayed   prometheus.Counter
	ItemsSkipped     *prometheus.CounterVec
	ActiveRecords    prometheus.Gauge
	ManualOverrides  *prometheus.CounterVec
}

// NewMetrics registers and returns lifecycle metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stormwatch_evolution_runs_total",
			Help: "Total evolution passes by outcome.",
		}, []string{"outcome"}),
		EvolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stormwatch_evolution_duration_seconds",
			Help:    "Duration of evolution passes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~20s
		}),
		CandidatesPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stormwatch_evolution_candidates",
			Help:    "Candidates received per evolution pass.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. 512
		}),
		RecordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_records_created_total",
			Help: "Total alert records created.",
		}),
		RecordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_records_updated_total",
			Help: "Total alert records refreshed by a matching candidate.",
		}),
		RecordsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_records_deleted_total",
			Help: "Total alert records hard-deleted after repeated misses.",
		}),
		RecordsDecayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stormwatch_records_decayed_total",
			Help: "Total missed-run decays applied to unmatched records.",
		}),
		ItemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stormwatch_evolution_items_skipped_total",
			Help: "Items skipped inside a pass due to store failures, by operation.",
		}, []string{"op"}),
		ActiveRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stormwatch_records_active",
			Help: "Alert records present after the most recent pass.",
		}),
		ManualOverrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stormwatch_manual_overrides_total",
			Help: "Admin workflow overrides by action.",
		}, []string{"action"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.EvolveDuration,
		m.CandidatesPerRun,
		m.RecordsCreated,
		m.RecordsUpdated,
		m.RecordsDeleted,
		m.RecordsDecayed,
		m.ItemsSkipped,
		m.ActiveRecords,
		m.ManualOverrides,
	)

	return m
}
