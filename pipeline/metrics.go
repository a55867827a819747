package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects pipeline counters and timings.
type Metrics struct {
	FunctionsSegmented prometheus.Counter
	FunctionsProcessed prometheus.Counter
	BackendFailures    *prometheus.CounterVec
	CacheHits          prometheus.Counter
	DriftFlagged       prometheus.Counter
	SynthesisDuration  prometheus.Histogram
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FunctionsSegmented: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specdrift_functions_segmented_total",
			Help: "Function changes produced by diff segmentation.",
		}),
		FunctionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specdrift_functions_processed_total",
			Help: "Function changes run through the full pipeline.",
		}),
		BackendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specdrift_backend_failures_total",
			Help: "Synthesis backend failures by backend name.",
		}, []string{"backend"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specdrift_spec_cache_hits_total",
			Help: "Specification cache hits.",
		}),
		DriftFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specdrift_drift_flagged_total",
			Help: "Functions flagged as drifted.",
		}),
		SynthesisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "specdrift_synthesis_duration_seconds",
			Help:    "Wall time of specification synthesis per function.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	reg.MustRegister(
		m.FunctionsSegmented,
		m.FunctionsProcessed,
		m.BackendFailures,
		m.CacheHits,
		m.DriftFlagged,
		m.SynthesisDuration,
	)
	return m
}
