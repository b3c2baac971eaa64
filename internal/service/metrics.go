package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for diagnosis observability.
type Metrics struct {
	RunsTotal         prometheus.Counter     // Completed diagnosis runs
	FailuresTotal     prometheus.Counter     // Runs rejected or aborted
	RunDuration       prometheus.Histogram   // Wall time per run, seconds
	IssuesPerRun      prometheus.Histogram   // Issue count entering ranking
	OverallConfidence prometheus.Histogram   // Report overall confidence
	PrimaryKind       *prometheus.CounterVec // Runs by primary issue kind
	CollectorFailures *prometheus.CounterVec // Collector errors by collector
}

// NewMetrics creates Prometheus metrics for the diagnostician.
// The registerer parameter allows flexible registration (e.g., global
// registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	runsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sleuth_diagnosis_runs_total",
		Help: "Total number of completed diagnosis runs",
	})

	failuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sleuth_diagnosis_failures_total",
		Help: "Total number of diagnosis runs rejected or aborted",
	})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sleuth_diagnosis_duration_seconds",
		Help:    "Wall time of a diagnosis run in seconds",
		Buckets: prometheus.DefBuckets,
	})

	issuesPerRun := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sleuth_diagnosis_issues_per_run",
		Help:    "Number of issues entering ranking per run",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
	})

	overallConfidence := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sleuth_diagnosis_overall_confidence",
		Help:    "Overall confidence of produced reports",
		Buckets: []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
	})

	primaryKind := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sleuth_diagnosis_primary_kind_total",
		Help: "Diagnosis runs by primary issue kind ('none' for all-clear)",
	}, []string{"kind"})

	collectorFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sleuth_collector_failures_total",
		Help: "Collector errors by collector name",
	}, []string{"collector"})

	reg.MustRegister(runsTotal)
	reg.MustRegister(failuresTotal)
	reg.MustRegister(runDuration)
	reg.MustRegister(issuesPerRun)
	reg.MustRegister(overallConfidence)
	reg.MustRegister(primaryKind)
	reg.MustRegister(collectorFailures)

	return &Metrics{
		RunsTotal:         runsTotal,
		FailuresTotal:     failuresTotal,
		RunDuration:       runDuration,
		IssuesPerRun:      issuesPerRun,
		OverallConfidence: overallConfidence,
		PrimaryKind:       primaryKind,
		CollectorFailures: collectorFailures,
	}
}
