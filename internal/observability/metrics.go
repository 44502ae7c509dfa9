package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sfc_etl"

// Run stage label values.
const (
	StageIngest  = "ingest"
	StageClean   = "clean"
	StageDataset = "dataset"
)

// Run outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest and cleaning stages.
type Metrics struct {
	Runs        *prometheus.CounterVec   // labels: stage, outcome
	RunDuration *prometheus.HistogramVec // labels: stage

	// Row extraction.
	LinesScanned  prometheus.Counter
	RowsExtracted prometheus.Counter
	RowsRejected  prometheus.Counter

	// Cell cleaning.
	UnparsableCells      prometheus.Counter
	SentinelReplacements prometheus.Counter
	RowCountMismatches   prometheus.Counter

	ReportPublishFailures prometheus.Counter
	SchedulerRunning      prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by stage and outcome.",
		}, []string{"stage", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one pipeline stage run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		LinesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_scanned_total",
			Help:      "Raw text lines scanned for observation rows.",
		}),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      "Data lines accepted with the schema's token count.",
		}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Data lines dropped for a token-count mismatch.",
		}),
		UnparsableCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unparsable_cells_total",
			Help:      "Non-null cells degraded to null during type coercion.",
		}),
		SentinelReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentinel_replacements_total",
			Help:      "Numeric cells rewritten to null because they matched a missing-value code.",
		}),
		RowCountMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_count_mismatches_total",
			Help:      "Cleaning runs whose output row count differed from the input.",
		}),
		ReportPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_failures_total",
			Help:      "Quality reports that could not be published to Kafka.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when the ingest scheduler is active, 0 when stopped.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Runs,
		m.RunDuration,
		m.LinesScanned,
		m.RowsExtracted,
		m.RowsRejected,
		m.UnparsableCells,
		m.SentinelReplacements,
		m.RowCountMismatches,
		m.ReportPublishFailures,
		m.SchedulerRunning,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can create as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
