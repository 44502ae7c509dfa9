package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
)

// ErrNoInput means a run found no input artifact to process.
var ErrNoInput = errors.New("no input artifact")

// RawSource fetches the raw sfctm2 text body for one observation hour.
type RawSource interface {
	Fetch(ctx context.Context, req domain.FetchRequest) (string, error)
}

// CleanSink stores a cleaned table and its report as one unit: after Commit
// returns, either both exist or neither does.
type CleanSink interface {
	Commit(ctx context.Context, tablePath string, table domain.Frame, reportPath string, report domain.RunReport) error
}

// ReportPublisher announces a finished cleaning run to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.RunReport) error
}

// DatasetWriter writes the modelling base dataset.
type DatasetWriter interface {
	WriteDataset(ctx context.Context, path string, f domain.Frame) error
}

// observeRun records the outcome and duration of one stage run.
func observeRun(m *observability.Metrics, stage string, start time.Time, err error) {
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeError
	}
	m.Runs.WithLabelValues(stage, outcome).Inc()
	m.RunDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// recordExtraction adds one body's scan counters to the metrics.
func recordExtraction(m *observability.Metrics, ex domain.Extraction) {
	m.LinesScanned.Add(float64(ex.CandidateLines + ex.SkippedLines))
	m.RowsExtracted.Add(float64(len(ex.Records)))
	m.RowsRejected.Add(float64(ex.MalformedLines))
}
