package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
)

// IngestOptions configures an Ingester.
type IngestOptions struct {
	Schema    *domain.Schema
	Malformed domain.MalformedPolicy
	OutDir    string
	// CompressionExt is appended to every artifact name (".gz", ".zst" or "").
	CompressionExt string
	// Location stamps artifact names in station local time.
	Location *time.Location
}

// IngestRequest selects what one ingest run fetches and writes.
type IngestRequest struct {
	TM      string
	Station int
	Help    bool
	SaveCSV bool
}

// IngestResult describes the artifacts an ingest run wrote.
type IngestResult struct {
	RawPath    string
	CSVPath    string // empty unless SaveCSV
	Rows       int
	Extraction domain.Extraction
}

// Ingester fetches one hour of raw observations and stores it verbatim,
// optionally with a parsed CSV beside it.
type Ingester struct {
	source  RawSource
	opts    IngestOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewIngester creates an Ingester.
func NewIngester(source RawSource, opts IngestOptions, logger *slog.Logger, metrics *observability.Metrics) *Ingester {
	if opts.Schema == nil {
		opts.Schema = domain.DefaultSchema()
	}
	if opts.Location == nil {
		opts.Location = domain.KST
	}
	return &Ingester{source: source, opts: opts, logger: logger, metrics: metrics}
}

// Run fetches the body, always saves it raw, and when asked parses it and
// saves the bound table. A body with no parsable rows is not an error.
func (i *Ingester) Run(ctx context.Context, req IngestRequest) (res IngestResult, err error) {
	start := time.Now()
	defer func() { observeRun(i.metrics, observability.StageIngest, start, err) }()

	if _, ok := domain.ParseObservationTime(req.TM, time.UTC); !ok {
		return IngestResult{}, fmt.Errorf("invalid tm %q: want YYYYMMDDHHMI", req.TM)
	}

	body, err := i.source.Fetch(ctx, domain.FetchRequest{TM: req.TM, Station: req.Station, Help: req.Help})
	if err != nil {
		return IngestResult{}, fmt.Errorf("fetch tm=%s stn=%d: %w", req.TM, req.Station, err)
	}

	if err := os.MkdirAll(i.opts.OutDir, 0o755); err != nil {
		return IngestResult{}, fmt.Errorf("create %s: %w", i.opts.OutDir, err)
	}

	stamp := domain.Now().In(i.opts.Location)
	res.RawPath = filepath.Join(i.opts.OutDir, filestore.RawName(req.TM, req.Station, stamp)+i.opts.CompressionExt)
	if err := filestore.WriteText(res.RawPath, body); err != nil {
		return IngestResult{}, fmt.Errorf("save raw: %w", err)
	}
	i.logger.Info("raw saved", "path", res.RawPath, "bytes", len(body))

	if !req.SaveCSV {
		return res, nil
	}

	frame, ex := domain.ParseBody(body, i.opts.Schema, i.opts.Malformed)
	recordExtraction(i.metrics, ex)
	res.Extraction = ex
	res.Rows = frame.Len()

	res.CSVPath = filepath.Join(i.opts.OutDir, filestore.ParsedName(req.TM, req.Station, stamp)+i.opts.CompressionExt)
	if err := filestore.WriteFrameFile(res.CSVPath, frame); err != nil {
		return IngestResult{}, fmt.Errorf("save parsed csv: %w", err)
	}

	i.logger.Info("parsed csv saved",
		"path", res.CSVPath,
		"rows", res.Rows,
		"candidate_lines", ex.CandidateLines,
		"malformed_lines", ex.MalformedLines,
		"schema_version", i.opts.Schema.Version(),
	)
	for _, r := range ex.Rejects {
		i.logger.Debug("line rejected", "line", r.Line, "tokens", r.TokenCount, "want", i.opts.Schema.Width())
	}
	if res.Rows == 0 {
		i.logger.Warn("no rows parsed; token-count mismatches were skipped",
			"candidate_lines", ex.CandidateLines,
			"malformed_lines", ex.MalformedLines,
		)
	}
	return res, nil
}
