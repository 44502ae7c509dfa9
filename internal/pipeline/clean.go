package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
)

// CleanOptions configures a Cleaner.
type CleanOptions struct {
	Schema    *domain.Schema
	Malformed domain.MalformedPolicy // applies to CleanBody only
	Workers   int
	Location  *time.Location

	CleanDir  string
	ReportDir string
	// MissingValues is the default sentinel override; blank means built-in.
	MissingValues  string
	CompressionExt string
}

// CleanRequest selects the input of one cleaning run. InputFile wins over
// InputDir; with neither set the Cleaner has nothing to do.
type CleanRequest struct {
	InputDir      string
	InputFile     string
	MissingValues string // overrides CleanOptions.MissingValues when set
}

// CleanResult describes a committed cleaning run.
type CleanResult struct {
	Report        domain.RunReport
	TablePath     string
	ReportPath    string
	DroppedTokens []string
}

// BodyResult is the in-memory outcome of CleanBody.
type BodyResult struct {
	Report        domain.RunReport
	Frame         domain.Frame
	Extraction    domain.Extraction
	DroppedTokens []string
}

// Cleaner turns parsed tables into cleaned tables plus quality reports.
type Cleaner struct {
	opts      CleanOptions
	coercer   *domain.Coercer
	sink      CleanSink
	publisher ReportPublisher // optional
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCleaner creates a Cleaner. publisher may be nil.
func NewCleaner(opts CleanOptions, sink CleanSink, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Cleaner {
	if opts.Schema == nil {
		opts.Schema = domain.DefaultSchema()
	}
	if opts.Location == nil {
		opts.Location = domain.KST
	}
	policy := domain.DefaultCoercionPolicy(opts.Schema)
	policy.Location = opts.Location
	return &Cleaner{
		opts:      opts,
		coercer:   domain.NewCoercer(opts.Schema, policy, opts.Workers),
		sink:      sink,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run cleans one input artifact and commits the cleaned table and its report
// together. Publishing the report afterwards is best effort.
func (c *Cleaner) Run(ctx context.Context, req CleanRequest) (res CleanResult, err error) {
	start := time.Now()
	defer func() { observeRun(c.metrics, observability.StageClean, start, err) }()

	input, err := c.resolveInput(req)
	if err != nil {
		return CleanResult{}, err
	}
	c.logger.Info("cleaning input", "input_file", input)

	raw, err := filestore.ReadFrameFile(input)
	if err != nil {
		return CleanResult{}, err
	}

	sentinels, dropped := c.sentinels(req.MissingValues)
	cleaned, err := domain.CleanFrame(raw, c.coercer, sentinels)
	if err != nil {
		return CleanResult{}, fmt.Errorf("clean %s: %w", input, err)
	}
	c.recordClean(cleaned)

	stamp := domain.Now().In(c.opts.Location)
	base := filestore.BaseName(input)
	res.TablePath = filepath.Join(c.opts.CleanDir, filestore.CleanName(base, stamp)+c.opts.CompressionExt)
	res.ReportPath = filepath.Join(c.opts.ReportDir, filestore.ReportName(base, stamp))
	res.DroppedTokens = dropped
	res.Report = domain.NewRunReport(cleaned.Report, domain.RunMetadata{
		InputFile:     input,
		OutputFile:    res.TablePath,
		SchemaVersion: c.opts.Schema.Version(),
		Sentinels:     sentinels,
		Excluded:      c.coercer.Policy().Exclude,
	})

	if err := c.sink.Commit(ctx, res.TablePath, cleaned.Frame, res.ReportPath, res.Report); err != nil {
		return CleanResult{}, fmt.Errorf("commit clean artifacts: %w", err)
	}

	c.logger.Info("clean complete",
		"input_file", input,
		"output_file", res.TablePath,
		"report_file", res.ReportPath,
		"rows_raw", res.Report.RowsRaw,
		"rows_clean", res.Report.RowsClean,
		"sentinel_replacements", cleaned.Normalizing.Total(),
		"unparsable_cells", cleaned.Coercion.Total(),
	)

	c.publish(ctx, res.Report)
	return res, nil
}

// CleanBody runs extraction and cleaning on a raw text body in memory.
// Nothing is written and nothing is published.
func (c *Cleaner) CleanBody(ctx context.Context, body, missingValues string) (BodyResult, error) {
	if err := ctx.Err(); err != nil {
		return BodyResult{}, err
	}

	raw, ex := domain.ParseBody(body, c.opts.Schema, c.opts.Malformed)
	recordExtraction(c.metrics, ex)

	sentinels, dropped := c.sentinels(missingValues)
	cleaned, err := domain.CleanFrame(raw, c.coercer, sentinels)
	if err != nil {
		return BodyResult{}, err
	}
	c.recordClean(cleaned)

	report := domain.NewRunReport(cleaned.Report, domain.RunMetadata{
		SchemaVersion: c.opts.Schema.Version(),
		Sentinels:     sentinels,
		Excluded:      c.coercer.Policy().Exclude,
	})
	return BodyResult{Report: report, Frame: cleaned.Frame, Extraction: ex, DroppedTokens: dropped}, nil
}

func (c *Cleaner) resolveInput(req CleanRequest) (string, error) {
	if req.InputFile != "" {
		if err := filestore.RequireFile(req.InputFile); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoInput, err)
		}
		return req.InputFile, nil
	}
	if req.InputDir == "" {
		return "", fmt.Errorf("%w: neither an input file nor an input directory was given", ErrNoInput)
	}
	path, err := filestore.LatestCSV(req.InputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	return path, nil
}

// sentinels resolves the effective set; a per-request override wins over the
// configured default. Dropped tokens are logged and the run carries on.
func (c *Cleaner) sentinels(override string) (domain.SentinelSet, []string) {
	spec := c.opts.MissingValues
	if override != "" {
		spec = override
	}
	set, dropped := domain.ParseSentinels(spec)
	if len(dropped) > 0 {
		c.logger.Warn("ignoring invalid missing-value tokens", "tokens", dropped, "effective", set.Tokens())
	}
	return set, dropped
}

func (c *Cleaner) recordClean(res domain.CleanResult) {
	c.metrics.UnparsableCells.Add(float64(res.Coercion.Total()))
	c.metrics.SentinelReplacements.Add(float64(res.Normalizing.Total()))
	if res.Report.RowCountMismatch() {
		c.metrics.RowCountMismatches.Inc()
		c.logger.Warn("row count changed during cleaning",
			"rows_raw", res.Report.RowsRaw,
			"rows_clean", res.Report.RowsClean,
		)
	}
}

func (c *Cleaner) publish(ctx context.Context, report domain.RunReport) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishReport(ctx, report); err != nil {
		c.metrics.ReportPublishFailures.Inc()
		c.logger.Error("publish report failed", "error", err, "input_file", report.InputFile)
	}
}
