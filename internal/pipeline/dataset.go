package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
)

// CoreColumns are the variables carried into the hourly base dataset.
var CoreColumns = []string{domain.ColTM, domain.ColSTN, "TA", "WS", "HM", "PA", "PS"}

// DatasetResult describes a written dataset.
type DatasetResult struct {
	Path string
	Rows int
}

// DatasetBuilder projects a cleaned table onto the core variables, orders it
// by time then station and hands it to a DatasetWriter.
type DatasetBuilder struct {
	writer   DatasetWriter
	outDir   string
	location *time.Location
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDatasetBuilder creates a DatasetBuilder writing into outDir.
func NewDatasetBuilder(writer DatasetWriter, outDir string, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *DatasetBuilder {
	if loc == nil {
		loc = domain.KST
	}
	return &DatasetBuilder{writer: writer, outDir: outDir, location: loc, logger: logger, metrics: metrics}
}

// Run builds the dataset from one cleaned CSV. A missing core column is fatal;
// rows are never filtered.
func (b *DatasetBuilder) Run(ctx context.Context, inputClean string) (res DatasetResult, err error) {
	start := time.Now()
	defer func() { observeRun(b.metrics, observability.StageDataset, start, err) }()

	if err := filestore.RequireFile(inputClean); err != nil {
		return DatasetResult{}, fmt.Errorf("%w: %w", ErrNoInput, err)
	}

	raw, err := filestore.ReadFrameFile(inputClean)
	if err != nil {
		return DatasetResult{}, err
	}
	core, err := raw.Select(CoreColumns...)
	if err != nil {
		return DatasetResult{}, fmt.Errorf("dataset %s: %w", inputClean, err)
	}

	typed := typeCoreFrame(core, b.location)
	sortByTimeThenStation(typed)

	res.Path = filepath.Join(b.outDir, filestore.DatasetName)
	res.Rows = typed.Len()
	if err := b.writer.WriteDataset(ctx, res.Path, typed); err != nil {
		return DatasetResult{}, err
	}

	b.logger.Info("base hourly dataset saved", "path", res.Path, "rows", res.Rows, "columns", len(CoreColumns))
	return res, nil
}

// typeCoreFrame reads TM as a cleaned timestamp, STN as an integer and the
// rest as floats. Unreadable cells become null.
func typeCoreFrame(f domain.Frame, loc *time.Location) domain.Frame {
	out := domain.Frame{
		Columns: append([]string(nil), f.Columns...),
		Kinds:   make([]domain.Kind, len(f.Columns)),
		Rows:    make([][]domain.Value, len(f.Rows)),
	}
	for j, c := range f.Columns {
		switch c {
		case domain.ColTM:
			out.Kinds[j] = domain.KindTemporal
		case domain.ColSTN:
			out.Kinds[j] = domain.KindIntegerKey
		default:
			out.Kinds[j] = domain.KindNumeric
		}
	}

	for r, row := range f.Rows {
		typed := make([]domain.Value, len(row))
		for j, v := range row {
			s := strings.TrimSpace(v.String())
			if s == "" {
				continue
			}
			switch out.Kinds[j] {
			case domain.KindTemporal:
				if t, ok := parseCleanTime(s, loc); ok {
					typed[j] = domain.Time(t)
				}
			case domain.KindIntegerKey:
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					typed[j] = domain.Int(n)
				} else if fl, err := strconv.ParseFloat(s, 64); err == nil && fl == float64(int64(fl)) {
					typed[j] = domain.Int(int64(fl))
				}
			default:
				if fl, err := strconv.ParseFloat(s, 64); err == nil {
					typed[j] = domain.Float(fl)
				}
			}
		}
		out.Rows[r] = typed
	}
	return out
}

// parseCleanTime accepts the cleaned-table layout, its ISO "T" form, and the
// raw YYYYMMDDHHMI token.
func parseCleanTime(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{domain.CleanTimeLayout, domain.ReportTimeLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return domain.ParseObservationTime(s, loc)
}

// sortByTimeThenStation orders rows by TM then STN, nulls last, keeping the
// input order of equal keys.
func sortByTimeThenStation(f domain.Frame) {
	tm, stn := f.ColumnIndex(domain.ColTM), f.ColumnIndex(domain.ColSTN)
	sort.SliceStable(f.Rows, func(a, b int) bool {
		if c := compareTime(f.Rows[a][tm], f.Rows[b][tm]); c != 0 {
			return c < 0
		}
		return compareInt(f.Rows[a][stn], f.Rows[b][stn]) < 0
	})
}

func compareTime(a, b domain.Value) int {
	ta, okA := a.TimeValue()
	tb, okB := b.TimeValue()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	return ta.Compare(tb)
}

func compareInt(a, b domain.Value) int {
	ia, okA := a.Int64()
	ib, okB := b.Int64()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	}
	return 0
}
