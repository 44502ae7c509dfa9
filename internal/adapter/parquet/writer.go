package parquet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	parquetgo "github.com/parquet-go/parquet-go"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
)

// HourlyObservation is one row of the modelling base dataset. TM holds the
// station-local wall clock encoded as if it were UTC, so readers see the same
// naive timestamp that appears in the cleaned CSV.
type HourlyObservation struct {
	TM  *int64   `parquet:"TM,optional,timestamp(millisecond)"`
	STN *int64   `parquet:"STN,optional"`
	TA  *float64 `parquet:"TA,optional"`
	WS  *float64 `parquet:"WS,optional"`
	HM  *float64 `parquet:"HM,optional"`
	PA  *float64 `parquet:"PA,optional"`
	PS  *float64 `parquet:"PS,optional"`
}

// Columns lists the dataset columns in file order.
var Columns = []string{"TM", "STN", "TA", "WS", "HM", "PA", "PS"}

// Writer writes base datasets as zstd-compressed parquet files.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a parquet dataset writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteDataset writes the frame's core columns to path. The file appears
// atomically or not at all.
func (w *Writer) WriteDataset(ctx context.Context, path string, f domain.Frame) error {
	rows, err := FromFrame(f)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = filestore.Commit(filestore.Artifact{
		Path: path,
		Write: func(out io.Writer) error {
			return parquetgo.Write(out, rows, parquetgo.Compression(&parquetgo.Zstd))
		},
	})
	if err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	w.logger.Info("dataset written", "path", path, "rows", len(rows), "columns", len(Columns))
	return nil
}

// ReadDataset reads a dataset written by WriteDataset.
func ReadDataset(path string) ([]HourlyObservation, error) {
	rows, err := parquetgo.ReadFile[HourlyObservation](path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return rows, nil
}

// FromFrame converts a typed frame holding at least the dataset columns.
func FromFrame(f domain.Frame) ([]HourlyObservation, error) {
	sel, err := f.Select(Columns...)
	if err != nil {
		return nil, err
	}

	rows := make([]HourlyObservation, len(sel.Rows))
	for i, r := range sel.Rows {
		rows[i] = HourlyObservation{
			TM:  wallMillis(r[0]),
			STN: intPtr(r[1]),
			TA:  floatPtr(r[2]),
			WS:  floatPtr(r[3]),
			HM:  floatPtr(r[4]),
			PA:  floatPtr(r[5]),
			PS:  floatPtr(r[6]),
		}
	}
	return rows, nil
}

// WallTime decodes a TM value back to a wall-clock time in loc.
func WallTime(ms int64, loc *time.Location) time.Time {
	t := time.UnixMilli(ms).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func wallMillis(v domain.Value) *int64 {
	t, ok := v.TimeValue()
	if !ok {
		return nil
	}
	ms := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).UnixMilli()
	return &ms
}

func intPtr(v domain.Value) *int64 {
	if i, ok := v.Int64(); ok {
		return &i
	}
	if f, ok := v.Number(); ok {
		i := int64(f)
		return &i
	}
	return nil
}

func floatPtr(v domain.Value) *float64 {
	f, ok := v.Number()
	if !ok {
		return nil
	}
	return &f
}
