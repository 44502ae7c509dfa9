package domain

import (
	"math"
	"slices"
	"sort"
	"time"
)

// ReportTimeLayout renders tm_min and tm_max: ISO-8601 without an offset, in
// station local time.
const ReportTimeLayout = "2006-01-02T15:04:05"

// NumericSummary is the min/max/mean of one numeric column over its non-null
// cells. All three are nil when the column is entirely null.
type NumericSummary struct {
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
	Mean *float64 `json:"mean"`
}

// QualityReport summarises one cleaning run by comparing the table as it was
// read with the table that was written.
type QualityReport struct {
	RowsRaw            int                     `json:"rows_raw"`
	RowsClean          int                     `json:"rows_clean"`
	Cols               []string                `json:"cols"`
	TMMin              *string                 `json:"tm_min"`
	TMMax              *string                 `json:"tm_max"`
	NStations          int                     `json:"n_stations"`
	MissingCount       Ordered[int]            `json:"missing_count"`
	MissingRatePercent Ordered[float64]        `json:"missing_rate_percent"`
	NumericSnapshot    Ordered[NumericSummary] `json:"numeric_snapshot"`

	// Per-column counts of cells the cleaning stage nulled: sentinel hits
	// and values that failed numeric or temporal parsing.
	SentinelReplacements Ordered[int] `json:"sentinel_replacements"`
	UnparsableCells      Ordered[int] `json:"unparsable_cells"`
}

// RowCountMismatch reports whether cleaning changed the number of rows.
// Cleaning only rewrites cells, so true indicates a bug upstream.
func (r QualityReport) RowCountMismatch() bool { return r.RowsRaw != r.RowsClean }

// BuildQualityReport computes the report for a cleaning run. raw is the frame
// as read; clean is the coerced, normalized frame.
func BuildQualityReport(raw, clean Frame) QualityReport {
	r := QualityReport{
		RowsRaw:              raw.Len(),
		RowsClean:            clean.Len(),
		Cols:                 append([]string{}, clean.Columns...),
		SentinelReplacements: Ordered[int]{},
		UnparsableCells:      Ordered[int]{},
	}

	if j := clean.ColumnIndex(ColTM); j >= 0 {
		r.TMMin, r.TMMax = timeRange(clean, j)
	}
	if j := clean.ColumnIndex(ColSTN); j >= 0 {
		r.NStations = distinctNonNull(clean, j)
	}

	r.MissingCount, r.MissingRatePercent = missingStats(clean)
	r.NumericSnapshot = numericSnapshot(clean)
	return r
}

func timeRange(f Frame, j int) (*string, *string) {
	var lo, hi time.Time
	seen := false
	for _, row := range f.Rows {
		t, ok := row[j].TimeValue()
		if !ok {
			continue
		}
		if !seen || t.Before(lo) {
			lo = t
		}
		if !seen || t.After(hi) {
			hi = t
		}
		seen = true
	}
	if !seen {
		return nil, nil
	}
	first, last := lo.Format(ReportTimeLayout), hi.Format(ReportTimeLayout)
	return &first, &last
}

func distinctNonNull(f Frame, j int) int {
	seen := make(map[string]struct{})
	for _, row := range f.Rows {
		if row[j].IsNull() {
			continue
		}
		seen[row[j].String()] = struct{}{}
	}
	return len(seen)
}

// missingStats counts nulls per column and orders both maps by descending
// count. Ties keep column order.
func missingStats(f Frame) (Ordered[int], Ordered[float64]) {
	counts := make([]Entry[int], len(f.Columns))
	for j, c := range f.Columns {
		counts[j].Key = c
	}
	for _, row := range f.Rows {
		for j := range f.Columns {
			if row[j].IsNull() {
				counts[j].Value++
			}
		}
	}
	sort.SliceStable(counts, func(a, b int) bool { return counts[a].Value > counts[b].Value })

	rates := make(Ordered[float64], len(counts))
	for i, e := range counts {
		rate := 0.0
		if n := f.Len(); n > 0 {
			rate = roundTo(float64(e.Value)/float64(n)*100, 3)
		}
		rates[i] = Entry[float64]{Key: e.Key, Value: rate}
	}
	return Ordered[int](counts), rates
}

// numericSnapshot summarises every numeric column in column order.
func numericSnapshot(f Frame) Ordered[NumericSummary] {
	out := Ordered[NumericSummary]{}
	for j, c := range f.Columns {
		if !isNumericColumn(f, j) {
			continue
		}
		var (
			n               int
			mean, low, high float64
		)
		for _, row := range f.Rows {
			v, ok := row[j].Number()
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if n == 0 || v < low {
				low = v
			}
			if n == 0 || v > high {
				high = v
			}
			n++
			// Running mean: a plain sum overflows for values near MaxFloat64.
			mean += v/float64(n) - mean/float64(n)
		}
		s := NumericSummary{}
		if n > 0 {
			s = NumericSummary{Min: &low, Max: &high, Mean: &mean}
		}
		out = append(out, Entry[NumericSummary]{Key: c, Value: s})
	}
	return out
}

// isNumericColumn uses the coerced kinds when present. An uncoerced frame
// counts a column as numeric when it has at least one non-null cell and all
// of them are numbers.
func isNumericColumn(f Frame, j int) bool {
	if f.Kinds != nil {
		k := f.Kinds[j]
		return k == KindNumeric || k == KindIntegerKey
	}
	found := false
	for _, row := range f.Rows {
		if row[j].IsNull() {
			continue
		}
		if !row[j].IsNumber() {
			return false
		}
		found = true
	}
	return found
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// RunMetadata describes where a cleaning run read from and wrote to, and the
// policy it applied.
type RunMetadata struct {
	InputFile     string
	OutputFile    string
	SchemaVersion string
	Sentinels     SentinelSet
	Excluded      []string
}

// RunReport is a QualityReport with its run metadata, the document written
// next to each cleaned table.
type RunReport struct {
	QualityReport

	InputFile                 string    `json:"input_file"`
	OutputFile                string    `json:"output_file"`
	GeneratedAt               string    `json:"generated_at"`
	SchemaVersion             string    `json:"schema_version"`
	MissingValuesPolicy       []float64 `json:"missing_values_policy"`
	MissingValuesTokens       []string  `json:"missing_values_tokens"`
	ExcludedNonNumericColumns []string  `json:"excluded_non_numeric_columns_policy"`
}

// NewRunReport attaches metadata to a report and stamps it with the current
// time.
func NewRunReport(q QualityReport, meta RunMetadata) RunReport {
	excluded := append([]string{}, meta.Excluded...)
	slices.Sort(excluded)
	values := meta.Sentinels.Values()
	if values == nil {
		values = []float64{}
	}
	tokens := meta.Sentinels.Tokens()
	if tokens == nil {
		tokens = []string{}
	}
	return RunReport{
		QualityReport:             q,
		InputFile:                 meta.InputFile,
		OutputFile:                meta.OutputFile,
		GeneratedAt:               clock.Now().Format(time.RFC3339),
		SchemaVersion:             meta.SchemaVersion,
		MissingValuesPolicy:       values,
		MissingValuesTokens:       tokens,
		ExcludedNonNumericColumns: excluded,
	}
}
