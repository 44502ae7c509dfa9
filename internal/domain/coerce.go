package domain

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// parallelMinRows is the frame size below which coercion stays sequential.
const parallelMinRows = 1000

// KST is the fixed +09:00 zone the sfctm2 feed reports station time in.
var KST = time.FixedZone("KST", 9*60*60)

// CoercionPolicy controls how text cells are reinterpreted.
type CoercionPolicy struct {
	// Exclude lists columns that are never numerically coerced. Temporal and
	// integer-key columns listed here are still parsed by their own kind;
	// anything else is passed through as text.
	Exclude []string
	// Location interprets observation times. Nil means KST.
	Location *time.Location
}

// DefaultCoercionPolicy excludes every non-numeric schema field (TM, STN, CT
// and WW for sfctm2) and reads times in KST.
func DefaultCoercionPolicy(schema *Schema) CoercionPolicy {
	return CoercionPolicy{Exclude: schema.NonNumeric(), Location: KST}
}

// CoercionStats counts, per column, non-null cells that failed to parse and
// were degraded to null.
type CoercionStats struct {
	Unparsable map[string]int
}

// Total returns the number of degraded cells across all columns.
func (s CoercionStats) Total() int {
	n := 0
	for _, c := range s.Unparsable {
		n += c
	}
	return n
}

// Coercer turns a text frame into a typed frame.
type Coercer struct {
	schema  *Schema
	policy  CoercionPolicy
	workers int
}

// NewCoercer creates a Coercer. workers <= 1 keeps coercion sequential.
func NewCoercer(schema *Schema, policy CoercionPolicy, workers int) *Coercer {
	if policy.Location == nil {
		policy.Location = KST
	}
	if workers < 1 {
		workers = 1
	}
	return &Coercer{schema: schema, policy: policy, workers: workers}
}

// Policy returns the effective policy.
func (c *Coercer) Policy() CoercionPolicy { return c.policy }

// Coerce reinterprets every column by its resolved kind. Unparsable cells
// become null and the row is kept. The only error is ErrMissingColumn, when
// the frame lacks a schema field. The input frame is not modified.
func (c *Coercer) Coerce(in Frame) (Frame, CoercionStats, error) {
	if err := in.Require(c.schema.Names()...); err != nil {
		return Frame{}, CoercionStats{}, err
	}

	kinds := c.resolveKinds(in.Columns)
	out := Frame{
		Columns: append([]string(nil), in.Columns...),
		Kinds:   kinds,
		Rows:    make([][]Value, len(in.Rows)),
	}

	var failed []int
	if c.workers <= 1 || len(in.Rows) < parallelMinRows {
		failed = c.coerceChunk(in.Rows, out.Rows, kinds, 0, len(in.Rows))
	} else {
		failed = c.coerceParallel(in.Rows, out.Rows, kinds)
	}

	stats := CoercionStats{Unparsable: make(map[string]int)}
	for j, n := range failed {
		if n > 0 {
			stats.Unparsable[in.Columns[j]] = n
		}
	}
	return out, stats, nil
}

// resolveKinds applies the exclusion list on top of the schema kinds. Columns
// the schema does not know are numeric unless excluded.
func (c *Coercer) resolveKinds(columns []string) []Kind {
	kinds := make([]Kind, len(columns))
	for j, col := range columns {
		k := c.schema.KindOf(col)
		if k == KindNumeric && slices.Contains(c.policy.Exclude, col) {
			k = KindCategorical
		}
		kinds[j] = k
	}
	return kinds
}

// coerceParallel splits rows into one contiguous chunk per worker. Rows are
// independent, so the result is identical to the sequential path.
func (c *Coercer) coerceParallel(in, out [][]Value, kinds []Kind) []int {
	chunkSize := (len(in) + c.workers - 1) / c.workers
	partials := make([][]int, c.workers)

	var g errgroup.Group
	g.SetLimit(c.workers)
	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		if start >= len(in) {
			break
		}
		end := min(start+chunkSize, len(in))
		g.Go(func() error {
			partials[w] = c.coerceChunk(in, out, kinds, start, end)
			return nil
		})
	}
	_ = g.Wait() // chunks never fail

	failed := make([]int, len(kinds))
	for _, p := range partials {
		for j, n := range p {
			failed[j] += n
		}
	}
	return failed
}

func (c *Coercer) coerceChunk(in, out [][]Value, kinds []Kind, start, end int) []int {
	failed := make([]int, len(kinds))
	for r := start; r < end; r++ {
		src := in[r]
		row := make([]Value, len(kinds))
		for j, kind := range kinds {
			if j >= len(src) {
				continue
			}
			v, ok := coerceCell(kind, src[j], c.policy.Location)
			if !ok {
				failed[j]++
			}
			row[j] = v
		}
		out[r] = row
	}
	return failed
}

// coerceCell converts one cell. ok is false when a non-null input had to be
// degraded to null.
func coerceCell(kind Kind, v Value, loc *time.Location) (Value, bool) {
	if v.IsNull() {
		return v, true
	}

	switch kind {
	case KindTemporal:
		if v.Type() == TypeTime {
			return v, true
		}
		t, ok := ParseObservationTime(v.String(), loc)
		if !ok {
			return Null(), false
		}
		return Time(t), true

	case KindIntegerKey:
		if v.Type() == TypeInt {
			return v, true
		}
		out := parseIntegerKey(v.String())
		return out, !out.IsNull()

	case KindCategorical:
		if v.Type() == TypeText {
			return v, true
		}
		return Text(v.String()), true

	default:
		if f, ok := v.Number(); ok {
			return Float(f), true
		}
		f, ok := parseMeasurement(v.String())
		if !ok {
			return Null(), false
		}
		return Float(f), true
	}
}

// ParseObservationTime parses a YYYYMMDDHHMI token in loc. Anything that is
// not exactly 12 ASCII digits forming a valid time fails.
func ParseObservationTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) != len(TimeLayout) {
		return time.Time{}, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}
	if loc == nil {
		loc = KST
	}
	t, err := time.ParseInLocation(TimeLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseMeasurement parses a finite float token. NaN and ±Inf count as
// unparsable: neither is a measurement and JSON cannot encode them.
func parseMeasurement(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
