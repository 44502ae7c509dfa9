package domain

import "fmt"

// Frame is an ordered table of nullable cells. Raw, typed and cleaned tables
// all use it; Kinds is nil until the frame has been through Coerce.
type Frame struct {
	Columns []string
	Kinds   []Kind
	Rows    [][]Value
}

// NewTextFrame builds an uncoerced frame from string cells. Empty strings
// become nulls, the same way a blank CSV cell reads.
func NewTextFrame(columns []string, rows [][]string) Frame {
	f := Frame{Columns: append([]string(nil), columns...), Rows: make([][]Value, len(rows))}
	for i, r := range rows {
		row := make([]Value, len(columns))
		for j := range columns {
			if j < len(r) && r[j] != "" {
				row[j] = Text(r[j])
			}
		}
		f.Rows[i] = row
	}
	return f
}

// Len returns the row count.
func (f Frame) Len() int { return len(f.Rows) }

// ColumnIndex returns the position of a column, or -1.
func (f Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy; Values are immutable so rows are copied shallowly.
func (f Frame) Clone() Frame {
	out := Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([][]Value, len(f.Rows)),
	}
	if f.Kinds != nil {
		out.Kinds = append([]Kind(nil), f.Kinds...)
	}
	for i, r := range f.Rows {
		out.Rows[i] = append([]Value(nil), r...)
	}
	return out
}

// Require returns ErrMissingColumn naming every absent column.
func (f Frame) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if f.ColumnIndex(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}
	return nil
}

// Select projects the frame onto the given columns, in that order.
func (f Frame) Select(columns ...string) (Frame, error) {
	if err := f.Require(columns...); err != nil {
		return Frame{}, err
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = f.ColumnIndex(c)
	}
	out := Frame{Columns: append([]string(nil), columns...), Rows: make([][]Value, len(f.Rows))}
	if f.Kinds != nil {
		out.Kinds = make([]Kind, len(columns))
		for i, j := range idx {
			out.Kinds[i] = f.Kinds[j]
		}
	}
	for r, row := range f.Rows {
		sel := make([]Value, len(idx))
		for i, j := range idx {
			sel[i] = row[j]
		}
		out.Rows[r] = sel
	}
	return out, nil
}

// StringRows renders every cell with Value.String, for tabular writers.
func (f Frame) StringRows() [][]string {
	out := make([][]string, len(f.Rows))
	for i, r := range f.Rows {
		row := make([]string, len(r))
		for j, v := range r {
			row[j] = v.String()
		}
		out[i] = row
	}
	return out
}
