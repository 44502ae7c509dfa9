package domain

import (
	"math"
	"strconv"
	"strings"
)

// Bind zips raw records onto the schema's field names. Integer-key fields are
// parsed eagerly (unparsable -> null); every other cell, the timestamp
// included, stays text until Coerce.
func Bind(schema *Schema, records []RawRecord) Frame {
	fields := schema.Fields()
	f := Frame{Columns: schema.Names(), Rows: make([][]Value, 0, len(records))}

	for _, rec := range records {
		row := make([]Value, len(fields))
		for i, field := range fields {
			if i >= len(rec.Tokens) {
				continue
			}
			tok := rec.Tokens[i]
			if field.Kind == KindIntegerKey {
				row[i] = parseIntegerKey(tok)
				continue
			}
			if tok != "" {
				row[i] = Text(tok)
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// parseIntegerKey accepts plain integers and integral floats ("47.0").
func parseIntegerKey(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Null()
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return Null()
	}
	return Int(int64(f))
}
