package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservationTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"valid", "202211300900", time.Date(2022, 11, 30, 9, 0, 0, 0, KST), true},
		{"surrounding space", " 202211300900 ", time.Date(2022, 11, 30, 9, 0, 0, 0, KST), true},
		{"date only", "20221130", time.Time{}, false},
		{"with seconds", "20221130090000", time.Time{}, false},
		{"with separators", "2022-11-30 09", time.Time{}, false},
		{"month 13", "202213300900", time.Time{}, false},
		{"minute 60", "202211300960", time.Time{}, false},
		{"signed", "+20211300900", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseObservationTime(tt.input, KST)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestParseIntegerKey(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"108", Int(108)},
		{"-9", Int(-9)},
		{"47.0", Int(47)},
		{"47.5", Null()},
		{"abc", Null()},
		{"", Null()},
		{"NaN", Null()},
		{"1e300", Null()},
		{"inf", Null()},
		{"-Infinity", Null()},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseIntegerKey(tt.input))
		})
	}
}

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"1.5", 1.5, true},
		{" -9 ", -9, true},
		{"1e308", 1e308, true},
		{"", 0, false},
		{"x", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"+Inf", 0, false},
		{"-Infinity", 0, false},
		{"1e400", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseMeasurement(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceNonFiniteIsUnparsable(t *testing.T) {
	schema := DefaultSchema()
	raw, _ := ParseBody(sfcBody(
		sfcLine(schema, "202211300900", 108, map[string]string{"TA": "inf", "HM": "50"}),
		sfcLine(schema, "202211300900", 112, map[string]string{"TA": "1.5", "HM": "-Infinity"}),
	), schema, DropMalformed)

	out, stats, err := NewCoercer(schema, DefaultCoercionPolicy(schema), 1).Coerce(raw)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	assert.True(t, mustCell(out, 0, "TA").IsNull())
	assert.Equal(t, Float(50), mustCell(out, 0, "HM"))
	assert.Equal(t, Float(1.5), mustCell(out, 1, "TA"))
	assert.True(t, mustCell(out, 1, "HM").IsNull())
	assert.Equal(t, map[string]int{"TA": 1, "HM": 1}, stats.Unparsable)
}

func TestBind(t *testing.T) {
	schema := DefaultSchema()
	line := sfcLine(schema, "202211300900", 108, map[string]string{"TA": "-1.2"})
	ex := ExtractRows(sfcBody(line), schema, DropMalformed)

	f := Bind(schema, ex.Records)

	require.Equal(t, 1, f.Len())
	assert.Equal(t, schema.Names(), f.Columns)
	assert.Nil(t, f.Kinds)
	assert.Equal(t, Int(108), mustCell(f, 0, ColSTN))
	assert.Equal(t, Text("202211300900"), mustCell(f, 0, ColTM))
	assert.Equal(t, Text("-1.2"), mustCell(f, 0, "TA"))
	assert.Equal(t, Text("ScAc"), mustCell(f, 0, ColCT))
}

func TestCoerce(t *testing.T) {
	schema := DefaultSchema()
	c := NewCoercer(schema, DefaultCoercionPolicy(schema), 1)

	t.Run("types every column by kind", func(t *testing.T) {
		raw, _ := ParseBody(sfcBody(sfcLine(schema, "202211300900", 108, map[string]string{
			"TA": "12.5",
			"HM": "=",
			"CT": "-9",
		})), schema, DropMalformed)

		out, stats, err := c.Coerce(raw)
		require.NoError(t, err)

		tm, ok := mustCell(out, 0, ColTM).TimeValue()
		require.True(t, ok)
		assert.True(t, time.Date(2022, 11, 30, 9, 0, 0, 0, KST).Equal(tm))
		assert.Equal(t, Int(108), mustCell(out, 0, ColSTN))
		assert.Equal(t, Float(12.5), mustCell(out, 0, "TA"))
		assert.True(t, mustCell(out, 0, "HM").IsNull())
		assert.Equal(t, Text("-9"), mustCell(out, 0, ColCT))
		assert.Equal(t, Text("-9"), mustCell(out, 0, ColWW))
		assert.Equal(t, map[string]int{"HM": 1}, stats.Unparsable)
		assert.Equal(t, 1, stats.Total())
		assert.Equal(t, KindCategorical, out.Kinds[out.ColumnIndex(ColWW)])
	})

	t.Run("bad timestamp nulls the cell and keeps the row", func(t *testing.T) {
		raw := NewTextFrame(schema.Names(), [][]string{make([]string, schema.Width())})
		raw.Rows[0][0] = Text("20221130")

		out, stats, err := c.Coerce(raw)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Len())
		assert.True(t, mustCell(out, 0, ColTM).IsNull())
		assert.Equal(t, 1, stats.Unparsable[ColTM])
	})

	t.Run("missing column", func(t *testing.T) {
		raw := NewTextFrame([]string{"TM", "STN"}, [][]string{{"202211300900", "108"}})
		_, _, err := c.Coerce(raw)
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("extra columns are numeric unless excluded", func(t *testing.T) {
		cols := append(schema.Names(), "EXTRA", "NOTE")
		row := make([]string, len(cols))
		row[len(cols)-2] = "3.5"
		row[len(cols)-1] = "x"
		policy := DefaultCoercionPolicy(schema)
		policy.Exclude = append(policy.Exclude, "NOTE")

		out, _, err := NewCoercer(schema, policy, 1).Coerce(NewTextFrame(cols, [][]string{row}))
		require.NoError(t, err)
		assert.Equal(t, Float(3.5), mustCell(out, 0, "EXTRA"))
		assert.Equal(t, Text("x"), mustCell(out, 0, "NOTE"))
	})

	t.Run("does not modify input", func(t *testing.T) {
		raw, _ := ParseBody(sfcBody(sfcLine(schema, "202211300900", 108, nil)), schema, DropMalformed)
		before := raw.Clone()
		_, _, err := c.Coerce(raw)
		require.NoError(t, err)
		assert.Equal(t, before, raw)
	})
}

func TestCoerceParallelMatchesSequential(t *testing.T) {
	schema := DefaultSchema()
	lines := make([]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		overrides := map[string]string{"TA": fmt.Sprintf("%d.%d", i%40-10, i%10)}
		if i%7 == 0 {
			overrides["PA"] = "bad"
		}
		lines = append(lines, sfcLine(schema, fmt.Sprintf("2022113%d0%d00", i%2, i%10), 90+i%50, overrides))
	}
	raw, _ := ParseBody(sfcBody(lines...), schema, DropMalformed)
	require.Equal(t, 2500, raw.Len())

	seq, seqStats, err := NewCoercer(schema, DefaultCoercionPolicy(schema), 1).Coerce(raw)
	require.NoError(t, err)
	par, parStats, err := NewCoercer(schema, DefaultCoercionPolicy(schema), 4).Coerce(raw)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Equal(t, seqStats, parStats)
	assert.Equal(t, 358, parStats.Unparsable["PA"])
}
