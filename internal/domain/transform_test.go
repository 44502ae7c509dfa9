package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFrame(t *testing.T) {
	schema := DefaultSchema()
	c := NewCoercer(schema, DefaultCoercionPolicy(schema), 1)

	t.Run("sentinels in a full line become null", func(t *testing.T) {
		line := sfcLine(schema, "202211300900", 100, map[string]string{
			"WD": "250", "WS": "3.2",
			"GST_WD": "-9", "GST_WS": "-9", "GST_TM": "-9",
			"PA": "1012.3", "PS": "-99",
		})
		require.True(t, strings.HasPrefix(line, "202211300900 100 250 3.2 -9 -9 -9 1012.3 -99 "))
		short := strings.Join(strings.Fields(line)[:40], " ")

		raw, ex := ParseBody(sfcBody(line, short), schema, DropMalformed)
		require.Equal(t, 1, raw.Len())
		assert.Equal(t, 1, ex.MalformedLines)

		res, err := CleanFrame(raw, c, DefaultSentinels())
		require.NoError(t, err)

		for _, col := range []string{"GST_WD", "GST_WS", "GST_TM", "PS"} {
			assert.True(t, mustCell(res.Frame, 0, col).IsNull(), col)
		}
		assert.Equal(t, Float(250), mustCell(res.Frame, 0, "WD"))
		assert.Equal(t, Float(1012.3), mustCell(res.Frame, 0, "PA"))
		assert.Equal(t, Int(100), mustCell(res.Frame, 0, ColSTN))
		assert.Equal(t, Text("-9"), mustCell(res.Frame, 0, ColWW))

		assert.Equal(t, 4, res.Normalizing.Total())
		assert.Equal(t, []string{"GST_WD", "GST_WS", "GST_TM", "PS"}, res.Report.SentinelReplacements.Keys())
		assert.Empty(t, res.Report.UnparsableCells)
		assert.False(t, res.Report.RowCountMismatch())
	})

	t.Run("custom sentinel set", func(t *testing.T) {
		s, _ := ParseSentinels("-9,-99,foo")
		raw, _ := ParseBody(sfcBody(sfcLine(schema, "202211300900", 100, map[string]string{
			"TA": "-99.0", "TD": "-999",
		})), schema, DropMalformed)

		res, err := CleanFrame(raw, c, s)
		require.NoError(t, err)
		assert.True(t, mustCell(res.Frame, 0, "TA").IsNull())
		assert.Equal(t, Float(-999), mustCell(res.Frame, 0, "TD"))
	})

	t.Run("unparsable cells are reported", func(t *testing.T) {
		raw, _ := ParseBody(sfcBody(sfcLine(schema, "202211301260", 100, map[string]string{
			"HM": "x",
		})), schema, DropMalformed)

		res, err := CleanFrame(raw, c, DefaultSentinels())
		require.NoError(t, err)
		assert.Equal(t, []string{"TM", "HM"}, res.Report.UnparsableCells.Keys())
		assert.Nil(t, res.Report.TMMin)
	})

	t.Run("missing column", func(t *testing.T) {
		raw := NewTextFrame([]string{"TM"}, nil)
		_, err := CleanFrame(raw, c, DefaultSentinels())
		assert.ErrorIs(t, err, ErrMissingColumn)
	})
}
