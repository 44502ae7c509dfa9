package domain

import (
	"strconv"
	"strings"
)

// sfcLine renders one data line for the given schema. Fields not in
// overrides get a plausible measurement; CT and WW get textual codes.
func sfcLine(schema *Schema, tm string, stn int, overrides map[string]string) string {
	tokens := make([]string, 0, schema.Width())
	for i, f := range schema.Fields() {
		if v, ok := overrides[f.Name]; ok {
			tokens = append(tokens, v)
			continue
		}
		switch f.Name {
		case ColTM:
			tokens = append(tokens, tm)
		case ColSTN:
			tokens = append(tokens, strconv.Itoa(stn))
		case ColCT:
			tokens = append(tokens, "ScAc")
		case ColWW:
			tokens = append(tokens, "-9")
		default:
			tokens = append(tokens, strconv.FormatFloat(float64(i)+0.5, 'f', 1, 64))
		}
	}
	return strings.Join(tokens, " ")
}

func sfcBody(lines ...string) string {
	header := []string{
		"#START7777",
		"#--------------------------------------------------------------------------------------------------",
		"#  YYMMDDHHMI STN  WD   WS GST  GST  GST     PA     PS PT    PR    TA    TD    HM    PV     RN",
		"#--------------------------------------------------------------------------------------------------",
	}
	footer := []string{"#7777END", ""}
	all := append(append(header, lines...), footer...)
	return strings.Join(all, "\n")
}

func mustCell(f Frame, row int, col string) Value {
	j := f.ColumnIndex(col)
	if j < 0 {
		panic("no column " + col)
	}
	return f.Rows[row][j]
}
