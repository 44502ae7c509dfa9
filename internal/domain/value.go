package domain

import (
	"strconv"
	"time"
)

// TimeLayout is the fixed shape of an observation time token.
const TimeLayout = "200601021504"

// CleanTimeLayout is how temporal cells are rendered in cleaned tables.
const CleanTimeLayout = "2006-01-02 15:04:05"

// ValueType tags the content of a Value.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeText
	TypeInt
	TypeFloat
	TypeTime
)

// Value is one nullable table cell. The zero value is null.
type Value struct {
	typ  ValueType
	text string
	i    int64
	f    float64
	t    time.Time
}

// Null returns an explicit null cell.
func Null() Value { return Value{} }

// Text returns a text cell.
func Text(s string) Value { return Value{typ: TypeText, text: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{typ: TypeInt, i: i} }

// Float returns a floating point cell.
func Float(f float64) Value { return Value{typ: TypeFloat, f: f} }

// Time returns a temporal cell.
func Time(t time.Time) Value { return Value{typ: TypeTime, t: t} }

// Type reports what the cell holds.
func (v Value) Type() ValueType { return v.typ }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// IsNumber reports whether the cell holds an int or a float.
func (v Value) IsNumber() bool { return v.typ == TypeInt || v.typ == TypeFloat }

// Str returns the text of a text cell.
func (v Value) Str() (string, bool) {
	if v.typ != TypeText {
		return "", false
	}
	return v.text, true
}

// Number returns the numeric value of an int or float cell.
func (v Value) Number() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.i), true
	case TypeFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Int64 returns the value of an int cell.
func (v Value) Int64() (int64, bool) {
	if v.typ != TypeInt {
		return 0, false
	}
	return v.i, true
}

// TimeValue returns the value of a temporal cell.
func (v Value) TimeValue() (time.Time, bool) {
	if v.typ != TypeTime {
		return time.Time{}, false
	}
	return v.t, true
}

// String renders the cell for tabular output. Null renders as "".
func (v Value) String() string {
	switch v.typ {
	case TypeText:
		return v.text
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case TypeTime:
		return v.t.Format(CleanTimeLayout)
	default:
		return ""
	}
}
