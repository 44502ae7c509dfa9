package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Kind is the semantic type a schema field is coerced to during cleaning.
type Kind int

const (
	KindNumeric     Kind = iota // floating point measurement
	KindTemporal                // YYYYMMDDHHMI observation time
	KindIntegerKey              // integer identifier (station id)
	KindCategorical             // textual code, never numerically coerced
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	case KindIntegerKey:
		return "integer-key"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column names with special handling in the cleaning policy.
const (
	ColTM  = "TM"  // observation time
	ColSTN = "STN" // station id
	ColCT  = "CT"  // cloud type code
	ColWW  = "WW"  // present weather code
)

// Schema versions known to LookupSchema.
const (
	SchemaV1 = "kma-sfctm2/1"
	SchemaV2 = "kma-sfctm2/2"
)

var (
	// ErrUnknownSchema is returned by LookupSchema for unregistered versions.
	ErrUnknownSchema = errors.New("unknown schema version")

	// ErrMissingColumn means a frame lacks a column its schema requires.
	ErrMissingColumn = errors.New("required column missing")
)

// Field is one positional column of an observation line.
type Field struct {
	Name string
	Kind Kind
}

// Schema is an immutable, ordered column descriptor. Order matters for
// token-count matching during extraction only.
type Schema struct {
	version string
	fields  []Field
	index   map[string]int
}

// NewSchema builds a descriptor. Field names must be unique.
func NewSchema(version string, fields []Field) (*Schema, error) {
	s := &Schema{
		version: version,
		fields:  append([]Field(nil), fields...),
		index:   make(map[string]int, len(fields)),
	}
	for i, f := range s.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field %d has no name", version, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", version, f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

func mustSchema(version string, fields []Field) *Schema {
	s, err := NewSchema(version, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Version returns the descriptor identifier, e.g. "kma-sfctm2/1".
func (s *Schema) Version() string { return s.version }

// Width is the exact token count a data line must have.
func (s *Schema) Width() int { return len(s.fields) }

// Fields returns a copy of the ordered fields.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Names returns the ordered field names.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of a field.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// KindOf returns the declared kind of a field. Unknown names are numeric,
// matching how extra columns are treated by the coercer.
func (s *Schema) KindOf(name string) Kind {
	if i, ok := s.index[name]; ok {
		return s.fields[i].Kind
	}
	return KindNumeric
}

// NonNumeric returns the sorted names of fields that are not plain numeric
// measurements. This is the column exclusion recorded in quality reports.
func (s *Schema) NonNumeric() []string {
	var out []string
	for _, f := range s.fields {
		if f.Kind != KindNumeric {
			out = append(out, f.Name)
		}
	}
	sort.Strings(out)
	return out
}

// sfctm2Names is the column order of the sfctm2 text output.
var sfctm2Names = []string{
	"TM", "STN", "WD", "WS",
	"GST_WD", "GST_WS", "GST_TM",
	"PA", "PS", "PT", "PR",
	"TA", "TD", "HM", "PV",
	"RN", "RN_DAY", "RN_JUN", "RN_INT",
	"SD_HR3", "SD_DAY", "SD_TOT",
	"WC", "WP", "WW",
	"CA_TOT", "CA_MID", "CH_MIN",
	"CT", "CT_TOP", "CT_MID", "CT_LOW",
	"VS", "SS", "SI", "ST_GD",
	"TS", "TE_005", "TE_01", "TE_02", "TE_03",
	"ST_SEA", "WH", "BF", "IR", "IX",
}

func sfctm2Fields(n int) []Field {
	fields := make([]Field, n)
	for i, name := range sfctm2Names[:n] {
		kind := KindNumeric
		switch name {
		case ColTM:
			kind = KindTemporal
		case ColSTN:
			kind = KindIntegerKey
		case ColCT, ColWW:
			kind = KindCategorical
		}
		fields[i] = Field{Name: name, Kind: kind}
	}
	return fields
}

var schemas = map[string]*Schema{
	SchemaV1: mustSchema(SchemaV1, sfctm2Fields(45)),
	SchemaV2: mustSchema(SchemaV2, sfctm2Fields(46)),
}

// DefaultSchema returns the 45-field sfctm2 descriptor.
func DefaultSchema() *Schema { return schemas[SchemaV1] }

// LookupSchema returns a registered descriptor by version.
func LookupSchema(version string) (*Schema, error) {
	s, ok := schemas[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, version)
	}
	return s, nil
}
