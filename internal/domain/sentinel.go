package domain

import (
	"math"
	"strconv"
	"strings"
)

// defaultSentinelTokens are the placeholder codes the sfctm2 feed uses for
// "not observed", in the renderings seen in practice.
var defaultSentinelTokens = []string{"-9", "-9.0", "-9.00", "-99", "-99.0", "-99.00"}

// SentinelSet is an immutable set of numeric missing-value codes. It keeps
// the accepted tokens verbatim so a report can show exactly what was applied.
type SentinelSet struct {
	tokens []string
	values []float64
}

// DefaultSentinels returns the built-in set: -9, -99 and their fractional forms.
func DefaultSentinels() SentinelSet {
	s, _ := ParseSentinels(strings.Join(defaultSentinelTokens, ","))
	return s
}

// NewSentinelSet builds a set from numeric values.
func NewSentinelSet(values ...float64) SentinelSet {
	s := SentinelSet{}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s.tokens = append(s.tokens, strconv.FormatFloat(v, 'f', -1, 64))
		s.values = append(s.values, v)
	}
	return s
}

// ParseSentinels parses a comma-separated override such as "-9,-99,-999.0".
// An empty or blank spec yields DefaultSentinels. Tokens that are not valid
// numbers are dropped and returned so the caller can log them; the rest of the
// set still applies. A spec made only of invalid tokens yields an empty set.
func ParseSentinels(spec string) (SentinelSet, []string) {
	if strings.TrimSpace(spec) == "" {
		return DefaultSentinels(), nil
	}

	var (
		s       SentinelSet
		dropped []string
	)
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			dropped = append(dropped, tok)
			continue
		}
		s.tokens = append(s.tokens, tok)
		s.values = append(s.values, v)
	}
	return s, dropped
}

// Tokens returns the accepted tokens as written.
func (s SentinelSet) Tokens() []string { return append([]string(nil), s.tokens...) }

// Values returns the accepted values, duplicates included, in input order.
func (s SentinelSet) Values() []float64 { return append([]float64(nil), s.values...) }

// Len returns the number of accepted tokens.
func (s SentinelSet) Len() int { return len(s.values) }

// Contains reports whether v equals a sentinel exactly.
func (s SentinelSet) Contains(v float64) bool {
	for _, sv := range s.values {
		if v == sv {
			return true
		}
	}
	return false
}
