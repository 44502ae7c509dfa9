package domain

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// dataLineRe matches a data line: a 12-digit YYYYMMDDHHMI token followed by
// whitespace, e.g. "202211300900   90  250 ...". Header and footer lines start
// with "#" and never match.
var dataLineRe = regexp.MustCompile(`^\d{12}\s+`)

// MalformedPolicy decides what happens to candidate lines whose token count
// does not match the schema width.
type MalformedPolicy int

const (
	// DropMalformed silently discards malformed lines.
	DropMalformed MalformedPolicy = iota
	// CollectRejects discards them from the output but keeps them in
	// Extraction.Rejects for inspection.
	CollectRejects
)

func (p MalformedPolicy) String() string {
	if p == CollectRejects {
		return "collect"
	}
	return "drop"
}

// ParseMalformedPolicy parses "drop" or "collect".
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DropMalformed, nil
	case "collect":
		return CollectRejects, nil
	default:
		return DropMalformed, fmt.Errorf("unknown malformed-row policy %q", s)
	}
}

// RawRecord is one tokenized data line with exactly Schema.Width tokens.
type RawRecord struct {
	Line   int // 1-based line number in the source body
	Tokens []string
}

// Reject is a candidate data line discarded for a token-count mismatch.
type Reject struct {
	Line       int
	TokenCount int
	Text       string
}

// Extraction is the outcome of scanning one raw text body.
type Extraction struct {
	Records        []RawRecord
	Rejects        []Reject // populated only under CollectRejects
	CandidateLines int      // lines that looked like data
	MalformedLines int      // candidates dropped for token count
	SkippedLines   int      // headers, footers, blanks
}

// IsDataLine reports whether a line starts with a 12-digit token followed by
// whitespace. Surrounding whitespace is ignored.
func IsDataLine(line string) bool {
	return dataLineRe.MatchString(strings.TrimSpace(line))
}

// ExtractRows scans body line by line and returns the records whose token
// count equals the schema width, in input order. Non-data lines are skipped
// and never reported. Empty input yields an empty Extraction.
func ExtractRows(body string, schema *Schema, policy MalformedPolicy) Extraction {
	var out Extraction
	if body == "" {
		return out
	}

	width := schema.Width()
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	sc.Split(scanLines)
	for i := 0; sc.Scan(); i++ {
		line := sc.Text()
		if !IsDataLine(line) {
			out.SkippedLines++
			continue
		}
		out.CandidateLines++

		tokens := strings.Fields(line)
		if len(tokens) != width {
			out.MalformedLines++
			if policy == CollectRejects {
				out.Rejects = append(out.Rejects, Reject{
					Line:       i + 1,
					TokenCount: len(tokens),
					Text:       strings.TrimSpace(line),
				})
			}
			continue
		}
		out.Records = append(out.Records, RawRecord{Line: i + 1, Tokens: tokens})
	}
	return out
}

// scanLines is a bufio.SplitFunc that ends a line at "\n", "\r\n" or a bare
// "\r". The terminator is not part of the token.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
