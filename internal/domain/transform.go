package domain

// ParseBody turns a raw sfctm2 response body into a bound frame. Malformed
// lines are dropped (or collected, per policy) and never fail the parse.
func ParseBody(body string, schema *Schema, policy MalformedPolicy) (Frame, Extraction) {
	ex := ExtractRows(body, schema, policy)
	return Bind(schema, ex.Records), ex
}

// CleanResult is the output of CleanFrame.
type CleanResult struct {
	Frame       Frame
	Report      QualityReport
	Coercion    CoercionStats
	Normalizing NormalizeStats
}

// CleanFrame coerces a parsed frame, nulls sentinel values and builds the
// quality report. Rows are never added or removed. The only error is
// ErrMissingColumn from coercion.
func CleanFrame(raw Frame, c *Coercer, sentinels SentinelSet) (CleanResult, error) {
	typed, cstats, err := c.Coerce(raw)
	if err != nil {
		return CleanResult{}, err
	}
	clean, nstats := NormalizeMissing(typed, sentinels)

	report := BuildQualityReport(raw, clean)
	report.SentinelReplacements = CountsInColumnOrder(nstats.Replaced, clean.Columns)
	report.UnparsableCells = CountsInColumnOrder(cstats.Unparsable, clean.Columns)

	return CleanResult{
		Frame:       clean,
		Report:      report,
		Coercion:    cstats,
		Normalizing: nstats,
	}, nil
}
