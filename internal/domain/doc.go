// Package domain models Korea Meteorological Administration (KMA) hourly
// surface observations and the ingestion-and-cleaning rules applied to them.
//
// # Data Source
//
// Observations come from the KMA API hub "sfctm2" text endpoint
// (https://apihub.kma.go.kr/api/typ01/url/kma_sfctm2.php). One request returns
// a plain-text body for a single observation hour: a block of "#"-prefixed
// header lines describing the columns, one whitespace-delimited line per
// station, and a "#"-prefixed footer.
//
// # Line Format
//
// Data lines start with the observation time as a 12-digit token followed by
// whitespace:
//
//	202211300900   90  250  3.2  -9  -9  -9 1012.3  -99 ...
//
// Any line that does not start that way is a header, footer or comment and is
// skipped. Tokens are positional, so a line is only usable when its token count
// equals the schema width exactly. See [ExtractRows].
//
// # Schema Versions
//
// Column layouts are described by a [Schema] (ordered field names plus a
// semantic [Kind] per field). Format drift is handled by registering a new
// descriptor rather than editing parsing code:
//
//	kma-sfctm2/1  45 fields, TM through IR (default)
//	kma-sfctm2/2  46 fields, adds IX (the station-type indicator)
//
// # Time Convention
//
// TM is station-local time (KST) in YYYYMMDDHHMI form. It is interpreted in the
// configured station location without any timezone conversion; any other shape
// (seconds, separators, wrong width) is a null, never an error.
//
// # Missing Values
//
// The feed marks unobserved measurements with placeholder codes instead of
// leaving the column empty. -9 and -99, and their fractional renderings -9.0
// and -99.0, are the common ones. After numeric coercion every numeric cell
// that equals a configured sentinel exactly is rewritten to null. Categorical
// codes (CT cloud type, WW present weather) and TM are never touched.
//
// # Cleaning Invariants
//
//   - Cleaning nulls cells, it never drops rows: rows_clean == rows_raw.
//   - One unparsable cell degrades to null; the rest of the row survives.
//   - Normalizing an already-normalized table is a no-op.
package domain
