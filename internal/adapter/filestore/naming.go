package filestore

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// StampLayout is the run timestamp embedded in artifact names.
const StampLayout = "20060102_150405"

// RawName names the verbatim response body of one fetch.
func RawName(tm string, stn int, at time.Time) string {
	return fmt.Sprintf("kma_sfctm2_raw_tm%s_stn%d_%s.txt", tm, stn, at.Format(StampLayout))
}

// ParsedName names the parsed (bound, uncleaned) table of one fetch.
func ParsedName(tm string, stn int, at time.Time) string {
	return fmt.Sprintf("kma_sfctm2_parsed_tm%s_stn%d_%s.csv", tm, stn, at.Format(StampLayout))
}

// CleanName names the cleaned table derived from an input with the given base name.
func CleanName(base string, at time.Time) string {
	return fmt.Sprintf("%s__clean__%s.csv", base, at.Format(StampLayout))
}

// ReportName names the quality report paired with CleanName.
func ReportName(base string, at time.Time) string {
	return fmt.Sprintf("%s__report__%s.json", base, at.Format(StampLayout))
}

// DatasetName is the fixed file name of the modelling dataset.
const DatasetName = "hourly_base.parquet"

// BaseName strips the directory, any compression suffix and the .csv or
// .txt extension: "data_raw/x.csv.gz" -> "x".
func BaseName(path string) string {
	name := stripCompressionExt(filepath.Base(path))
	for _, ext := range []string{".csv", ".txt"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// IsCSV reports whether path names a CSV artifact, compressed or not.
func IsCSV(path string) bool {
	return strings.HasSuffix(stripCompressionExt(path), ".csv")
}
