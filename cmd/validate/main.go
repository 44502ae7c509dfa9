// Command validate audits a cleaned table against the quality report written
// with it: row counts, column order, null counts, time range, station count,
// numeric ranges, and that no sentinel value survived cleaning.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -clean data_clean/x__clean__20240301_120000.csv \
//	  -report reports/x__report__20240301_120000.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cleanPath := flag.String("clean", "", "cleaned CSV to audit (required)")
	reportPath := flag.String("report", "", "report JSON; defaults to the paired name in -report-dir")
	reportDir := flag.String("report-dir", "reports", "directory searched for the paired report")
	flag.Parse()

	if *cleanPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *reportPath == "" {
		*reportPath = pairedReport(*cleanPath, *reportDir)
	}

	if code := run(*cleanPath, *reportPath); code != 0 {
		os.Exit(code)
	}
}

// pairedReport maps "d/x__clean__TS.csv[.gz]" to "reportDir/x__report__TS.json".
func pairedReport(cleanPath, reportDir string) string {
	name := filestore.BaseName(cleanPath)
	return filepath.Join(reportDir, strings.Replace(name, "__clean__", "__report__", 1)+".json")
}

func run(cleanPath, reportPath string) int {
	fmt.Println("=== Cleaned Table Audit ===")
	fmt.Println()

	table, err := filestore.ReadFrameFile(cleanPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cleaned table: %v\n", err)
		return 1
	}
	report, err := loadReport(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
		return 1
	}

	phases := audit(table, report)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Table: %s (%d rows, %d columns)\nReport: %s\n", cleanPath, table.Len(), len(table.Columns), reportPath)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadReport(path string) (domain.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RunReport{}, err
	}
	var r domain.RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.RunReport{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

// audit runs every phase. The table is read back as text, so numeric checks
// parse cells on the fly.
func audit(table domain.Frame, report domain.RunReport) []*phase {
	return []*phase{
		validateShape(table, report),
		validateMissingCounts(table, report),
		validateSentinelFree(table, report),
		validateKeys(table, report),
		validateNumericSnapshot(table, report),
	}
}

// ── Phases ──

func validateShape(table domain.Frame, report domain.RunReport) *phase {
	p := &phase{name: "Row counts and columns"}
	if report.RowsRaw != report.RowsClean {
		p.errorf("report rows_raw=%d rows_clean=%d: cleaning must not change row count", report.RowsRaw, report.RowsClean)
	}
	if table.Len() != report.RowsClean {
		p.errorf("table has %d rows, report rows_clean=%d", table.Len(), report.RowsClean)
	}
	if strings.Join(table.Columns, ",") != strings.Join(report.Cols, ",") {
		p.errorf("column order differs: table %v, report %v", table.Columns, report.Cols)
	}
	return p
}

func validateMissingCounts(table domain.Frame, report domain.RunReport) *phase {
	p := &phase{name: "Null counts agree with missing_count"}
	for j, col := range table.Columns {
		nulls := 0
		for _, row := range table.Rows {
			if row[j].IsNull() {
				nulls++
			}
		}
		want, ok := report.MissingCount.Get(col)
		if !ok {
			p.errorf("%s: missing from missing_count", col)
			continue
		}
		if nulls != want {
			p.errorf("%s: table has %d nulls, report says %d", col, nulls, want)
		}
	}
	for i := 1; i < len(report.MissingCount); i++ {
		if report.MissingCount[i].Value > report.MissingCount[i-1].Value {
			p.errorf("missing_count is not sorted by descending count at %s", report.MissingCount[i].Key)
			break
		}
	}
	return p
}

func validateSentinelFree(table domain.Frame, report domain.RunReport) *phase {
	p := &phase{name: "No sentinel values in numeric columns"}
	sentinels := domain.NewSentinelSet(report.MissingValuesPolicy...)
	for _, col := range report.NumericSnapshot.Keys() {
		j := table.ColumnIndex(col)
		if j < 0 {
			p.errorf("%s: summarised in the report but absent from the table", col)
			continue
		}
		for r, row := range table.Rows {
			v, ok := number(row[j])
			if ok && sentinels.Contains(v) {
				p.errorf("%s row %d: sentinel %s survived cleaning", col, r+2, row[j].String())
			}
		}
	}
	return p
}

func validateKeys(table domain.Frame, report domain.RunReport) *phase {
	p := &phase{name: "Time range and station count"}

	if j := table.ColumnIndex(domain.ColTM); j >= 0 {
		var lo, hi time.Time
		seen := false
		for r, row := range table.Rows {
			if row[j].IsNull() {
				continue
			}
			t, err := time.Parse(domain.CleanTimeLayout, row[j].String())
			if err != nil {
				p.errorf("TM row %d: %q is not %s", r+2, row[j].String(), domain.CleanTimeLayout)
				continue
			}
			if !seen || t.Before(lo) {
				lo = t
			}
			if !seen || t.After(hi) {
				hi = t
			}
			seen = true
		}
		checkTime(p, "tm_min", report.TMMin, lo, seen)
		checkTime(p, "tm_max", report.TMMax, hi, seen)
	}

	if j := table.ColumnIndex(domain.ColSTN); j >= 0 {
		stations := make(map[string]struct{})
		for _, row := range table.Rows {
			if !row[j].IsNull() {
				stations[row[j].String()] = struct{}{}
			}
		}
		if len(stations) != report.NStations {
			p.errorf("table has %d stations, report n_stations=%d", len(stations), report.NStations)
		}
	}
	return p
}

func checkTime(p *phase, field string, got *string, want time.Time, seen bool) {
	switch {
	case !seen && got != nil:
		p.errorf("%s=%s but TM is entirely null", field, *got)
	case seen && got == nil:
		p.errorf("%s is null but TM has values", field)
	case seen && *got != want.Format(domain.ReportTimeLayout):
		p.errorf("%s=%s, table says %s", field, *got, want.Format(domain.ReportTimeLayout))
	}
}

func validateNumericSnapshot(table domain.Frame, report domain.RunReport) *phase {
	p := &phase{name: "Numeric snapshot matches table"}
	for _, e := range report.NumericSnapshot {
		j := table.ColumnIndex(e.Key)
		if j < 0 {
			continue
		}
		var (
			n        int
			low, top float64
		)
		for _, row := range table.Rows {
			v, ok := number(row[j])
			if !ok {
				continue
			}
			if n == 0 || v < low {
				low = v
			}
			if n == 0 || v > top {
				top = v
			}
			n++
		}
		if n == 0 {
			if e.Value.Min != nil || e.Value.Max != nil {
				p.errorf("%s: column is entirely null but snapshot has a range", e.Key)
			}
			continue
		}
		if e.Value.Min == nil || e.Value.Max == nil {
			p.errorf("%s: snapshot has no range but column has %d values", e.Key, n)
			continue
		}
		if !approxEqual(*e.Value.Min, low) || !approxEqual(*e.Value.Max, top) {
			p.errorf("%s: snapshot [%g, %g], table [%g, %g]", e.Key, *e.Value.Min, *e.Value.Max, low, top)
		}
	}
	return p
}

// ── Helpers ──

func number(v domain.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	return f, err == nil
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}
