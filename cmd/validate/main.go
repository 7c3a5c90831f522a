// Command validate performs integrity checks on a station export before a
// run: header recognition against the variable catalog, row-level
// parseability, and timestamp uniqueness. Given the products directory of a
// previous run over the same export, it additionally cross-checks the
// written CSV products against the source data.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -export data/station.csv \
//	  -encoding latin1 \
//	  -products out
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/exportfile"
	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
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
	exportPath := flag.String("export", "", "path to the station export file")
	encoding := flag.String("encoding", exportfile.EncodingLatin1, "export encoding: latin1 or utf8")
	productsDir := flag.String("products", "", "products directory of a previous run to cross-check (optional)")
	flag.Parse()

	if *exportPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*exportPath, *encoding, *productsDir); code != 0 {
		os.Exit(code)
	}
}

func run(exportPath, encoding, productsDir string) int {
	fmt.Println("=== Station Export Validation ===")
	fmt.Println()

	header, err := readHeader(exportPath, encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read header: %v\n", err)
		return 1
	}

	reader := exportfile.NewReader(exportPath, encoding, nil, slog.New(slog.DiscardHandler))
	series, stats, err := reader.Read(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read export: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeader(header),
		validateRows(series, stats),
	}
	if productsDir != "" {
		phases = append(phases, validateProducts(productsDir, series, stats))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	if productsDir == "" {
		fmt.Println("  Phase 3 skipped (no -products directory)")
	}

	fmt.Println()
	first, last, ok := series.Span()
	span := "none"
	if ok {
		span = first.Format(time.DateOnly) + " .. " + last.Format(time.DateOnly)
	}
	fmt.Printf("Rows: %d (null timestamps %d, malformed values %d), variables: %d, span: %s\n",
		stats.RowsTotal, stats.NullTimestamps, stats.MalformedValues, len(series.Variables()), span)

	// Print detailed errors.
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

// readHeader decodes and splits only the first line of the export.
func readHeader(path, encoding string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(decode(f, encoding))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

func decode(f *os.File, encoding string) io.Reader {
	if encoding == exportfile.EncodingUTF8 {
		return f
	}
	return transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
}

// ── Phase 1: Header Recognition ──
// Every column must resolve: the timestamp pair against its fixed names,
// value columns against the variable catalog. Ad-hoc columns run fine but
// usually indicate header drift, so they fail validation.

func validateHeader(header []string) *phase {
	p := &phase{name: "Phase 1: Header Recognition"}

	columns, err := domain.ResolveHeaders(header)
	if err != nil {
		p.errorf("resolve headers: %v", err)
		return p
	}

	catalog := 0
	for i, id := range columns.Vars {
		if _, known := domain.CanonicalVariable(domain.NormalizeHeader(header[i])); known {
			catalog++
			continue
		}
		p.errorf("column %d %q is not in the variable catalog (kept as ad-hoc id %q)", i+1, header[i], id)
	}
	if catalog == 0 {
		p.errorf("no column resolved to a catalog variable")
	}
	return p
}

// ── Phase 2: Row Integrity ──
// The pipeline absorbs bad timestamps and malformed numbers; the validator
// flags them so header or locale drift is caught before it silently becomes
// missing data.

func validateRows(series *domain.TimeSeries, stats domain.IngestStats) *phase {
	p := &phase{name: "Phase 2: Row Integrity"}

	if stats.RowsTotal == 0 {
		p.errorf("export has no data rows")
		return p
	}
	if stats.NullTimestamps > 0 {
		p.errorf("%d of %d rows have unparseable timestamps", stats.NullTimestamps, stats.RowsTotal)
	}
	if stats.MalformedValues > 0 {
		p.errorf("%d numeric cells failed to parse", stats.MalformedValues)
	}

	if _, _, ok := series.Span(); !ok {
		p.errorf("no row carries a usable timestamp")
		return p
	}

	duplicates := 0
	var firstDup time.Time
	for i := 1; i < series.Len(); i++ {
		a, b := series.At(i-1).Timestamp, series.At(i).Timestamp
		if a == nil || b == nil {
			break
		}
		if a.Equal(*b) {
			if duplicates == 0 {
				firstDup = *a
			}
			duplicates++
		}
	}
	if duplicates > 0 {
		p.errorf("%d duplicate timestamps (first at %s)", duplicates, firstDup.Format(time.RFC3339))
	}
	return p
}

// ── Phase 3: Products Consistency ──
// Cross-checks the CSV products of a previous run against the export they
// were derived from: the daily table must cover the span day for day, event
// windows must lie inside it, and the missingness census must add up.

func validateProducts(dir string, series *domain.TimeSeries, stats domain.IngestStats) *phase {
	p := &phase{name: "Phase 3: Products Consistency"}

	first, last, ok := series.Span()
	if !ok {
		p.errorf("cannot cross-check products: export has no timestamped rows")
		return p
	}
	spanDays := int(last.Sub(first).Hours()/24) + 1

	checkDailyProduct(p, filepath.Join(dir, report.FileDaily), first, last, spanDays)
	checkEventsProduct(p, filepath.Join(dir, report.FileEvents), first, last)
	checkMissingProduct(p, filepath.Join(dir, report.FileMissing), stats.RowsTotal)

	return p
}

func checkDailyProduct(p *phase, path string, first, last time.Time, spanDays int) {
	rows, err := loadCSV(path)
	if err != nil {
		p.errorf("daily: %v", err)
		return
	}
	if len(rows) != spanDays {
		p.errorf("daily: %d rows, export spans %d days", len(rows), spanDays)
	}

	var prev time.Time
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.fields["date"])
		if err != nil {
			p.errorf("daily line %d: bad date %q", row.lineNum, row.fields["date"])
			continue
		}
		if date.Before(first) || date.After(last) {
			p.errorf("daily line %d: date %s outside export span", row.lineNum, row.fields["date"])
		}
		if !prev.IsZero() && !date.After(prev) {
			p.errorf("daily line %d: date %s not after previous row", row.lineNum, row.fields["date"])
		}
		prev = date
	}
}

func checkEventsProduct(p *phase, path string, first, last time.Time) {
	rows, err := loadCSV(path)
	if err != nil {
		p.errorf("events: %v", err)
		return
	}

	for _, row := range rows {
		kind := row.fields["kind"]
		if kind != string(domain.HeatWave) && kind != string(domain.ColdWave) {
			p.errorf("events line %d: unknown kind %q", row.lineNum, kind)
		}

		start, errS := time.Parse(time.DateOnly, row.fields["start_date"])
		end, errE := time.Parse(time.DateOnly, row.fields["end_date"])
		if errS != nil || errE != nil {
			p.errorf("events line %d: bad date pair %q .. %q", row.lineNum, row.fields["start_date"], row.fields["end_date"])
			continue
		}
		if start.Before(first) || end.After(last) {
			p.errorf("events line %d: window %s .. %s outside export span", row.lineNum, row.fields["start_date"], row.fields["end_date"])
		}

		duration, err := strconv.Atoi(row.fields["duration_days"])
		if err != nil || duration < 1 {
			p.errorf("events line %d: bad duration %q", row.lineNum, row.fields["duration_days"])
			continue
		}
		if want := int(end.Sub(start).Hours()/24) + 1; duration != want {
			p.errorf("events line %d: duration %d does not match window of %d days", row.lineNum, duration, want)
		}
	}
}

func checkMissingProduct(p *phase, path string, rowsTotal int) {
	rows, err := loadCSV(path)
	if err != nil {
		p.errorf("missing: %v", err)
		return
	}

	for _, row := range rows {
		count, err := strconv.Atoi(row.fields["null_count"])
		if err != nil || count < 0 {
			p.errorf("missing line %d: bad null_count %q", row.lineNum, row.fields["null_count"])
			continue
		}
		if count > rowsTotal {
			p.errorf("missing line %d: null_count %d exceeds %d export rows", row.lineNum, count, rowsTotal)
		}

		pct, err := strconv.ParseFloat(row.fields["null_pct"], 64)
		if err != nil {
			p.errorf("missing line %d: bad null_pct %q", row.lineNum, row.fields["null_pct"])
			continue
		}
		if want := float64(count) / float64(rowsTotal) * 100; math.Abs(pct-want) > 1e-6 {
			p.errorf("missing line %d: null_pct %g does not match %d/%d rows", row.lineNum, pct, count, rowsTotal)
		}
	}
}

// ── Product loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

// loadCSV reads a comma-separated product file into header-keyed rows.
func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no header in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}
