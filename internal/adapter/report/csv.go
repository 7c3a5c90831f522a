package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

// File names written into the output directory.
const (
	FileDaily   = "daily.csv"
	FileMonthly = "monthly.csv"
	FileEvents  = "events.csv"
	FileMissing = "missing.csv"
	FileSummary = "summary.csv"
)

// CSVSink writes each product section as a UTF-8, comma-separated, dot
// decimal CSV file in a directory. It implements pipeline.Sink.
type CSVSink struct {
	dir    string
	logger *slog.Logger
}

// NewCSVSink writes into dir, creating it if needed.
func NewCSVSink(dir string, logger *slog.Logger) *CSVSink {
	return &CSVSink{dir: dir, logger: logger}
}

// Persist writes all five product files. Files from a previous run are
// overwritten.
func (s *CSVSink) Persist(ctx context.Context, products *pipeline.Products) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name  string
		write func(*csv.Writer, *pipeline.Products) error
	}{
		{FileDaily, writeDaily},
		{FileMonthly, writeMonthly},
		{FileEvents, writeEvents},
		{FileMissing, writeMissing},
		{FileSummary, writeSummary},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeFile(f.name, products, f.write); err != nil {
			return err
		}
	}

	s.logger.Info("csv products written", "dir", s.dir, "files", len(files))
	return nil
}

func (s *CSVSink) writeFile(name string, products *pipeline.Products, write func(*csv.Writer, *pipeline.Products) error) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w, products); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return f.Close()
}

func writeDaily(w *csv.Writer, products *pipeline.Products) error {
	t := products.Daily
	if t == nil {
		return w.Write([]string{"date"})
	}
	header := append([]string{"date"}, t.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, date := range t.Dates {
		row := make([]string, 0, len(header))
		row = append(row, date.Format(time.DateOnly))
		for _, col := range t.Columns {
			row = append(row, formatValue(t.Cells[col][i]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeMonthly(w *csv.Writer, products *pipeline.Products) error {
	if err := w.Write([]string{"year", "month", "column", "value"}); err != nil {
		return err
	}
	for _, m := range products.Monthly {
		row := []string{
			strconv.Itoa(m.Year),
			strconv.Itoa(int(m.Month)),
			domain.ColumnName(m.Reducer, m.Variable),
			formatValue(m.Value),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeEvents(w *csv.Writer, products *pipeline.Products) error {
	if err := w.Write([]string{"kind", "start_date", "end_date", "duration_days", "extreme_value", "mean_value"}); err != nil {
		return err
	}
	for _, e := range products.Events {
		row := []string{
			string(e.Kind),
			e.StartDate.Format(time.DateOnly),
			e.EndDate.Format(time.DateOnly),
			strconv.Itoa(e.DurationDays),
			formatNumber(e.ExtremeValue),
			formatNumber(e.MeanValue),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeMissing(w *csv.Writer, products *pipeline.Products) error {
	if err := w.Write([]string{"variable", "null_count", "null_pct"}); err != nil {
		return err
	}
	for _, r := range products.Missing {
		row := []string{
			string(r.Variable),
			strconv.Itoa(r.NullCount),
			formatNumber(r.NullPct),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w *csv.Writer, products *pipeline.Products) error {
	if err := w.Write([]string{"variable", "count", "mean", "std", "cv", "min", "q1", "median", "q3", "max"}); err != nil {
		return err
	}
	for _, r := range products.Summary {
		row := []string{
			string(r.Variable),
			strconv.Itoa(r.Count),
			formatValue(r.Mean),
			formatValue(r.Std),
			formatValue(r.CV),
			formatValue(r.Min),
			formatValue(r.Q1),
			formatValue(r.Median),
			formatValue(r.Q3),
			formatValue(r.Max),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// formatValue renders an optional value; nulls become empty cells so they
// stay distinguishable from real zeros.
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
