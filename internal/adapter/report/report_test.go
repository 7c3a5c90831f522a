package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

func fptr(v float64) *float64 { return &v }

func testProducts() *pipeline.Products {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	return &pipeline.Products{
		Source:      "export.csv",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Stats:       domain.IngestStats{RowsTotal: 48, NullTimestamps: 1, MalformedValues: 2},
		Daily: &domain.DailyTable{
			Dates:   []time.Time{jan1, jan2},
			Columns: []string{"mean_temperatura", "sum_precipitacao"},
			Cells: map[string][]*float64{
				"mean_temperatura": {fptr(21.4), nil},
				"sum_precipitacao": {fptr(0), fptr(3.5)},
			},
		},
		Monthly: []domain.MonthlyAggregate{
			{Year: 2024, Month: time.January, Variable: domain.VarTemperature, Reducer: domain.ReduceMean, Value: fptr(21.4)},
			{Year: 2024, Month: time.February, Variable: domain.VarTemperature, Reducer: domain.ReduceMean, Value: nil},
		},
		Events: []domain.ExtremeEvent{
			{
				Kind:         domain.HeatWave,
				StartDate:    jan1,
				EndDate:      time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
				DurationDays: 3,
				ExtremeValue: 33,
				MeanValue:    32,
			},
		},
		Missing: []domain.MissingnessRow{
			{Variable: domain.VarPrecipitation, NullCount: 12, NullPct: 25},
			{Variable: domain.VarTemperature, NullCount: 3, NullPct: 6.25},
		},
		Summary: []domain.SummaryRow{
			{
				Variable: domain.VarTemperature,
				Count:    45,
				Mean:     fptr(21.4),
				Std:      fptr(1.2),
				CV:       fptr(0.06),
				Min:      fptr(18),
				Q1:       fptr(20.5),
				Median:   fptr(21.3),
				Q3:       fptr(22.2),
				Max:      fptr(25),
			},
			{Variable: domain.VarPressure, Count: 0},
		},
		Rankings: []pipeline.Ranking{
			{
				Title: "wettest days",
				Days: []domain.DailyAggregate{
					{Date: jan2, Variable: domain.VarPrecipitation, Reducer: domain.ReduceSum, Value: fptr(3.5)},
					{Date: jan1, Variable: domain.VarPrecipitation, Reducer: domain.ReduceSum, Value: fptr(0)},
				},
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSinkWritesAllProducts(t *testing.T) {
	dir := t.TempDir()
	sink := report.NewCSVSink(dir, slog.New(slog.DiscardHandler))

	require.NoError(t, sink.Persist(context.Background(), testProducts()))

	daily := readCSV(t, filepath.Join(dir, report.FileDaily))
	require.Len(t, daily, 3)
	assert.Equal(t, []string{"date", "mean_temperatura", "sum_precipitacao"}, daily[0])
	assert.Equal(t, []string{"2024-01-01", "21.4", "0"}, daily[1])
	assert.Equal(t, []string{"2024-01-02", "", "3.5"}, daily[2], "null cell stays empty, zero stays 0")

	monthly := readCSV(t, filepath.Join(dir, report.FileMonthly))
	require.Len(t, monthly, 3)
	assert.Equal(t, []string{"year", "month", "column", "value"}, monthly[0])
	assert.Equal(t, []string{"2024", "1", "mean_temperatura", "21.4"}, monthly[1])
	assert.Equal(t, []string{"2024", "2", "mean_temperatura", ""}, monthly[2])

	events := readCSV(t, filepath.Join(dir, report.FileEvents))
	require.Len(t, events, 2)
	assert.Equal(t, []string{"kind", "start_date", "end_date", "duration_days", "extreme_value", "mean_value"}, events[0])
	assert.Equal(t, []string{"heat", "2024-01-01", "2024-01-03", "3", "33", "32"}, events[1])

	missing := readCSV(t, filepath.Join(dir, report.FileMissing))
	require.Len(t, missing, 3)
	assert.Equal(t, []string{"precipitacao", "12", "25"}, missing[1])

	summary := readCSV(t, filepath.Join(dir, report.FileSummary))
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"variable", "count", "mean", "std", "cv", "min", "q1", "median", "q3", "max"}, summary[0])
	assert.Equal(t, []string{"temperatura", "45", "21.4", "1.2", "0.06", "18", "20.5", "21.3", "22.2", "25"}, summary[1])
	assert.Equal(t, []string{"pressao", "0", "", "", "", "", "", "", "", ""}, summary[2], "empty variable keeps its row with empty stats")
}

func TestCSVSinkCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := report.NewCSVSink(dir, slog.New(slog.DiscardHandler))

	require.NoError(t, sink.Persist(context.Background(), testProducts()))

	_, err := os.Stat(filepath.Join(dir, report.FileDaily))
	assert.NoError(t, err)
}

func TestCSVSinkStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := report.NewCSVSink(t.TempDir(), slog.New(slog.DiscardHandler))
	err := sink.Persist(ctx, testProducts())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleSinkRendersAllSections(t *testing.T) {
	var buf bytes.Buffer
	sink := report.NewConsoleSink(&buf)

	require.NoError(t, sink.Persist(context.Background(), testProducts()))
	out := buf.String()

	assert.Contains(t, out, "source: export.csv")
	assert.Contains(t, out, "rows: 48 (null timestamps: 1, malformed values: 2)")
	for _, title := range []string{"daily aggregates", "monthly aggregates", "extreme events", "missing data", "summary statistics", "wettest days"} {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "mean_temperatura")
	assert.Contains(t, out, "21.40")
	assert.Contains(t, out, "heat")
}

func TestConsoleSinkSkipsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	sink := report.NewConsoleSink(&buf)

	products := &pipeline.Products{
		Source:      "export.csv",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Events:      []domain.ExtremeEvent{},
	}
	require.NoError(t, sink.Persist(context.Background(), products))
	out := buf.String()

	assert.NotContains(t, out, "daily aggregates")
	assert.NotContains(t, out, "monthly aggregates")
	assert.Contains(t, out, "extreme events", "event table renders even when empty so absence is visible")
}
