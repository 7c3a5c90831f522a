package sqlite_test

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

func fptr(v float64) *float64 { return &v }

func archiveProducts() *pipeline.Products {
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
		},
	}
}

func openSink(t *testing.T, path string) *sqlite.Sink {
	t.Helper()
	sink, err := sqlite.Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return sink
}

func TestSinkArchivesRunAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	sink := openSink(t, path)

	require.NoError(t, sink.Persist(context.Background(), archiveProducts()))
	require.NoError(t, sink.Persist(context.Background(), archiveProducts()))
	require.NoError(t, sink.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(DISTINCT id) FROM runs`).Scan(&runs))
	assert.Equal(t, 2, runs, "each persist gets its own run id")

	var source, generatedAt string
	var rowsTotal, nullTS, malformed int
	require.NoError(t, db.QueryRow(
		`SELECT source, generated_at, rows_total, null_timestamps, malformed_values FROM runs LIMIT 1`,
	).Scan(&source, &generatedAt, &rowsTotal, &nullTS, &malformed))
	assert.Equal(t, "export.csv", source)
	assert.Equal(t, "2024-03-01T12:00:00Z", generatedAt)
	assert.Equal(t, 48, rowsTotal)
	assert.Equal(t, 1, nullTS)
	assert.Equal(t, 2, malformed)

	var dailyRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM daily`).Scan(&dailyRows))
	assert.Equal(t, 8, dailyRows, "2 dates x 2 columns x 2 runs")

	var kind string
	var duration int
	var extreme float64
	require.NoError(t, db.QueryRow(
		`SELECT kind, duration_days, extreme_value FROM events LIMIT 1`,
	).Scan(&kind, &duration, &extreme))
	assert.Equal(t, "heat", kind)
	assert.Equal(t, 3, duration)
	assert.InDelta(t, 33, extreme, 1e-9)

	var pct float64
	require.NoError(t, db.QueryRow(
		`SELECT null_pct FROM missing WHERE variable = 'precipitacao' LIMIT 1`,
	).Scan(&pct))
	assert.InDelta(t, 25, pct, 1e-9)
}

func TestSinkKeepsNullCellsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	sink := openSink(t, path)
	require.NoError(t, sink.Persist(context.Background(), archiveProducts()))
	require.NoError(t, sink.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var gap sql.NullFloat64
	require.NoError(t, db.QueryRow(
		`SELECT value FROM daily WHERE "column" = 'mean_temperatura' AND date = '2024-01-02'`,
	).Scan(&gap))
	assert.False(t, gap.Valid, "missing day stays NULL, not zero")

	var zero sql.NullFloat64
	require.NoError(t, db.QueryRow(
		`SELECT value FROM daily WHERE "column" = 'sum_precipitacao' AND date = '2024-01-01'`,
	).Scan(&zero))
	require.True(t, zero.Valid)
	assert.Zero(t, zero.Float64, "a dry day is a real zero")
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	sink := openSink(t, path)
	require.NoError(t, sink.Close())

	sink = openSink(t, path)
	defer sink.Close()
	assert.NoError(t, sink.Persist(context.Background(), archiveProducts()))
}

func TestPersistStopsOnCancelledContext(t *testing.T) {
	sink := openSink(t, filepath.Join(t.TempDir(), "archive.db"))
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, sink.Persist(ctx, archiveProducts()))
}
