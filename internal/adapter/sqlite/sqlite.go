// Package sqlite archives run products in a local SQLite database so
// successive runs over the same station stay queryable.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

const driverName = "sqlite"

const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    rows_total INTEGER NOT NULL,
    null_timestamps INTEGER NOT NULL,
    malformed_values INTEGER NOT NULL
);
`

const schemaDaily = `
CREATE TABLE IF NOT EXISTS daily (
    run_id TEXT NOT NULL REFERENCES runs(id),
    date TEXT NOT NULL,
    "column" TEXT NOT NULL,
    value REAL
);
`

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    run_id TEXT NOT NULL REFERENCES runs(id),
    kind TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    duration_days INTEGER NOT NULL,
    extreme_value REAL NOT NULL,
    mean_value REAL NOT NULL
);
`

const schemaMissing = `
CREATE TABLE IF NOT EXISTS missing (
    run_id TEXT NOT NULL REFERENCES runs(id),
    variable TEXT NOT NULL,
    null_count INTEGER NOT NULL,
    null_pct REAL NOT NULL
);
`

// Sink archives each delivered bundle under a fresh run id, all rows in
// one transaction. It implements pipeline.Sink.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the archive at path, creating the file and schema when
// missing.
func Open(path string, logger *slog.Logger) (*Sink, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open archive at %q: %w", path, err)
	}

	// SQLite tolerates a single writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	return &Sink{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{schemaRuns, schemaDaily, schemaEvents, schemaMissing} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// Persist inserts the bundle under a new UUID run id. Either every row
// lands or none do.
func (s *Sink) Persist(ctx context.Context, products *pipeline.Products) error {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertRun(ctx, tx, runID, products); err != nil {
		return err
	}
	if err := insertDaily(ctx, tx, runID, products.Daily); err != nil {
		return err
	}
	if err := insertEvents(ctx, tx, runID, products.Events); err != nil {
		return err
	}
	if err := insertMissing(ctx, tx, runID, products.Missing); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}

	s.logger.Info("run archived",
		"run_id", runID,
		"events", len(products.Events),
		"rows_total", products.Stats.RowsTotal,
	)
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, runID string, products *pipeline.Products) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, generated_at, rows_total, null_timestamps, malformed_values)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID,
		products.Source,
		products.GeneratedAt.UTC().Format(time.RFC3339),
		products.Stats.RowsTotal,
		products.Stats.NullTimestamps,
		products.Stats.MalformedValues,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

func insertDaily(ctx context.Context, tx *sql.Tx, runID string, t *domain.DailyTable) error {
	if t == nil {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO daily (run_id, date, "column", value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare daily insert: %w", err)
	}
	defer stmt.Close()

	for i, date := range t.Dates {
		for _, col := range t.Columns {
			var value any
			if v := t.Cells[col][i]; v != nil {
				value = *v
			}
			if _, err := stmt.ExecContext(ctx, runID, date.Format(time.DateOnly), col, value); err != nil {
				return fmt.Errorf("insert daily %s %s: %w", date.Format(time.DateOnly), col, err)
			}
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, runID string, events []domain.ExtremeEvent) error {
	if len(events) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, kind, start_date, end_date, duration_days, extreme_value, mean_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare events insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			runID,
			string(e.Kind),
			e.StartDate.Format(time.DateOnly),
			e.EndDate.Format(time.DateOnly),
			e.DurationDays,
			e.ExtremeValue,
			e.MeanValue,
		)
		if err != nil {
			return fmt.Errorf("insert %s event at %s: %w", e.Kind, e.StartDate.Format(time.DateOnly), err)
		}
	}
	return nil
}

func insertMissing(ctx context.Context, tx *sql.Tx, runID string, rows []domain.MissingnessRow) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO missing (run_id, variable, null_count, null_pct) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare missing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, string(r.Variable), r.NullCount, r.NullPct); err != nil {
			return fmt.Errorf("insert missing row for %s: %w", r.Variable, err)
		}
	}
	return nil
}
