// Package exportfile reads delimited station exports from disk into the
// domain time series. It owns file handling and charset decoding; all
// parsing semantics live in the domain package.
package exportfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

// Supported source encodings. Station exports ship as Latin-1; utf8 covers
// files already re-encoded by hand.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// checkEvery is how many rows pass between context checks.
const checkEvery = 1000

// Reader ingests one station export file. It implements pipeline.Source.
type Reader struct {
	path     string
	encoding string
	require  []domain.VariableID
	logger   *slog.Logger
}

// NewReader creates a reader for path. require lists the variables the run
// cannot proceed without; their absence from the header fails ingestion
// before any row is parsed. An empty encoding defaults to Latin-1.
func NewReader(path, encoding string, require []domain.VariableID, logger *slog.Logger) *Reader {
	if encoding == "" {
		encoding = EncodingLatin1
	}
	return &Reader{path: path, encoding: encoding, require: require, logger: logger}
}

// Read parses the whole export into a TimeSeries. Row-level problems are
// absorbed: a bad timestamp keeps the row with a null timestamp, a bad
// number becomes a null value, and both are counted in the returned stats.
// Structural problems (unreadable file, missing required columns) abort.
func (r *Reader) Read(ctx context.Context) (*domain.TimeSeries, domain.IngestStats, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, domain.IngestStats{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	series, stats, err := r.parse(ctx, r.decode(f))
	if err != nil {
		return nil, stats, fmt.Errorf("read export %s: %w", r.path, err)
	}
	return series, stats, nil
}

// decode wraps src with the configured charset decoder.
func (r *Reader) decode(src io.Reader) io.Reader {
	if r.encoding == EncodingUTF8 {
		return src
	}
	return transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
}

func (r *Reader) parse(ctx context.Context, src io.Reader) (*domain.TimeSeries, domain.IngestStats, error) {
	cr := csv.NewReader(src)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	// Station exports never quote fields; a stray quote must not abort.
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.IngestStats{}, fmt.Errorf("read header: %w", domain.ErrEmptyInput)
		}
		return nil, domain.IngestStats{}, fmt.Errorf("read header: %w", err)
	}

	columns, err := domain.ResolveHeaders(header)
	if err != nil {
		return nil, domain.IngestStats{}, err
	}
	if err := columns.Require(r.require...); err != nil {
		return nil, domain.IngestStats{}, err
	}

	var (
		stats domain.IngestStats
		obs   []domain.Observation
	)
	for line := 2; ; line++ {
		if stats.RowsTotal%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read line %d: %w", line, err)
		}

		obs = append(obs, r.parseRow(record, columns, line, &stats))
		stats.RowsTotal++
	}

	return domain.NewTimeSeries(obs), stats, nil
}

// parseRow converts one record into an Observation, counting recoveries.
func (r *Reader) parseRow(record []string, columns domain.ColumnMap, line int, stats *domain.IngestStats) domain.Observation {
	ts := domain.ParseTimestamp(field(record, columns.Date), field(record, columns.Hour))
	if ts == nil {
		stats.NullTimestamps++
		r.logger.Debug("unparseable timestamp",
			"line", line,
			"data", field(record, columns.Date),
			"hora", field(record, columns.Hour))
	}

	values := make(map[domain.VariableID]*float64, len(columns.Vars))
	for idx, id := range columns.Vars {
		raw := field(record, idx)
		v := domain.ParseNumber(raw)
		if v == nil && strings.TrimSpace(raw) != "" {
			stats.MalformedValues++
			r.logger.Debug("unparseable value", "line", line, "variable", string(id), "raw", raw)
		}
		values[id] = v
	}

	return domain.Observation{Timestamp: ts, Values: values}
}

// field reads a column from a possibly short row; out-of-range indexes
// yield empty strings, which parse to null.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
