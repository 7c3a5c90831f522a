package pipeline

import (
	"time"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

// AggregateRequest names one column of the daily and monthly tables:
// which variable to reduce and how.
type AggregateRequest struct {
	Variable domain.VariableID
	Reducer  domain.Reducer
}

// RankingRequest names one "top days" section of the report.
type RankingRequest struct {
	Title     string
	Variable  domain.VariableID
	Reducer   domain.Reducer
	Direction domain.RankDirection
}

// Params fixes what one run computes. Everything is passed in explicitly;
// the pipeline holds no hidden policy.
type Params struct {
	Source     string
	Aggregates []AggregateRequest
	Rankings   []RankingRequest
	TopN       int

	// WaveVariable's daily mean series feeds the wave scans.
	WaveVariable domain.VariableID
	Heat         domain.DetectorParams
	Cold         domain.DetectorParams
}

// Ranking is one rendered "top days" section.
type Ranking struct {
	Title string
	Days  []domain.DailyAggregate
}

// Products is everything one run derives from an export. Built once by
// Run, then handed read-only to every sink.
type Products struct {
	Source      string
	GeneratedAt time.Time
	Stats       domain.IngestStats

	Daily   *domain.DailyTable
	Monthly []domain.MonthlyAggregate
	Events  []domain.ExtremeEvent
	Missing []domain.MissingnessRow
	Summary []domain.SummaryRow

	Rankings []Ranking
}
