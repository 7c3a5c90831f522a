package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/observability"
)

// Source produces the normalized time series for one run.
type Source interface {
	Read(ctx context.Context) (*domain.TimeSeries, domain.IngestStats, error)
}

// Sink delivers a finished Products bundle.
type Sink interface {
	Persist(ctx context.Context, products *Products) error
}

// Pipeline orchestrates one batch run: ingest, aggregate, detect, report,
// deliver. Stages run sequentially; each consumes immutable output of the
// previous one.
type Pipeline struct {
	source  Source
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
	params  Params
}

// New creates a Pipeline with the given stages and observability. The wave
// detector kinds are pinned here so a misconfigured Params cannot cross
// heat and cold.
func New(source Source, sinks []Sink, params Params, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	params.Heat.Kind = domain.HeatWave
	params.Cold.Kind = domain.ColdWave
	if params.TopN <= 0 {
		params.TopN = 10
	}
	return &Pipeline{
		source:  source,
		sinks:   sinks,
		logger:  logger,
		metrics: metrics,
		params:  params,
	}
}

// Run executes the batch and returns the Products bundle it delivered.
// Any stage error aborts the run; no partially built bundle ever reaches
// a sink.
func (p *Pipeline) Run(ctx context.Context) (*Products, error) {
	started := time.Now()
	p.logger.Info("run started", "source", p.params.Source)

	products, err := p.build(ctx)
	if err != nil {
		p.metrics.RunsCompleted.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := p.deliver(ctx, products); err != nil {
		p.metrics.RunsCompleted.WithLabelValues("error").Inc()
		return nil, err
	}

	p.metrics.RunsCompleted.WithLabelValues("success").Inc()
	p.logger.Info("run finished",
		"duration", time.Since(started),
		"rows", products.Stats.RowsTotal,
		"events", len(products.Events))
	return products, nil
}

func (p *Pipeline) build(ctx context.Context) (*Products, error) {
	series, stats, err := p.ingest(ctx)
	if err != nil {
		return nil, err
	}

	products := &Products{
		Source:      p.params.Source,
		GeneratedAt: domain.Now(),
		Stats:       stats,
	}

	if err := p.timed("aggregate", func() error {
		return p.aggregate(series, products)
	}); err != nil {
		return nil, err
	}

	if err := p.timed("detect", func() error {
		return p.detect(series, products)
	}); err != nil {
		return nil, err
	}

	if err := p.timed("report", func() error {
		return p.describe(series, products)
	}); err != nil {
		return nil, err
	}

	return products, nil
}

func (p *Pipeline) ingest(ctx context.Context) (*domain.TimeSeries, domain.IngestStats, error) {
	start := time.Now()
	series, stats, err := p.source.Read(ctx)
	p.metrics.StageDuration.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, stats, fmt.Errorf("ingest: %w", err)
	}

	p.metrics.RowsIngested.Add(float64(stats.RowsTotal))
	p.metrics.NullTimestamps.Add(float64(stats.NullTimestamps))
	p.metrics.MalformedValues.Add(float64(stats.MalformedValues))
	p.logger.Info("export ingested",
		"rows", stats.RowsTotal,
		"null_timestamps", stats.NullTimestamps,
		"malformed_values", stats.MalformedValues)
	return series, stats, nil
}

// aggregate builds the daily pivot table and the monthly rows for every
// requested (variable, reducer) pair.
func (p *Pipeline) aggregate(series *domain.TimeSeries, products *Products) error {
	seqs := make([][]domain.DailyAggregate, 0, len(p.params.Aggregates))
	for _, req := range p.params.Aggregates {
		daily, err := domain.AggregateDaily(series, req.Variable, req.Reducer)
		if err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
		seqs = append(seqs, daily)

		monthly, err := domain.AggregateMonthly(series, req.Variable, req.Reducer)
		if err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
		products.Monthly = append(products.Monthly, monthly...)
	}

	table, err := domain.NewDailyTable(seqs...)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	products.Daily = table

	p.logger.Info("daily table built", "columns", len(table.Columns), "days", len(table.Dates))
	return nil
}

// detect scans the wave variable's daily means for heat and cold runs and
// merges both into one chronological event list.
func (p *Pipeline) detect(series *domain.TimeSeries, products *Products) error {
	daily, err := domain.AggregateDaily(series, p.params.WaveVariable, domain.ReduceMean)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	heat, err := domain.DetectWaves(daily, p.params.Heat)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	cold, err := domain.DetectWaves(daily, p.params.Cold)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	events := append(append([]domain.ExtremeEvent{}, heat...), cold...)
	slices.SortStableFunc(events, func(a, b domain.ExtremeEvent) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	products.Events = events

	p.metrics.EventsDetected.WithLabelValues(string(domain.HeatWave)).Add(float64(len(heat)))
	p.metrics.EventsDetected.WithLabelValues(string(domain.ColdWave)).Add(float64(len(cold)))
	p.logger.Info("waves detected", "variable", string(p.params.WaveVariable), "heat", len(heat), "cold", len(cold))
	return nil
}

// describe fills the missingness, summary and ranking sections.
func (p *Pipeline) describe(series *domain.TimeSeries, products *Products) error {
	vars := series.Variables()

	missing, err := domain.MissingnessReport(series, vars)
	if err != nil {
		return fmt.Errorf("missingness: %w", err)
	}
	products.Missing = missing

	summary, err := domain.Summarize(series, vars)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	products.Summary = summary

	for _, req := range p.params.Rankings {
		daily, err := domain.AggregateDaily(series, req.Variable, req.Reducer)
		if err != nil {
			return fmt.Errorf("ranking %q: %w", req.Title, err)
		}
		products.Rankings = append(products.Rankings, Ranking{
			Title: req.Title,
			Days:  domain.TopDays(daily, p.params.TopN, req.Direction),
		})
	}

	p.logger.Info("report sections built",
		"variables", len(vars),
		"rankings", len(products.Rankings))
	return nil
}

func (p *Pipeline) deliver(ctx context.Context, products *Products) error {
	start := time.Now()
	defer func() {
		p.metrics.StageDuration.WithLabelValues("deliver").Observe(time.Since(start).Seconds())
	}()

	for _, sink := range p.sinks {
		if err := sink.Persist(ctx, products); err != nil {
			return fmt.Errorf("deliver: %w", err)
		}
	}
	p.logger.Info("products delivered", "sinks", len(p.sinks))
	return nil
}

// timed runs one stage and records its wall time.
func (p *Pipeline) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}
