package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus counters and histograms for a batch run.
type Metrics struct {
	RowsIngested    prometheus.Counter
	NullTimestamps  prometheus.Counter
	MalformedValues prometheus.Counter

	EventsDetected *prometheus.CounterVec   // labels: kind={heat,cold}
	RunsCompleted  *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration  *prometheus.HistogramVec // labels: stage
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "rows_ingested_total",
			Help:      "Total export rows parsed into the time series.",
		}),
		NullTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "null_timestamps_total",
			Help:      "Rows whose date/hour pair could not be parsed.",
		}),
		MalformedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "malformed_values_total",
			Help:      "Non-empty numeric fields that failed to parse.",
		}),
		EventsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "events_detected_total",
			Help:      "Extreme events found, by kind.",
		}, []string{"kind"}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "runs_completed_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}

	prometheus.MustRegister(
		m.RowsIngested,
		m.NullTimestamps,
		m.MalformedValues,
		m.EventsDetected,
		m.RunsCompleted,
		m.StageDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with fresh unregistered collectors
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsIngested:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "rows_ingested_total"}),
		NullTimestamps:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "null_timestamps_total"}),
		MalformedValues: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "malformed_values_total"}),
		EventsDetected:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "events_detected_total"}, []string{"kind"}),
		RunsCompleted:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "runs_completed_total"}, []string{"outcome"}),
		StageDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
	}
}

// PushToGateway delivers the default registry to a Pushgateway, the batch
// job's substitute for being scraped. A blank URL is a no-op so runs with
// no gateway configured skip delivery.
func PushToGateway(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	return push.New(url, "station_climate_etl").
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}
