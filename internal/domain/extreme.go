package domain

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// WaveKind selects the exceedance direction of a wave scan.
type WaveKind string

// Wave kinds.
const (
	HeatWave WaveKind = "heat"
	ColdWave WaveKind = "cold"
)

// Detector tuning defaults. The percentiles follow the climatological
// convention: heat waves run above the 90th percentile of daily means,
// cold waves below the 10th.
const (
	DefaultHeatPercentile = 90.0
	DefaultColdPercentile = 10.0
	DefaultMinRun         = 3

	// minDetectorHistory is the fewest non-null days a series needs
	// before percentile thresholds mean anything.
	minDetectorHistory = 5
)

// DetectorParams tunes one wave scan. Zero Percentile and MinRun fall back
// to the kind's defaults. A non-nil Threshold is used verbatim and
// Percentile is ignored. FlushOpenRun also emits a run still open at the
// end of input; the default drops it, counting only completed runs.
type DetectorParams struct {
	Kind         WaveKind
	Percentile   float64
	MinRun       int
	Threshold    *float64
	FlushOpenRun bool
}

// ExtremeEvent is one sustained exceedance run found by DetectWaves.
// ExtremeValue is the hottest day of a heat wave or the coldest of a cold
// wave; MeanValue is the arithmetic mean over the run.
type ExtremeEvent struct {
	Kind         WaveKind
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	ExtremeValue float64
	MeanValue    float64
}

// DetectWaves scans a daily series for runs of at least MinRun consecutive
// days strictly beyond the threshold: above for heat, below for cold.
// Equality never qualifies. The threshold is the configured percentile of
// every non-null value in the input, computed once before the scan, unless
// an explicit Threshold bypasses it. A null day always breaks the current
// run; the day after a break may immediately start a new one. Returned
// events are chronological and never overlap.
//
// A series with no non-null days is ErrEmptyInput; fewer than five is
// ErrInsufficientHistory. Both are distinct from a clean scan that finds
// zero events.
func DetectWaves(daily []DailyAggregate, p DetectorParams) ([]ExtremeEvent, error) {
	if p.Kind != HeatWave && p.Kind != ColdWave {
		return nil, fmt.Errorf("detect waves: unknown kind %q", string(p.Kind))
	}
	if p.MinRun <= 0 {
		p.MinRun = DefaultMinRun
	}
	if p.Percentile <= 0 {
		p.Percentile = DefaultHeatPercentile
		if p.Kind == ColdWave {
			p.Percentile = DefaultColdPercentile
		}
	}

	values := make([]float64, 0, len(daily))
	for _, agg := range daily {
		if agg.Value != nil {
			values = append(values, *agg.Value)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("detect %s waves: %w", p.Kind, ErrEmptyInput)
	}
	if len(values) < minDetectorHistory {
		return nil, fmt.Errorf("detect %s waves: %d usable days: %w", p.Kind, len(values), ErrInsufficientHistory)
	}

	var threshold float64
	if p.Threshold != nil {
		threshold = *p.Threshold
	} else {
		// Nearest-rank stays defined down to the five day minimum, where
		// interpolating percentiles would reject a low percent outright.
		t, err := stats.PercentileNearestRank(values, p.Percentile)
		if err != nil {
			return nil, fmt.Errorf("detect %s waves: percentile %v: %w", p.Kind, p.Percentile, err)
		}
		threshold = t
	}

	qualifies := func(v float64) bool {
		if p.Kind == ColdWave {
			return v < threshold
		}
		return v > threshold
	}

	var (
		events []ExtremeEvent
		run    []float64
		start  int
		end    int
	)
	flush := func() error {
		defer func() { run = nil }()
		if len(run) < p.MinRun {
			return nil
		}
		event, err := newExtremeEvent(p.Kind, daily[start].Date, daily[end].Date, run)
		if err != nil {
			return err
		}
		events = append(events, event)
		return nil
	}

	for i, agg := range daily {
		if agg.Value != nil && qualifies(*agg.Value) {
			if len(run) == 0 {
				start = i
			}
			run = append(run, *agg.Value)
			end = i
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if p.FlushOpenRun {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// newExtremeEvent folds a completed run into its summary row.
func newExtremeEvent(kind WaveKind, startDate, endDate time.Time, run []float64) (ExtremeEvent, error) {
	extreme, err := stats.Max(run)
	if kind == ColdWave {
		extreme, err = stats.Min(run)
	}
	if err != nil {
		return ExtremeEvent{}, fmt.Errorf("extreme of run: %w", err)
	}
	mean, err := stats.Mean(run)
	if err != nil {
		return ExtremeEvent{}, fmt.Errorf("mean of run: %w", err)
	}
	return ExtremeEvent{
		Kind:         kind,
		StartDate:    startDate,
		EndDate:      endDate,
		DurationDays: len(run),
		ExtremeValue: extreme,
		MeanValue:    mean,
	}, nil
}
