package domain

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// Window restricts an extraction to one calendar month and a closed range
// of UTC clock hours, the "March, 09h to 15h" style drill-down of the
// station reports. Month 0 matches every month.
type Window struct {
	Month    time.Month
	HourFrom int
	HourTo   int
}

// Validate checks the window bounds and names the offending field.
func (w Window) Validate() error {
	if w.Month < 0 || w.Month > 12 {
		return fmt.Errorf("window: month %d out of range", w.Month)
	}
	if w.HourFrom < 0 || w.HourFrom > 23 {
		return fmt.Errorf("window: hour_from %d out of range", w.HourFrom)
	}
	if w.HourTo < w.HourFrom || w.HourTo > 23 {
		return fmt.Errorf("window: hour_to %d not in [hour_from, 23]", w.HourTo)
	}
	return nil
}

// Contains reports whether the instant falls inside the window. Both hour
// bounds are inclusive.
func (w Window) Contains(t time.Time) bool {
	if w.Month != 0 && t.Month() != w.Month {
		return false
	}
	h := t.Hour()
	return h >= w.HourFrom && h <= w.HourTo
}

// TimedValue is one (timestamp, value) sample from a windowed extraction.
type TimedValue struct {
	Timestamp time.Time
	Value     float64
}

// WindowValues extracts one variable's samples inside the window, in
// series order.
func WindowValues(series *TimeSeries, id VariableID, w Window) ([]TimedValue, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	var out []TimedValue
	for t, v := range series.Variable(id) {
		if !w.Contains(t) {
			continue
		}
		out = append(out, TimedValue{Timestamp: t, Value: v})
	}
	return out, nil
}

// DeltaStats summarizes the consecutive differences of a sample: the
// hour-over-hour variation table of the station reports.
type DeltaStats struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	Std   float64
}

// NewDeltaStats folds first differences of the values, in order, into
// summary statistics. Fewer than three samples cannot support a spread of
// deltas and return ErrInsufficientHistory.
func NewDeltaStats(values []TimedValue) (DeltaStats, error) {
	if len(values) < 3 {
		return DeltaStats{}, fmt.Errorf("delta stats: %d samples: %w", len(values), ErrInsufficientHistory)
	}

	deltas := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		deltas = append(deltas, values[i].Value-values[i-1].Value)
	}

	mean, err := stats.Mean(deltas)
	if err != nil {
		return DeltaStats{}, fmt.Errorf("delta stats: %w", err)
	}
	minDelta, err := stats.Min(deltas)
	if err != nil {
		return DeltaStats{}, fmt.Errorf("delta stats: %w", err)
	}
	maxDelta, err := stats.Max(deltas)
	if err != nil {
		return DeltaStats{}, fmt.Errorf("delta stats: %w", err)
	}
	std, err := stats.StandardDeviationSample(deltas)
	if err != nil {
		return DeltaStats{}, fmt.Errorf("delta stats: %w", err)
	}
	return DeltaStats{
		Count: len(deltas),
		Mean:  mean,
		Min:   minDelta,
		Max:   maxDelta,
		Std:   std,
	}, nil
}
