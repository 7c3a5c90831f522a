package domain

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// SummaryRow is one variable's descriptive statistics over its non-null
// hourly values. Pointer fields stay nil when the sample cannot support
// the statistic (no values at all, a single value for Std and CV, a zero
// mean for CV), so the renderers never see a NaN.
type SummaryRow struct {
	Variable VariableID
	Count    int
	Mean     *float64
	Std      *float64
	CV       *float64
	Min      *float64
	Q1       *float64
	Median   *float64
	Q3       *float64
	Max      *float64
}

// Summarize computes descriptive statistics for each requested variable.
// Variables with zero usable values yield a Count 0 row with nil
// statistics rather than an error, so a sparse export still summarizes.
func Summarize(series *TimeSeries, vars []VariableID) ([]SummaryRow, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("summarize: %w", ErrEmptyInput)
	}

	rows := make([]SummaryRow, 0, len(vars))
	for _, id := range vars {
		var sample []float64
		for _, v := range series.Variable(id) {
			sample = append(sample, v)
		}
		row := SummaryRow{Variable: id, Count: len(sample)}
		if len(sample) > 0 {
			if err := row.fill(sample); err != nil {
				return nil, fmt.Errorf("summarize %s: %w", id, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// fill computes the statistics columns from a non-empty sample.
func (r *SummaryRow) fill(sample []float64) error {
	set := func(dst **float64, stat func(stats.Float64Data) (float64, error)) error {
		v, err := stat(sample)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
	if err := set(&r.Mean, stats.Mean); err != nil {
		return err
	}
	if err := set(&r.Min, stats.Min); err != nil {
		return err
	}
	if err := set(&r.Median, stats.Median); err != nil {
		return err
	}
	if err := set(&r.Max, stats.Max); err != nil {
		return err
	}
	// Sample standard deviation divides by n-1; a single value has none.
	if len(sample) > 1 {
		if err := set(&r.Std, stats.StandardDeviationSample); err != nil {
			return err
		}
	}
	// CV is undefined at a zero mean.
	if r.Std != nil && *r.Mean != 0 {
		cv := *r.Std / *r.Mean
		r.CV = &cv
	}
	// Quartile reports NaN halves on a single-value sample; keep those nil.
	q, err := stats.Quartile(sample)
	if err != nil {
		return err
	}
	if !math.IsNaN(q.Q1) {
		r.Q1 = &q.Q1
	}
	if !math.IsNaN(q.Q3) {
		r.Q3 = &q.Q3
	}
	return nil
}

// Correlation computes the Pearson correlation between two variables over
// the hours where both report a value on a valid timestamp. Fewer than
// three paired points is ErrInsufficientHistory.
func Correlation(series *TimeSeries, a, b VariableID) (float64, error) {
	var xs, ys []float64
	for i := 0; i < series.Len(); i++ {
		o := series.At(i)
		if o.Timestamp == nil {
			continue
		}
		va, vb := o.Values[a], o.Values[b]
		if va == nil || vb == nil {
			continue
		}
		xs = append(xs, *va)
		ys = append(ys, *vb)
	}
	if len(xs) < 3 {
		return 0, fmt.Errorf("correlation of %s and %s: %d paired points: %w", a, b, len(xs), ErrInsufficientHistory)
	}
	r, err := stats.Correlation(xs, ys)
	if err != nil {
		return 0, fmt.Errorf("correlation of %s and %s: %w", a, b, err)
	}
	return r, nil
}
