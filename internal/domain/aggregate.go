package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/montanaflynn/stats"
)

// Reducer names the statistic applied to one variable's values within a
// bucket. Choosing the reducer is caller policy: precipitation sums, air
// temperature means, gusts take the max. The aggregator itself never
// classifies variables.
type Reducer string

// Supported reducers.
const (
	ReduceSum  Reducer = "sum"
	ReduceMean Reducer = "mean"
	ReduceMin  Reducer = "min"
	ReduceMax  Reducer = "max"
)

// apply reduces a non-empty sample with the reducer's statistic.
func (r Reducer) apply(sample []float64) (float64, error) {
	switch r {
	case ReduceSum:
		return stats.Sum(sample)
	case ReduceMean:
		return stats.Mean(sample)
	case ReduceMin:
		return stats.Min(sample)
	case ReduceMax:
		return stats.Max(sample)
	default:
		return 0, fmt.Errorf("unknown reducer %q", string(r))
	}
}

// DailyAggregate is one calendar day of one reduced variable. Value is nil
// for days inside the series span with no usable observation; "no data" is
// never a computed zero.
type DailyAggregate struct {
	Date     time.Time
	Variable VariableID
	Reducer  Reducer
	Value    *float64
}

// AggregateDaily reduces one variable to a daily series covering every
// calendar day between the store's first and last observation dates,
// inclusive. Days without a non-null observation get a nil Value. A series
// with no timestamped rows at all is ErrEmptyInput.
func AggregateDaily(series *TimeSeries, id VariableID, r Reducer) ([]DailyAggregate, error) {
	first, last, ok := series.Span()
	if !ok {
		return nil, fmt.Errorf("daily %s of %s: %w", r, id, ErrEmptyInput)
	}

	byDay := make(map[time.Time][]float64)
	for t, v := range series.Variable(id) {
		day := dateOf(t)
		byDay[day] = append(byDay[day], v)
	}

	var out []DailyAggregate
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		agg := DailyAggregate{Date: day, Variable: id, Reducer: r}
		if sample := byDay[day]; len(sample) > 0 {
			v, err := r.apply(sample)
			if err != nil {
				return nil, fmt.Errorf("daily %s of %s: %w", r, id, err)
			}
			agg.Value = &v
		}
		out = append(out, agg)
	}
	return out, nil
}

// MonthlyAggregate is one calendar month of one reduced variable.
type MonthlyAggregate struct {
	Year     int
	Month    time.Month
	Variable VariableID
	Reducer  Reducer
	Value    *float64
}

// AggregateMonthly reduces one variable per calendar month across the
// series span. Months without a usable observation get a nil Value.
func AggregateMonthly(series *TimeSeries, id VariableID, r Reducer) ([]MonthlyAggregate, error) {
	first, last, ok := series.Span()
	if !ok {
		return nil, fmt.Errorf("monthly %s of %s: %w", r, id, ErrEmptyInput)
	}

	type yearMonth struct {
		year  int
		month time.Month
	}
	byMonth := make(map[yearMonth][]float64)
	for t, v := range series.Variable(id) {
		key := yearMonth{t.Year(), t.Month()}
		byMonth[key] = append(byMonth[key], v)
	}

	var out []MonthlyAggregate
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for cur := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		agg := MonthlyAggregate{Year: cur.Year(), Month: cur.Month(), Variable: id, Reducer: r}
		if sample := byMonth[yearMonth{cur.Year(), cur.Month()}]; len(sample) > 0 {
			v, err := r.apply(sample)
			if err != nil {
				return nil, fmt.Errorf("monthly %s of %s: %w", r, id, err)
			}
			agg.Value = &v
		}
		out = append(out, agg)
	}
	return out, nil
}

// HourlyProfile is the diurnal cycle of one variable: mean value per UTC
// clock hour across the whole series. Hours never observed stay nil.
type HourlyProfile struct {
	Variable VariableID
	Means    [24]*float64
}

// NewHourlyProfile buckets a variable by clock hour and averages each
// bucket.
func NewHourlyProfile(series *TimeSeries, id VariableID) (HourlyProfile, error) {
	if _, _, ok := series.Span(); !ok {
		return HourlyProfile{}, fmt.Errorf("hourly profile of %s: %w", id, ErrEmptyInput)
	}

	var buckets [24][]float64
	for t, v := range series.Variable(id) {
		buckets[t.Hour()] = append(buckets[t.Hour()], v)
	}

	profile := HourlyProfile{Variable: id}
	for h, sample := range buckets {
		if len(sample) == 0 {
			continue
		}
		m, err := stats.Mean(sample)
		if err != nil {
			return HourlyProfile{}, fmt.Errorf("hourly profile of %s: %w", id, err)
		}
		profile.Means[h] = &m
	}
	return profile, nil
}

// DailyTable pivots daily aggregate sequences sharing one date axis into a
// column-per-series table, the shape the report adapters render. Column
// ids follow "<reducer>_<variable>".
type DailyTable struct {
	Dates   []time.Time
	Columns []string
	Cells   map[string][]*float64
}

// NewDailyTable builds the pivot. Every sequence must share the first
// sequence's date axis; a mismatch is a caller bug and fails loudly.
func NewDailyTable(seqs ...[]DailyAggregate) (*DailyTable, error) {
	if len(seqs) == 0 || len(seqs[0]) == 0 {
		return nil, fmt.Errorf("daily table: %w", ErrEmptyInput)
	}

	dates := make([]time.Time, len(seqs[0]))
	for i, agg := range seqs[0] {
		dates[i] = agg.Date
	}

	t := &DailyTable{Dates: dates, Cells: make(map[string][]*float64, len(seqs))}
	for _, seq := range seqs {
		if len(seq) != len(dates) {
			return nil, fmt.Errorf("daily table: %d rows in one column, %d in another", len(seq), len(dates))
		}
		col := ColumnName(seq[0].Reducer, seq[0].Variable)
		values := make([]*float64, len(seq))
		for i, agg := range seq {
			if !agg.Date.Equal(dates[i]) {
				return nil, fmt.Errorf("daily table: column %s diverges from the date axis at row %d", col, i)
			}
			values[i] = agg.Value
		}
		t.Columns = append(t.Columns, col)
		t.Cells[col] = values
	}
	return t, nil
}

// ColumnName builds the pivot column id for a reduced variable.
func ColumnName(r Reducer, id VariableID) string {
	return fmt.Sprintf("%s_%s", r, id)
}

// RankDirection orders a TopDays ranking.
type RankDirection string

// Ranking directions.
const (
	RankLargest  RankDirection = "largest"
	RankSmallest RankDirection = "smallest"
)

// TopDays returns the n largest (or smallest) non-nil daily values, ordered
// by value and, between equal values, by date. Deterministic across runs
// over the same input.
func TopDays(daily []DailyAggregate, n int, dir RankDirection) []DailyAggregate {
	ranked := make([]DailyAggregate, 0, len(daily))
	for _, agg := range daily {
		if agg.Value != nil {
			ranked = append(ranked, agg)
		}
	}
	slices.SortStableFunc(ranked, func(a, b DailyAggregate) int {
		if c := cmp.Compare(*a.Value, *b.Value); c != 0 {
			if dir == RankSmallest {
				return c
			}
			return -c
		}
		return a.Date.Compare(b.Date)
	})
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
