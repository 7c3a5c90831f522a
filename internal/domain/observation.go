package domain

import (
	"iter"
	"slices"
	"time"
)

// Observation is one export row after normalization. A nil value means the
// station did not report that variable for the hour; Timestamp is nil when
// the row's date/hour pair could not be parsed. Observations are never
// mutated once built.
type Observation struct {
	Timestamp *time.Time
	Values    map[VariableID]*float64
}

// IngestStats counts the row-level recoveries seen while an export was
// turned into a TimeSeries. Feeds logs and metrics; not an analysis
// product.
type IngestStats struct {
	RowsTotal       int
	NullTimestamps  int
	MalformedValues int
}

// TimeSeries is the ordered observation store every analysis stage reads
// from. Build one with NewTimeSeries; it is sorted once and read-only
// afterwards, so derived products never see a moving target.
type TimeSeries struct {
	obs []Observation
}

// NewTimeSeries copies and sorts observations into canonical order:
// ascending by timestamp, stable for duplicate timestamps, rows with a null
// timestamp after all timestamped rows in their original relative order.
func NewTimeSeries(obs []Observation) *TimeSeries {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	slices.SortStableFunc(sorted, func(a, b Observation) int {
		switch {
		case a.Timestamp == nil && b.Timestamp == nil:
			return 0
		case a.Timestamp == nil:
			return 1
		case b.Timestamp == nil:
			return -1
		default:
			return a.Timestamp.Compare(*b.Timestamp)
		}
	})
	return &TimeSeries{obs: sorted}
}

// Len reports the number of observations, null-timestamp rows included.
func (ts *TimeSeries) Len() int {
	return len(ts.obs)
}

// At returns the observation at index i in canonical order.
func (ts *TimeSeries) At(i int) Observation {
	return ts.obs[i]
}

// Range returns the observations whose timestamp falls in the closed
// interval [from, to]. Null-timestamp rows never match.
func (ts *TimeSeries) Range(from, to time.Time) []Observation {
	var out []Observation
	for _, o := range ts.obs[:ts.timestampedLen()] {
		if o.Timestamp.Before(from) {
			continue
		}
		if o.Timestamp.After(to) {
			break
		}
		out = append(out, o)
	}
	return out
}

// Variable yields (timestamp, value) pairs for one variable in series
// order, skipping null values and null-timestamp rows.
func (ts *TimeSeries) Variable(id VariableID) iter.Seq2[time.Time, float64] {
	return func(yield func(time.Time, float64) bool) {
		for _, o := range ts.obs[:ts.timestampedLen()] {
			v := o.Values[id]
			if v == nil {
				continue
			}
			if !yield(*o.Timestamp, *v) {
				return
			}
		}
	}
}

// Span reports the first and last observation dates (midnight UTC) over
// rows with a timestamp. ok is false when no row has one.
func (ts *TimeSeries) Span() (first, last time.Time, ok bool) {
	n := ts.timestampedLen()
	if n == 0 {
		return time.Time{}, time.Time{}, false
	}
	return dateOf(*ts.obs[0].Timestamp), dateOf(*ts.obs[n-1].Timestamp), true
}

// Variables returns every VariableID present in any observation, sorted.
func (ts *TimeSeries) Variables() []VariableID {
	seen := make(map[VariableID]struct{})
	for _, o := range ts.obs {
		for id := range o.Values {
			seen[id] = struct{}{}
		}
	}
	out := make([]VariableID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// timestampedLen reports how many leading rows carry a timestamp. Null rows
// sort last, so this is also the offset of the first null row.
func (ts *TimeSeries) timestampedLen() int {
	i := len(ts.obs)
	for i > 0 && ts.obs[i-1].Timestamp == nil {
		i--
	}
	return i
}

// dateOf truncates an instant to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
