package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh int) *time.Time {
	t := time.Date(y, m, d, hh, 0, 0, 0, time.UTC)
	return &t
}

// seriesOf builds a single-variable series with hourly observations
// starting at start. Nil entries become null values on a valid timestamp.
func seriesOf(id VariableID, start time.Time, values []*float64) *TimeSeries {
	obs := make([]Observation, len(values))
	for i, v := range values {
		ts := start.Add(time.Duration(i) * time.Hour)
		obs[i] = Observation{Timestamp: &ts, Values: map[VariableID]*float64{id: v}}
	}
	return NewTimeSeries(obs)
}

// dailySeries builds a daily mean sequence starting at start, nils kept.
func dailySeries(id VariableID, start time.Time, values []*float64) []DailyAggregate {
	out := make([]DailyAggregate, len(values))
	for i, v := range values {
		out[i] = DailyAggregate{Date: start.AddDate(0, 0, i), Variable: id, Reducer: ReduceMean, Value: v}
	}
	return out
}

func TestNewTimeSeriesOrdering(t *testing.T) {
	obs := []Observation{
		{Timestamp: nil, Values: map[VariableID]*float64{VarTemperature: fptr(1)}},
		{Timestamp: at(2024, 3, 2, 12), Values: map[VariableID]*float64{VarTemperature: fptr(2)}},
		{Timestamp: at(2024, 3, 1, 0), Values: map[VariableID]*float64{VarTemperature: fptr(3)}},
		{Timestamp: at(2024, 3, 1, 0), Values: map[VariableID]*float64{VarTemperature: fptr(4)}},
		{Timestamp: nil, Values: map[VariableID]*float64{VarTemperature: fptr(5)}},
	}
	series := NewTimeSeries(obs)

	require.Equal(t, 5, series.Len())

	// Timestamped rows first, ascending; the two 03-01 duplicates keep
	// their input order; null timestamps last, also in input order.
	assert.Equal(t, 3.0, *series.At(0).Values[VarTemperature])
	assert.Equal(t, 4.0, *series.At(1).Values[VarTemperature])
	assert.Equal(t, 2.0, *series.At(2).Values[VarTemperature])
	assert.Nil(t, series.At(3).Timestamp)
	assert.Equal(t, 1.0, *series.At(3).Values[VarTemperature])
	assert.Nil(t, series.At(4).Timestamp)
	assert.Equal(t, 5.0, *series.At(4).Values[VarTemperature])

	// The input slice is untouched.
	assert.Nil(t, obs[0].Timestamp)
}

func TestTimeSeriesRange(t *testing.T) {
	series := NewTimeSeries([]Observation{
		{Timestamp: at(2024, 3, 1, 0), Values: map[VariableID]*float64{VarTemperature: fptr(1)}},
		{Timestamp: at(2024, 3, 1, 12), Values: map[VariableID]*float64{VarTemperature: fptr(2)}},
		{Timestamp: at(2024, 3, 2, 0), Values: map[VariableID]*float64{VarTemperature: fptr(3)}},
		{Timestamp: nil, Values: map[VariableID]*float64{VarTemperature: fptr(4)}},
	})

	got := series.Range(*at(2024, 3, 1, 12), *at(2024, 3, 2, 0))
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, *got[0].Values[VarTemperature])
	assert.Equal(t, 3.0, *got[1].Values[VarTemperature])

	assert.Empty(t, series.Range(*at(2024, 3, 3, 0), *at(2024, 3, 4, 0)))
}

func TestTimeSeriesVariable(t *testing.T) {
	series := NewTimeSeries([]Observation{
		{Timestamp: at(2024, 3, 1, 0), Values: map[VariableID]*float64{VarTemperature: fptr(20)}},
		{Timestamp: at(2024, 3, 1, 1), Values: map[VariableID]*float64{VarTemperature: nil}},
		{Timestamp: at(2024, 3, 1, 2), Values: map[VariableID]*float64{VarHumidity: fptr(80)}},
		{Timestamp: nil, Values: map[VariableID]*float64{VarTemperature: fptr(99)}},
		{Timestamp: at(2024, 3, 1, 3), Values: map[VariableID]*float64{VarTemperature: fptr(22)}},
	})

	var times []time.Time
	var values []float64
	for ts, v := range series.Variable(VarTemperature) {
		times = append(times, ts)
		values = append(values, v)
	}

	assert.Equal(t, []float64{20, 22}, values)
	assert.Equal(t, []time.Time{*at(2024, 3, 1, 0), *at(2024, 3, 1, 3)}, times)
}

func TestTimeSeriesSpan(t *testing.T) {
	t.Run("dates from first and last timestamped rows", func(t *testing.T) {
		series := NewTimeSeries([]Observation{
			{Timestamp: at(2024, 3, 5, 23)},
			{Timestamp: at(2024, 3, 1, 7)},
			{Timestamp: nil},
		})
		first, last, ok := series.Span()
		require.True(t, ok)
		assert.Equal(t, day(2024, 3, 1), first)
		assert.Equal(t, day(2024, 3, 5), last)
	})

	t.Run("no timestamped rows", func(t *testing.T) {
		series := NewTimeSeries([]Observation{{Timestamp: nil}, {Timestamp: nil}})
		_, _, ok := series.Span()
		assert.False(t, ok)
	})
}

func TestTimeSeriesVariables(t *testing.T) {
	series := NewTimeSeries([]Observation{
		{Timestamp: at(2024, 3, 1, 0), Values: map[VariableID]*float64{VarHumidity: fptr(80), VarTemperature: fptr(20)}},
		{Timestamp: at(2024, 3, 1, 1), Values: map[VariableID]*float64{VarPrecipitation: nil}},
	})

	assert.Equal(t, []VariableID{VarPrecipitation, VarTemperature, VarHumidity}, series.Variables())
}
