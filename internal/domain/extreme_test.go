package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectWavesExplicitThreshold(t *testing.T) {
	start := day(2024, 1, 1)

	t.Run("single heat wave", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(10), fptr(10), fptr(31), fptr(32), fptr(33), fptr(10), fptr(10)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      HeatWave,
			MinRun:    3,
			Threshold: fptr(30),
		})
		require.NoError(t, err)
		require.Len(t, events, 1)

		event := events[0]
		assert.Equal(t, HeatWave, event.Kind)
		assert.Equal(t, day(2024, 1, 3), event.StartDate)
		assert.Equal(t, day(2024, 1, 5), event.EndDate)
		assert.Equal(t, 3, event.DurationDays)
		assert.InDelta(t, 33, event.ExtremeValue, 1e-9)
		assert.InDelta(t, 32, event.MeanValue, 1e-9)
	})

	t.Run("run shorter than minimum is discarded", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(10), fptr(31), fptr(32), fptr(10), fptr(11), fptr(12), fptr(10)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      HeatWave,
			MinRun:    3,
			Threshold: fptr(30),
		})
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("equality does not qualify", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(30), fptr(30), fptr(30), fptr(30), fptr(30)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      HeatWave,
			MinRun:    3,
			Threshold: fptr(30),
		})
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("null day breaks a run", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(31), fptr(32), nil, fptr(31), fptr(32), fptr(33), fptr(10)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      HeatWave,
			MinRun:    3,
			Threshold: fptr(30),
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, day(2024, 1, 4), events[0].StartDate)
		assert.Equal(t, day(2024, 1, 6), events[0].EndDate)
	})

	t.Run("open run at end of input is dropped by default", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(10), fptr(10), fptr(31), fptr(32), fptr(33)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      HeatWave,
			MinRun:    3,
			Threshold: fptr(30),
		})
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("open run flushed on request", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(10), fptr(10), fptr(31), fptr(32), fptr(33)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:         HeatWave,
			MinRun:       3,
			Threshold:    fptr(30),
			FlushOpenRun: true,
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, day(2024, 1, 3), events[0].StartDate)
		assert.Equal(t, day(2024, 1, 5), events[0].EndDate)
	})

	t.Run("cold wave takes the minimum as extreme", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(10), fptr(2), fptr(1), fptr(3), fptr(10), fptr(10)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      ColdWave,
			MinRun:    3,
			Threshold: fptr(5),
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, ColdWave, events[0].Kind)
		assert.InDelta(t, 1, events[0].ExtremeValue, 1e-9)
		assert.InDelta(t, 2, events[0].MeanValue, 1e-9)
		assert.Equal(t, 3, events[0].DurationDays)
	})

	t.Run("multiple events stay ordered and disjoint", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(31), fptr(32), fptr(33), fptr(10), fptr(34), fptr(35), fptr(36), fptr(31), fptr(10), fptr(10)})

		events, err := DetectWaves(daily, DetectorParams{
			Kind:      HeatWave,
			MinRun:    3,
			Threshold: fptr(30),
		})
		require.NoError(t, err)
		require.Len(t, events, 2)

		for i := 1; i < len(events); i++ {
			assert.True(t, events[i-1].EndDate.Before(events[i].StartDate),
				"event %d overlaps event %d", i-1, i)
			assert.False(t, events[i].StartDate.Before(events[i-1].StartDate))
		}
		assert.Equal(t, 3, events[0].DurationDays)
		assert.Equal(t, 4, events[1].DurationDays)
		assert.InDelta(t, 36, events[1].ExtremeValue, 1e-9)
	})
}

func TestDetectWavesPercentileThreshold(t *testing.T) {
	start := day(2024, 1, 1)

	t.Run("heat threshold from the whole series", func(t *testing.T) {
		// 36 mild days then four hot ones: the 90th percentile of all
		// 40 values lands on the mild plateau, so every hot day
		// qualifies.
		values := make([]*float64, 0, 40)
		for i := 0; i < 36; i++ {
			values = append(values, fptr(20))
		}
		values = append(values, fptr(31), fptr(32), fptr(33), fptr(34))
		daily := dailySeries(VarTemperature, start, values)

		events, err := DetectWaves(daily, DetectorParams{Kind: HeatWave, FlushOpenRun: true})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, 4, events[0].DurationDays)
		assert.InDelta(t, 34, events[0].ExtremeValue, 1e-9)
		assert.InDelta(t, 32.5, events[0].MeanValue, 1e-9)
	})

	t.Run("cold threshold from the whole series", func(t *testing.T) {
		values := []*float64{fptr(9), fptr(8), fptr(7), fptr(6)}
		for i := 0; i < 36; i++ {
			values = append(values, fptr(20))
		}
		daily := dailySeries(VarTemperature, start, values)

		events, err := DetectWaves(daily, DetectorParams{Kind: ColdWave})
		require.NoError(t, err)
		require.Len(t, events, 1)
		// The 10th percentile is 9, so the run is 8, 7, 6.
		assert.Equal(t, day(2024, 1, 2), events[0].StartDate)
		assert.Equal(t, day(2024, 1, 4), events[0].EndDate)
		assert.InDelta(t, 6, events[0].ExtremeValue, 1e-9)
	})

	t.Run("five usable days clear the history bar for both kinds", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start,
			[]*float64{fptr(5), fptr(20), fptr(20), fptr(20), fptr(20)})

		for _, kind := range []WaveKind{HeatWave, ColdWave} {
			events, err := DetectWaves(daily, DetectorParams{Kind: kind})
			require.NoError(t, err, kind)
			assert.Empty(t, events, kind)
		}
	})
}

func TestDetectWavesErrors(t *testing.T) {
	start := day(2024, 1, 1)

	t.Run("no usable days", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start, []*float64{nil, nil, nil, nil, nil, nil})
		_, err := DetectWaves(daily, DetectorParams{Kind: HeatWave})
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("too few usable days", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start, []*float64{fptr(31), fptr(32), nil, fptr(33), fptr(34)})
		_, err := DetectWaves(daily, DetectorParams{Kind: HeatWave, Threshold: fptr(30)})
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("unknown kind", func(t *testing.T) {
		daily := dailySeries(VarTemperature, start, []*float64{fptr(1), fptr(2), fptr(3), fptr(4), fptr(5)})
		_, err := DetectWaves(daily, DetectorParams{Kind: WaveKind("warm")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown kind")
	})
}
