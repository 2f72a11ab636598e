package weather

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsense/ieqengine/internal/domain"
)

var t0 = time.Date(2024, time.July, 1, 8, 0, 0, 0, time.UTC)

func hourly(values ...float64) domain.TimeSeries {
	ts := make([]time.Time, len(values))
	for i := range values {
		ts[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return domain.NewTimeSeries(ts, values)
}

func times(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestCorrelate_PositiveAssociation(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	violation := []bool{false, false, false, true, true, true}
	climate := ClimateSeries{"outdoor_temperature": hourly(15, 16, 17, 30, 31, 32)}

	got := a.Correlate(times(6), violation, climate)
	require.Contains(t, got, "outdoor_temperature")
	assert.Greater(t, got["outdoor_temperature"], 0.9)
}

func TestCorrelate_DegenerateVarianceOmitted(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	violation := []bool{false, true, false, true}

	// Constant factor: zero variance.
	got := a.Correlate(times(4), violation, ClimateSeries{"wind_speed": hourly(3, 3, 3, 3)})
	assert.NotContains(t, got, "wind_speed")

	// Constant indicator: zero variance on the other side.
	got = a.Correlate(times(4), []bool{false, false, false, false}, ClimateSeries{"wind_speed": hourly(1, 2, 3, 4)})
	assert.NotContains(t, got, "wind_speed")
}

func TestCorrelate_InsufficientAlignedPointsOmitted(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	got := a.Correlate(times(2), []bool{false, true}, ClimateSeries{"solar_radiation": hourly(100, 500)})
	assert.Empty(t, got)
}

func TestAlign_ToleranceBound(t *testing.T) {
	a := NewAnalyzer(time.Hour)

	// Climate sample 30 minutes off: aligned. Three hours off: not.
	climate := domain.NewTimeSeries(
		[]time.Time{t0.Add(30 * time.Minute), t0.Add(5 * time.Hour)},
		[]float64{12, 99},
	)

	aligned := a.Align([]time.Time{t0, t0.Add(2 * time.Hour)}, climate)
	require.Len(t, aligned, 2)
	assert.InDelta(t, 12.0, aligned[0], 1e-9)
	assert.True(t, math.IsNaN(aligned[1]))
}

func TestAlign_PicksNearestNeighbor(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	climate := domain.NewTimeSeries(
		[]time.Time{t0.Add(-40 * time.Minute), t0.Add(10 * time.Minute)},
		[]float64{1, 2},
	)

	aligned := a.Align([]time.Time{t0}, climate)
	assert.InDelta(t, 2.0, aligned[0], 1e-9)
}

func TestStatsDuring(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	mask := []bool{false, true, true, true, false}
	climate := ClimateSeries{"solar_radiation": hourly(100, 400, 500, 600, 200)}

	got := a.StatsDuring(times(5), mask, climate)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "solar_radiation", s.Factor)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 500.0, s.Mean, 1e-9)
	assert.InDelta(t, 400.0, s.Min, 1e-9)
	assert.InDelta(t, 600.0, s.Max, 1e-9)
	assert.InDelta(t, 500.0, s.Median, 1e-9)
}

func TestStatsDuring_FactorsSortedForStableOutput(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	mask := []bool{true, true, true}
	climate := ClimateSeries{
		"wind_speed":          hourly(1, 2, 3),
		"outdoor_temperature": hourly(20, 21, 22),
		"solar_radiation":     hourly(100, 200, 300),
	}

	got := a.StatsDuring(times(3), mask, climate)
	require.Len(t, got, 3)
	assert.Equal(t, "outdoor_temperature", got[0].Factor)
	assert.Equal(t, "solar_radiation", got[1].Factor)
	assert.Equal(t, "wind_speed", got[2].Factor)
}

func TestCompare_SideBySide(t *testing.T) {
	a := NewAnalyzer(time.Hour)
	violation := []bool{false, false, true, true}
	climate := ClimateSeries{"outdoor_temperature": hourly(10, 12, 30, 32)}

	during, complement := a.Compare(times(4), violation, climate)
	require.Len(t, during, 1)
	require.Len(t, complement, 1)

	assert.InDelta(t, 31.0, during[0].Mean, 1e-9)
	assert.InDelta(t, 11.0, complement[0].Mean, 1e-9)
}

func TestStatsDuring_MissingClimateValuesSkipped(t *testing.T) {
	// Tight tolerance so the missing sample's neighbors are out of reach.
	a := NewAnalyzer(30 * time.Minute)
	mask := []bool{true, true, true}
	climate := ClimateSeries{"wind_speed": hourly(4, math.NaN(), 6)}

	got := a.StatsDuring(times(3), mask, climate)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 5.0, got[0].Mean, 1e-9)
}
