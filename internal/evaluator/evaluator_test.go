package evaluator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
	"github.com/buildsense/ieqengine/internal/weather"
)

func newTestEvaluator() *Evaluator {
	return New(config.DefaultComfortTables(), weather.NewAnalyzer(time.Hour))
}

func series(start time.Time, values ...float64) domain.TimeSeries {
	ts := make([]time.Time, len(values))
	for i := range values {
		ts[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return domain.NewTimeSeries(ts, values)
}

var t0 = time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)

func TestEvaluate_AscendingMode(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "co2_cat_II",
		Parameter: domain.ParamCO2,
		Mode:      domain.ModeAscending,
		Threshold: 1200,
		Category:  domain.CategoryII,
	}

	out := e.Evaluate(Input{
		Series: series(t0, 800, 1000, 1200, 1300, 1500),
		Test:   test,
	})
	require.False(t, out.Skipped())

	r := out.Result
	assert.Equal(t, 5, r.TotalSamples)
	assert.Equal(t, 3, r.CompliantSamples) // threshold itself is compliant
	assert.Equal(t, 2, r.NonCompliantSamples)
	assert.InDelta(t, 60.0, r.ComplianceRate, 1e-9)
	assert.Equal(t, domain.SeverityHigh, r.Severity)
}

func TestEvaluate_DescendingMode(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "lux_min",
		Parameter: domain.ParamIlluminance,
		Mode:      domain.ModeDescending,
		Threshold: 500,
	}

	out := e.Evaluate(Input{Series: series(t0, 400, 500, 600, 700), Test: test})
	require.False(t, out.Skipped())
	assert.Equal(t, 3, out.Result.CompliantSamples)
	assert.InDelta(t, 75.0, out.Result.ComplianceRate, 1e-9)
}

func TestEvaluate_RangeMode(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "humidity_cat_II",
		Parameter: domain.ParamHumidity,
		Mode:      domain.ModeRange,
		Min:       25,
		Max:       60,
	}

	out := e.Evaluate(Input{Series: series(t0, 20, 25, 40, 60, 65), Test: test})
	require.False(t, out.Skipped())
	assert.Equal(t, 3, out.Result.CompliantSamples)
	assert.Equal(t, 2, out.Result.NonCompliantSamples)
}

func TestEvaluate_MissingSamplesExcludedFromCounts(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "co2",
		Parameter: domain.ParamCO2,
		Mode:      domain.ModeAscending,
		Threshold: 1000,
	}

	clean := e.Evaluate(Input{Series: series(t0, 900, 950, 1100, 1200), Test: test})
	withGaps := e.Evaluate(Input{
		Series: series(t0, 900, math.NaN(), 950, math.NaN(), 1100, 1200, math.NaN()),
		Test:   test,
	})
	require.False(t, clean.Skipped())
	require.False(t, withGaps.Skipped())

	// Gaps change nothing about the valid-sample verdicts.
	assert.Equal(t, clean.Result.CompliantSamples, withGaps.Result.CompliantSamples)
	assert.Equal(t, clean.Result.NonCompliantSamples, withGaps.Result.NonCompliantSamples)
	assert.Equal(t, clean.Result.TotalSamples, withGaps.Result.TotalSamples)
	assert.Equal(t, clean.Result.Severity, withGaps.Result.Severity)
	assert.Equal(t,
		clean.Result.TotalSamples,
		clean.Result.CompliantSamples+clean.Result.NonCompliantSamples)
}

func TestEvaluate_AllMissingIsSkipNotZero(t *testing.T) {
	e := newTestEvaluator()
	out := e.Evaluate(Input{
		Series: series(t0, math.NaN(), math.NaN()),
		Test:   config.TestDefinition{ID: "co2", Parameter: domain.ParamCO2, Mode: domain.ModeAscending, Threshold: 1000},
	})
	require.True(t, out.Skipped())
	assert.Equal(t, domain.SkipNoValidSamples, out.Skip.Reason)
}

func TestEvaluate_SeverityBands(t *testing.T) {
	cases := []struct {
		rate     float64
		expected domain.Severity
	}{
		{100, domain.SeverityInfo},
		{95, domain.SeverityInfo},
		{90, domain.SeverityLow},
		{80, domain.SeverityMedium},
		{60, domain.SeverityHigh},
		{40, domain.SeverityCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, domain.SeverityForRate(tc.rate), "rate %.0f", tc.rate)
	}
}

func TestEvaluate_AdaptiveBandReplacesFixedRange(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "temp_adaptive",
		Parameter: domain.ParamTemperature,
		Mode:      domain.ModeRange,
		Min:       20,
		Max:       24,
		Category:  domain.CategoryII,
	}

	// Running mean 18.0 -> band [21.74, 27.74]; 26.5 fails the fixed range
	// but passes the adaptive band.
	day := domain.DateOf(t0)
	indoor := series(t0, 26.5, 26.5, 26.5)

	fixed := e.Evaluate(Input{Series: indoor, Test: test, Ventilation: domain.VentMechanical})
	adaptive := e.Evaluate(Input{
		Series:       indoor,
		Test:         test,
		Ventilation:  domain.VentNatural,
		RunningMeans: map[domain.CivilDate]float64{day: 18.0},
	})
	require.False(t, fixed.Skipped())
	require.False(t, adaptive.Skipped())

	assert.InDelta(t, 0.0, fixed.Result.ComplianceRate, 1e-9)
	assert.InDelta(t, 100.0, adaptive.Result.ComplianceRate, 1e-9)
	assert.True(t, adaptive.Result.Threshold.Adaptive)
	assert.False(t, fixed.Result.Threshold.Adaptive)
}

func TestEvaluate_AdaptiveIgnoredForMechanicalVentilation(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "temp",
		Parameter: domain.ParamTemperature,
		Mode:      domain.ModeRange,
		Min:       20,
		Max:       24,
		Category:  domain.CategoryII,
	}
	out := e.Evaluate(Input{
		Series:       series(t0, 26.5),
		Test:         test,
		Ventilation:  domain.VentMechanical,
		RunningMeans: map[domain.CivilDate]float64{domain.DateOf(t0): 18.0},
	})
	require.False(t, out.Skipped())
	assert.InDelta(t, 0.0, out.Result.ComplianceRate, 1e-9)
}

func TestEvaluate_WeatherCorrelationOnViolations(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "temp_cooling",
		Parameter: domain.ParamTemperature,
		Mode:      domain.ModeRange,
		Min:       20,
		Max:       26,
	}

	// Indoor overheating tracks outdoor temperature.
	indoor := series(t0, 22, 23, 24, 27, 28, 29)
	outdoor := series(t0, 15, 16, 17, 30, 32, 33)
	climate := weather.ClimateSeries{"outdoor_temperature": outdoor}

	out := e.Evaluate(Input{Series: indoor, Test: test, Climate: climate})
	require.False(t, out.Skipped())

	r := out.Result
	require.Contains(t, r.WeatherCorrelations, "outdoor_temperature")
	assert.Greater(t, r.WeatherCorrelations["outdoor_temperature"], 0.8)

	require.Len(t, r.WeatherDuringViolations, 1)
	vs := r.WeatherDuringViolations[0]
	assert.Equal(t, "outdoor_temperature", vs.Factor)
	assert.Equal(t, 3, vs.Count)
	assert.InDelta(t, 30.0, vs.Min, 1e-9)
	assert.InDelta(t, 33.0, vs.Max, 1e-9)
}

func TestEvaluate_NoViolationsSkipsWeatherSideChannel(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "temp",
		Parameter: domain.ParamTemperature,
		Mode:      domain.ModeRange,
		Min:       20,
		Max:       26,
	}
	climate := weather.ClimateSeries{"outdoor_temperature": series(t0, 15, 16, 17)}

	out := e.Evaluate(Input{Series: series(t0, 22, 23, 24), Test: test, Climate: climate})
	require.False(t, out.Skipped())
	assert.Nil(t, out.Result.WeatherCorrelations)
	assert.Nil(t, out.Result.WeatherDuringViolations)
}

func TestEvaluate_DegenerateFactorOmittedNotFatal(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "temp",
		Parameter: domain.ParamTemperature,
		Mode:      domain.ModeRange,
		Min:       20,
		Max:       26,
	}
	climate := weather.ClimateSeries{
		"constant":            series(t0, 5, 5, 5, 5, 5, 5),
		"outdoor_temperature": series(t0, 15, 16, 17, 30, 32, 33),
	}

	out := e.Evaluate(Input{Series: series(t0, 22, 23, 24, 27, 28, 29), Test: test, Climate: climate})
	require.False(t, out.Skipped())

	assert.NotContains(t, out.Result.WeatherCorrelations, "constant")
	assert.Contains(t, out.Result.WeatherCorrelations, "outdoor_temperature")
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "co2",
		Parameter: domain.ParamCO2,
		Mode:      domain.ModeAscending,
		Threshold: 1000,
	}
	in := Input{Series: series(t0, 900, 950, 1100, 1200, math.NaN(), 1000), Test: test}

	first := e.Evaluate(in)
	second := e.Evaluate(in)
	require.False(t, first.Skipped())
	assert.Equal(t, first.Result, second.Result)
}

func TestEvaluate_RateRoundTripsToCompliantCount(t *testing.T) {
	e := newTestEvaluator()
	test := config.TestDefinition{
		ID:        "co2",
		Parameter: domain.ParamCO2,
		Mode:      domain.ModeAscending,
		Threshold: 1000,
	}
	out := e.Evaluate(Input{Series: series(t0, 900, 950, 1100, 1200, 980, 1010, 800), Test: test})
	require.False(t, out.Skipped())

	r := out.Result
	back := r.ComplianceRate * float64(r.TotalSamples) / 100
	assert.InDelta(t, float64(r.CompliantSamples), back, 0.01)
}
