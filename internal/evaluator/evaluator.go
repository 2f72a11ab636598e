// Package evaluator scores filtered series against test definitions,
// producing compliance results with optional weather correlation.
package evaluator

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/buildsense/ieqengine/internal/comfort"
	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
	"github.com/buildsense/ieqengine/internal/weather"
)

// Input carries everything one evaluation needs. Series must already be
// reduced to in-scope samples by the temporal filter.
type Input struct {
	Series      domain.TimeSeries
	Test        config.TestDefinition
	Ventilation domain.VentilationType

	// RunningMeans enables the adaptive comfort model for temperature range
	// tests under natural/mixed ventilation: per-day running-mean outdoor
	// temperatures. Nil disables the model.
	RunningMeans map[domain.CivilDate]float64

	// Climate enables the weather side channel: correlations and
	// violation-period statistics. Nil disables it.
	Climate weather.ClimateSeries
}

// Outcome is the explicit result variant of an evaluation: exactly one of
// Result and Skip is set.
type Outcome struct {
	Result *domain.ComplianceResult
	Skip   *domain.SkippedTest
}

// Skipped reports whether the evaluation produced no result.
func (o Outcome) Skipped() bool { return o.Skip != nil }

// Evaluator scores series against tests. Safe for concurrent use.
type Evaluator struct {
	tables  config.ComfortTables
	weather *weather.Analyzer
}

// New creates an evaluator using the given comfort tables and weather
// analyzer. The analyzer may be nil when no climate data will be supplied.
func New(tables config.ComfortTables, analyzer *weather.Analyzer) *Evaluator {
	return &Evaluator{tables: tables, weather: analyzer}
}

// Evaluate scores one test. Missing samples are excluded from every count;
// a series with no valid samples yields a skip, never a 0% result.
func (e *Evaluator) Evaluate(in Input) Outcome {
	adaptive := e.adaptiveApplies(in)

	var (
		validTimes []time.Time
		violation  []bool
		values     []float64
		compliant  int
	)

	for i, t := range in.Series.Timestamps {
		v := in.Series.Values[i]
		if math.IsNaN(v) {
			continue
		}
		ok := e.sampleCompliant(v, t, in, adaptive)
		validTimes = append(validTimes, t)
		violation = append(violation, !ok)
		values = append(values, v)
		if ok {
			compliant++
		}
	}

	total := len(values)
	if total == 0 {
		return Outcome{Skip: &domain.SkippedTest{
			TestID: in.Test.ID,
			Reason: domain.SkipNoValidSamples,
		}}
	}

	rate := float64(compliant) / float64(total) * 100

	result := &domain.ComplianceResult{
		TestID:              in.Test.ID,
		Parameter:           in.Test.Parameter,
		Category:            in.Test.Category,
		ComplianceRate:      rate,
		TotalSamples:        total,
		CompliantSamples:    compliant,
		NonCompliantSamples: total - compliant,
		Threshold:           thresholdSpec(in.Test, adaptive),
		Severity:            domain.SeverityForRate(rate),
		Stats:               describe(values),
	}

	if e.weather != nil && len(in.Climate) > 0 && result.NonCompliantSamples > 0 {
		result.WeatherCorrelations = e.weather.Correlate(validTimes, violation, in.Climate)
		result.WeatherDuringViolations = e.weather.StatsDuring(validTimes, violation, in.Climate)
	}

	return Outcome{Result: result}
}

// adaptiveApplies gates the adaptive comfort model: temperature range tests
// in naturally or mixed-mode ventilated rooms with outdoor history available.
func (e *Evaluator) adaptiveApplies(in Input) bool {
	return in.Test.Parameter == domain.ParamTemperature &&
		in.Test.Mode == domain.ModeRange &&
		in.Ventilation.Adaptive() &&
		len(in.RunningMeans) > 0
}

func (e *Evaluator) sampleCompliant(v float64, t time.Time, in Input, adaptive bool) bool {
	min, max := in.Test.Min, in.Test.Max

	if adaptive {
		if trm, ok := in.RunningMeans[domain.DateOf(t)]; ok {
			band := comfort.Thresholds(trm, in.Test.Category, e.tables)
			min, max = band.Lower, band.Upper
		}
		// Days without a running mean keep the configured fixed bounds.
	}

	switch in.Test.Mode {
	case domain.ModeAscending:
		return v <= in.Test.Threshold
	case domain.ModeDescending:
		return v >= in.Test.Threshold
	default: // range
		return v >= min && v <= max
	}
}

func thresholdSpec(t config.TestDefinition, adaptive bool) domain.ThresholdSpec {
	spec := domain.ThresholdSpec{Mode: t.Mode, Adaptive: adaptive}
	switch t.Mode {
	case domain.ModeRange:
		spec.Min = t.Min
		spec.Max = t.Max
	default:
		spec.Value = t.Threshold
	}
	return spec
}

func describe(values []float64) domain.DescriptiveStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	std := 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	return domain.DescriptiveStats{
		Mean:   stat.Mean(values, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Std:    std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Count:  len(values),
	}
}
