// Package weather correlates compliance violations with external climate
// factors and summarizes those factors over violation periods.
package weather

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/buildsense/ieqengine/internal/domain"
)

// ClimateSeries maps a factor name (outdoor_temperature, solar_radiation,
// wind_speed, ...) to its time series.
type ClimateSeries map[string]domain.TimeSeries

// Analyzer aligns climate factors to indoor timestamps and computes
// violation-period statistics and point-biserial correlations.
type Analyzer struct {
	// Tolerance bounds the nearest-timestamp alignment; pairs further apart
	// are treated as unaligned.
	Tolerance time.Duration
}

// NewAnalyzer creates an analyzer with the given alignment tolerance.
func NewAnalyzer(tolerance time.Duration) *Analyzer {
	if tolerance <= 0 {
		tolerance = time.Hour
	}
	return &Analyzer{Tolerance: tolerance}
}

// Correlate computes the point-biserial correlation between the binarized
// violation indicator and each climate factor, aligned by nearest timestamp.
// Factors with degenerate variance or too few aligned points are omitted;
// a factor's failure never affects the others.
func (a *Analyzer) Correlate(timestamps []time.Time, violation []bool, climate ClimateSeries) map[string]float64 {
	if len(timestamps) == 0 || len(climate) == 0 {
		return nil
	}
	out := map[string]float64{}
	for factor, series := range climate {
		aligned := a.Align(timestamps, series)

		var xs, ys []float64
		for i, v := range aligned {
			if math.IsNaN(v) {
				continue
			}
			indicator := 0.0
			if i < len(violation) && violation[i] {
				indicator = 1.0
			}
			xs = append(xs, indicator)
			ys = append(ys, v)
		}
		if len(xs) < 3 {
			continue
		}
		if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
			continue
		}
		r := stat.Correlation(xs, ys, nil)
		if math.IsNaN(r) {
			continue
		}
		out[factor] = r
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StatsDuring summarizes each climate factor over the timestamps where mask
// is true. Factors without aligned values are omitted.
func (a *Analyzer) StatsDuring(timestamps []time.Time, mask []bool, climate ClimateSeries) []domain.FactorStats {
	if len(timestamps) == 0 || len(climate) == 0 {
		return nil
	}

	factors := make([]string, 0, len(climate))
	for f := range climate {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	var out []domain.FactorStats
	for _, factor := range factors {
		aligned := a.Align(timestamps, climate[factor])
		var vals []float64
		for i, v := range aligned {
			if i < len(mask) && mask[i] && !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		out = append(out, describe(factor, vals))
	}
	return out
}

// Compare returns side-by-side statistics for violation timestamps and their
// complement.
func (a *Analyzer) Compare(timestamps []time.Time, violation []bool, climate ClimateSeries) (during, complement []domain.FactorStats) {
	inverse := make([]bool, len(violation))
	for i, v := range violation {
		inverse[i] = !v
	}
	return a.StatsDuring(timestamps, violation, climate), a.StatsDuring(timestamps, inverse, climate)
}

// Align resolves, for every target timestamp, the nearest climate sample
// within the tolerance. Unmatched or missing positions are NaN.
func (a *Analyzer) Align(targets []time.Time, series domain.TimeSeries) []float64 {
	out := make([]float64, len(targets))
	for i, t := range targets {
		out[i] = nearestWithin(t, series, a.Tolerance)
	}
	return out
}

func nearestWithin(t time.Time, series domain.TimeSeries, tol time.Duration) float64 {
	n := series.Len()
	if n == 0 {
		return math.NaN()
	}
	// Timestamps are ascending; binary search for the insertion point.
	idx := sort.Search(n, func(i int) bool { return !series.Timestamps[i].Before(t) })

	best := math.NaN()
	bestDist := tol + 1
	for _, j := range []int{idx - 1, idx} {
		if j < 0 || j >= n {
			continue
		}
		d := absDuration(series.Timestamps[j].Sub(t))
		if d <= tol && d < bestDist && !math.IsNaN(series.Values[j]) {
			best = series.Values[j]
			bestDist = d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func describe(factor string, vals []float64) domain.FactorStats {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	std := 0.0
	if len(vals) > 1 {
		std = stat.StdDev(vals, nil)
	}
	return domain.FactorStats{
		Factor: factor,
		Mean:   stat.Mean(vals, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Std:    std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Count:  len(vals),
	}
}
