// Package comfort implements the adaptive thermal comfort model: running-mean
// outdoor temperature and the category bands derived from it.
package comfort

import (
	"errors"
	"math"

	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
)

// DefaultAlpha is the standard smoothing constant of the running mean.
const DefaultAlpha = 0.8

// maxHistoryDays caps how far back the exponential weighting reaches.
const maxHistoryDays = 30

// minExponentialDays is the history length below which the running mean
// degrades to a plain arithmetic mean. The switch is numerically
// discontinuous at the boundary; the behavior is kept as specified.
const minExponentialDays = 7

// ErrNoHistory is returned when no daily means are available at all.
var ErrNoHistory = errors.New("no daily means supplied")

// RunningMean computes the exponentially weighted running-mean outdoor
// temperature from daily means ordered most-recent-first. With fewer than
// seven values it returns their arithmetic mean.
func RunningMean(dailyMeans []float64, alpha float64) (float64, error) {
	if len(dailyMeans) == 0 {
		return 0, ErrNoHistory
	}
	if len(dailyMeans) < minExponentialDays {
		sum := 0.0
		for _, v := range dailyMeans {
			sum += v
		}
		return sum / float64(len(dailyMeans)), nil
	}

	n := len(dailyMeans)
	if n > maxHistoryDays {
		n = maxHistoryDays
	}
	var num, den float64
	for i := 0; i < n; i++ {
		w := (1 - alpha) * math.Pow(alpha, float64(i))
		num += w * dailyMeans[i]
		den += w
	}
	return num / den, nil
}

// Validity window of the adaptive model; outside it the fixed tables apply.
const (
	adaptiveMinTrm = 10.0
	adaptiveMaxTrm = 30.0
)

// Thresholds returns the acceptable operative-temperature band for a running
// mean tRM and category. Inside the model's validity window the band follows
// comfort = 0.33*tRM + 18.8 with the category's deviation; outside it the
// fixed heating (tRM < 15) or cooling (tRM >= 15) table applies.
func Thresholds(tRM float64, cat domain.Category, tables config.ComfortTables) config.Band {
	if tRM < adaptiveMinTrm || tRM > adaptiveMaxTrm {
		season := domain.SeasonCooling
		if tRM < 15 {
			season = domain.SeasonHeating
		}
		return tables.Band(cat, season)
	}
	design := 0.33*tRM + 18.8
	dev := tables.Deviation(cat)
	return config.Band{
		Lower:  design - dev,
		Upper:  design + dev,
		Design: design,
	}
}

// DailyRunningMeans derives a per-day running mean from an outdoor series:
// for every day that has at least one preceding daily mean, the running mean
// over the preceding days (most-recent-first, capped at 30) is computed.
// Days without history are absent from the result.
func DailyRunningMeans(outdoor domain.TimeSeries, alpha float64) map[domain.CivilDate]float64 {
	daily := outdoor.DailyMeans() // most-recent-first
	if len(daily) == 0 {
		return nil
	}

	// Oldest-first for the sweep.
	asc := make([]domain.DailyMean, len(daily))
	for i, d := range daily {
		asc[len(daily)-1-i] = d
	}

	out := make(map[domain.CivilDate]float64, len(asc))
	for i := 1; i < len(asc); i++ {
		// History for day i: days before it, most recent first.
		history := make([]float64, 0, i)
		for j := i - 1; j >= 0 && len(history) < maxHistoryDays; j-- {
			history = append(history, asc[j].Mean)
		}
		trm, err := RunningMean(history, alpha)
		if err != nil {
			continue
		}
		out[asc[i].Date] = trm
	}
	return out
}
