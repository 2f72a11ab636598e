package domain

import (
	"math"
	"sort"
	"time"
)

// TimeSeries is an immutable time-indexed series of float64 samples.
// Timestamps are ascending and parallel to Values; missing samples are
// stored as NaN so gaps keep their timestamps.
type TimeSeries struct {
	Timestamps []time.Time
	Values     []float64
}

// NewTimeSeries builds a series from parallel slices, sorting both by
// timestamp. Slices of unequal length are truncated to the shorter one.
func NewTimeSeries(ts []time.Time, values []float64) TimeSeries {
	n := len(ts)
	if len(values) < n {
		n = len(values)
	}
	type pair struct {
		t time.Time
		v float64
	}
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = pair{ts[i], values[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].t.Before(pairs[j].t) })

	out := TimeSeries{
		Timestamps: make([]time.Time, n),
		Values:     make([]float64, n),
	}
	for i, p := range pairs {
		out.Timestamps[i] = p.t
		out.Values[i] = p.v
	}
	return out
}

// Len returns the number of samples, including missing ones.
func (s TimeSeries) Len() int { return len(s.Timestamps) }

// Select returns the subset of samples where mask is true. The mask must be
// the same length as the series.
func (s TimeSeries) Select(mask []bool) TimeSeries {
	out := TimeSeries{}
	for i := range s.Timestamps {
		if i < len(mask) && mask[i] {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
			out.Values = append(out.Values, s.Values[i])
		}
	}
	return out
}

// ValidCount returns the number of non-missing samples.
func (s TimeSeries) ValidCount() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// ValidValues returns the non-missing values in timestamp order.
func (s TimeSeries) ValidValues() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Bounds returns the first and last timestamp, or zero times when empty.
func (s TimeSeries) Bounds() (start, end time.Time) {
	if len(s.Timestamps) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Timestamps[0], s.Timestamps[len(s.Timestamps)-1]
}

// Completeness returns the valid-sample fraction in percent (0-100).
// An empty series reports 0.
func (s TimeSeries) Completeness() float64 {
	if s.Len() == 0 {
		return 0
	}
	return float64(s.ValidCount()) / float64(s.Len()) * 100
}

// DailyMeans reduces the series to one arithmetic mean per civil day
// (in the timestamps' own locations), ordered most-recent-first. Days with
// no valid samples are dropped.
func (s TimeSeries) DailyMeans() []DailyMean {
	type acc struct {
		sum float64
		n   int
	}
	byDay := map[CivilDate]*acc{}
	for i, t := range s.Timestamps {
		v := s.Values[i]
		if math.IsNaN(v) {
			continue
		}
		d := DateOf(t)
		a := byDay[d]
		if a == nil {
			a = &acc{}
			byDay[d] = a
		}
		a.sum += v
		a.n++
	}
	out := make([]DailyMean, 0, len(byDay))
	for d, a := range byDay {
		out = append(out, DailyMean{Date: d, Mean: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out
}

// DailyMean is one day's arithmetic mean of a series.
type DailyMean struct {
	Date CivilDate
	Mean float64
}

// CivilDate is a calendar date without time-of-day or zone.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the civil date of t in t's own location.
func DateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// Before reports chronological order between two dates.
func (d CivilDate) Before(other CivilDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Next returns the following calendar day.
func (d CivilDate) Next() CivilDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return DateOf(t)
}

func (d CivilDate) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}
