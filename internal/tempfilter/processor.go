// Package tempfilter reduces time series to the subset that is in scope for
// a test: allowed hours, weekday/weekend rules, holiday exclusion and the
// months of the evaluation period.
package tempfilter

import (
	"errors"
	"time"

	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
)

// ErrEmptyFilterResult signals that a filter+period combination left no
// in-scope timestamps. Callers record it as a deferred warning; it is never
// scored as zero compliance.
var ErrEmptyFilterResult = errors.New("filter yields no in-scope data")

// HolidayChecker is the calendar dependency; nil-safe via Processor.
type HolidayChecker interface {
	IsHoliday(t time.Time) bool
}

// Processor applies temporal filters. Safe for concurrent use; it holds only
// read-only state.
type Processor struct {
	holidays HolidayChecker
}

// NewProcessor creates a processor backed by the given holiday source.
// A nil source disables holiday exclusion.
func NewProcessor(holidays HolidayChecker) *Processor {
	return &Processor{holidays: holidays}
}

// Apply computes the in-scope mask for series under filter and period and
// returns the selected subset alongside the mask. The mask has one entry per
// sample of the input series. An empty subset returns ErrEmptyFilterResult.
func (p *Processor) Apply(series domain.TimeSeries, filter config.FilterDefinition, period config.PeriodDefinition) (domain.TimeSeries, []bool, error) {
	mask := p.Mask(series, filter, period)

	selected := series.Select(mask)
	if selected.Len() == 0 {
		return domain.TimeSeries{}, mask, ErrEmptyFilterResult
	}
	return selected, mask, nil
}

// Mask computes the in-scope mask without selecting the subset.
func (p *Processor) Mask(series domain.TimeSeries, filter config.FilterDefinition, period config.PeriodDefinition) []bool {
	hours := hourSet(filter.Hours)
	months := monthSet(period.Months)

	// Custom closures ride along even without a holiday calendar.
	closure := closureSet(filter.CustomClosures)

	mask := make([]bool, series.Len())
	for i, t := range series.Timestamps {
		if hours != nil && !hours[t.Hour()] {
			continue
		}
		if !weekdayAllowed(t, filter) {
			continue
		}
		if months != nil && !months[t.Month()] {
			continue
		}
		if filter.ExcludeHolidays {
			if closure[domain.DateOf(t)] {
				continue
			}
			if p.holidays != nil && p.holidays.IsHoliday(t) {
				continue
			}
		}
		mask[i] = true
	}
	return mask
}

func weekdayAllowed(t time.Time, filter config.FilterDefinition) bool {
	wd := t.Weekday()
	weekend := wd == time.Saturday || wd == time.Sunday
	if filter.WeekdaysOnly && weekend {
		return false
	}
	if filter.WeekendsOnly && !weekend {
		return false
	}
	return true
}

// hourSet returns nil for "all hours allowed".
func hourSet(hours []int) map[int]bool {
	if len(hours) == 0 {
		return nil
	}
	set := make(map[int]bool, len(hours))
	for _, h := range hours {
		set[h] = true
	}
	return set
}

// monthSet returns nil for "all months allowed".
func monthSet(months []time.Month) map[time.Month]bool {
	if len(months) == 0 {
		return nil
	}
	set := make(map[time.Month]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return set
}

func closureSet(ranges []config.DateRange) map[domain.CivilDate]bool {
	set := map[domain.CivilDate]bool{}
	for _, r := range ranges {
		from, to, err := r.Resolve()
		if err != nil {
			// Validated at load time; a malformed range here is skipped.
			continue
		}
		for d := domain.DateOf(from); !domain.DateOf(to).Before(d); d = d.Next() {
			set[d] = true
		}
	}
	return set
}
