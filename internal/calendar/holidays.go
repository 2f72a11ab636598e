// Package calendar resolves public holidays and custom closure dates for the
// temporal filter's holiday exclusion.
package calendar

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"

	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
)

// HolidaySource answers "is this day excluded" questions from a regional
// public-holiday calendar plus arbitrary custom date ranges resolved to
// individual days. It is read-only after construction.
type HolidaySource struct {
	cal     *cal.Calendar
	closure map[domain.CivilDate]bool
}

// NewHolidaySource builds a source for the given ISO region code and custom
// closure ranges. Unknown regions are rejected rather than silently passing
// every day through.
func NewHolidaySource(region string, closures []config.DateRange) (*HolidaySource, error) {
	holidays, err := regionalHolidays(region)
	if err != nil {
		return nil, err
	}

	c := &cal.Calendar{Name: region}
	c.AddHoliday(holidays...)

	closure := make(map[domain.CivilDate]bool)
	for _, r := range closures {
		from, to, err := r.Resolve()
		if err != nil {
			return nil, err
		}
		for d := domain.DateOf(from); !domain.DateOf(to).Before(d); d = d.Next() {
			closure[d] = true
		}
	}

	return &HolidaySource{cal: c, closure: closure}, nil
}

func regionalHolidays(region string) ([]*cal.Holiday, error) {
	switch region {
	case "DE":
		return de.Holidays, nil
	case "GB", "UK":
		return gb.Holidays, nil
	case "US":
		return us.Holidays, nil
	default:
		return nil, fmt.Errorf("unsupported holiday region %q", region)
	}
}

// IsHoliday reports whether t falls on a public holiday or inside a custom
// closure range.
func (h *HolidaySource) IsHoliday(t time.Time) bool {
	if h.closure[domain.DateOf(t)] {
		return true
	}
	actual, observed, _ := h.cal.IsHoliday(t)
	return actual || observed
}
