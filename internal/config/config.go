// Package config holds the immutable run configuration: test, filter and
// period definitions plus the fixed comfort tables. It is loaded once at
// startup and passed by reference into every component.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/buildsense/ieqengine/internal/domain"
)

// TestDefinition describes one threshold test against one parameter.
type TestDefinition struct {
	ID          string           `yaml:"id"`
	Parameter   domain.Parameter `yaml:"parameter"`
	Mode        domain.Mode      `yaml:"mode"`
	Threshold   float64          `yaml:"threshold,omitempty"` // ascending/descending
	Min         float64          `yaml:"min,omitempty"`       // range
	Max         float64          `yaml:"max,omitempty"`       // range
	Filter      string           `yaml:"filter"`
	Period      string           `yaml:"period"`
	Category    domain.Category  `yaml:"category"`
	Description string           `yaml:"description,omitempty"`
}

// DateRange is a closed interval of civil dates (custom closure periods).
type DateRange struct {
	From string `yaml:"from"` // YYYY-MM-DD
	To   string `yaml:"to"`   // YYYY-MM-DD
}

// Resolve parses the range bounds. To may equal From for a single day.
func (r DateRange) Resolve() (from, to time.Time, err error) {
	from, err = time.Parse("2006-01-02", r.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad range start %q: %w", r.From, err)
	}
	to, err = time.Parse("2006-01-02", r.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad range end %q: %w", r.To, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end %s before start %s", r.To, r.From)
	}
	return from, to, nil
}

// FilterDefinition restricts which timestamps of a series are in scope.
// An empty Hours list means all hours are allowed.
type FilterDefinition struct {
	Hours           []int       `yaml:"hours,omitempty"` // allowed hours of day, 0-23
	WeekdaysOnly    bool        `yaml:"weekdays_only,omitempty"`
	WeekendsOnly    bool        `yaml:"weekends_only,omitempty"`
	ExcludeHolidays bool        `yaml:"exclude_holidays,omitempty"`
	CustomClosures  []DateRange `yaml:"custom_closures,omitempty"`
}

// PeriodDefinition restricts evaluation to a set of months, typically a
// heating or cooling season. An empty Months list means all months.
type PeriodDefinition struct {
	Months []time.Month  `yaml:"months,omitempty"`
	Season domain.Season `yaml:"season,omitempty"`
}

// Settings are the engine-wide tunables.
type Settings struct {
	// CategoryPassRate is the compliance rate a test must reach for its
	// category to count as passed (percent).
	CategoryPassRate float64 `yaml:"category_pass_rate"`
	// RankingSize is N for best-N/worst-N rankings.
	RankingSize int `yaml:"ranking_size"`
	// Issue roll-up caps by aggregation level.
	LevelIssueCap     int `yaml:"level_issue_cap"`
	BuildingIssueCap  int `yaml:"building_issue_cap"`
	PortfolioIssueCap int `yaml:"portfolio_issue_cap"`
	// AlignmentTolerance bounds nearest-timestamp climate alignment.
	AlignmentTolerance time.Duration `yaml:"alignment_tolerance"`
	// HolidayRegion selects the public-holiday calendar (ISO country code).
	HolidayRegion string `yaml:"holiday_region"`
	// Workers bounds the room evaluation pool; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// Config is the complete, immutable run configuration.
type Config struct {
	Version  string                      `yaml:"version"`
	Tests    []TestDefinition            `yaml:"tests"`
	Filters  map[string]FilterDefinition `yaml:"filters"`
	Periods  map[string]PeriodDefinition `yaml:"periods"`
	Comfort  ComfortTables               `yaml:"comfort"`
	Settings Settings                    `yaml:"settings"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration: standard category thresholds
// for office-type spaces, office-hours filter, heating/cooling periods.
func Default() *Config {
	return &Config{
		Version: "builtin",
		Tests:   defaultTests(),
		Filters: map[string]FilterDefinition{
			"occupied_hours": {
				Hours:           []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17},
				WeekdaysOnly:    true,
				ExcludeHolidays: true,
			},
			"all_hours": {},
		},
		Periods: map[string]PeriodDefinition{
			"heating_season": {
				Months: []time.Month{time.October, time.November, time.December, time.January, time.February, time.March, time.April},
				Season: domain.SeasonHeating,
			},
			"cooling_season": {
				Months: []time.Month{time.May, time.June, time.July, time.August, time.September},
				Season: domain.SeasonCooling,
			},
			"whole_year": {},
		},
		Comfort:  DefaultComfortTables(),
		Settings: defaultSettings(),
	}
}

func defaultSettings() Settings {
	return Settings{
		CategoryPassRate:   95.0,
		RankingSize:        3,
		LevelIssueCap:      10,
		BuildingIssueCap:   15,
		PortfolioIssueCap:  20,
		AlignmentTolerance: time.Hour,
		HolidayRegion:      "DE",
		Workers:            0,
	}
}

// defaultTests covers temperature, CO2 and humidity at all four categories,
// the usual certification baseline.
func defaultTests() []TestDefinition {
	tests := []TestDefinition{}

	co2 := map[domain.Category]float64{
		domain.CategoryI:   950,
		domain.CategoryII:  1200,
		domain.CategoryIII: 1750,
		domain.CategoryIV:  2100,
	}
	for _, cat := range domain.CategoriesStrictestFirst() {
		tests = append(tests, TestDefinition{
			ID:          fmt.Sprintf("co2_cat_%s", cat),
			Parameter:   domain.ParamCO2,
			Mode:        domain.ModeAscending,
			Threshold:   co2[cat],
			Filter:      "occupied_hours",
			Period:      "whole_year",
			Category:    cat,
			Description: fmt.Sprintf("CO2 concentration below category %s limit", cat),
		})
	}

	humidity := map[domain.Category][2]float64{
		domain.CategoryI:   {30, 50},
		domain.CategoryII:  {25, 60},
		domain.CategoryIII: {20, 70},
		domain.CategoryIV:  {15, 80},
	}
	for _, cat := range domain.CategoriesStrictestFirst() {
		b := humidity[cat]
		tests = append(tests, TestDefinition{
			ID:          fmt.Sprintf("humidity_cat_%s", cat),
			Parameter:   domain.ParamHumidity,
			Mode:        domain.ModeRange,
			Min:         b[0],
			Max:         b[1],
			Filter:      "occupied_hours",
			Period:      "whole_year",
			Category:    cat,
			Description: fmt.Sprintf("Relative humidity within category %s band", cat),
		})
	}

	temp := DefaultComfortTables()
	for _, cat := range domain.CategoriesStrictestFirst() {
		heat := temp.Band(cat, domain.SeasonHeating)
		cool := temp.Band(cat, domain.SeasonCooling)
		tests = append(tests,
			TestDefinition{
				ID:          fmt.Sprintf("temp_heating_cat_%s", cat),
				Parameter:   domain.ParamTemperature,
				Mode:        domain.ModeRange,
				Min:         heat.Lower,
				Max:         heat.Upper,
				Filter:      "occupied_hours",
				Period:      "heating_season",
				Category:    cat,
				Description: fmt.Sprintf("Operative temperature within category %s heating band", cat),
			},
			TestDefinition{
				ID:          fmt.Sprintf("temp_cooling_cat_%s", cat),
				Parameter:   domain.ParamTemperature,
				Mode:        domain.ModeRange,
				Min:         cool.Lower,
				Max:         cool.Upper,
				Filter:      "occupied_hours",
				Period:      "cooling_season",
				Category:    cat,
				Description: fmt.Sprintf("Operative temperature within category %s cooling band", cat),
			},
		)
	}

	return tests
}

// Validate checks internal consistency: every test must reference a known
// filter, period, parameter and category, and thresholds must be coherent.
func (c *Config) Validate() error {
	if len(c.Tests) == 0 {
		return fmt.Errorf("no tests defined")
	}
	seen := map[string]bool{}
	for _, t := range c.Tests {
		if t.ID == "" {
			return fmt.Errorf("test with empty id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate test id %q", t.ID)
		}
		seen[t.ID] = true
		if !t.Parameter.Valid() {
			return fmt.Errorf("test %s: unknown parameter %q", t.ID, t.Parameter)
		}
		if !t.Mode.Valid() {
			return fmt.Errorf("test %s: unknown mode %q", t.ID, t.Mode)
		}
		if !t.Category.Valid() {
			return fmt.Errorf("test %s: unknown category %q", t.ID, t.Category)
		}
		if _, ok := c.Filters[t.Filter]; !ok {
			return fmt.Errorf("test %s: unknown filter %q", t.ID, t.Filter)
		}
		if _, ok := c.Periods[t.Period]; !ok {
			return fmt.Errorf("test %s: unknown period %q", t.ID, t.Period)
		}
		if t.Mode == domain.ModeRange && t.Max < t.Min {
			return fmt.Errorf("test %s: range max %.2f below min %.2f", t.ID, t.Max, t.Min)
		}
	}
	for name, f := range c.Filters {
		if f.WeekdaysOnly && f.WeekendsOnly {
			return fmt.Errorf("filter %s: weekdays_only and weekends_only are mutually exclusive", name)
		}
		for _, h := range f.Hours {
			if h < 0 || h > 23 {
				return fmt.Errorf("filter %s: hour %d out of range 0-23", name, h)
			}
		}
		for _, r := range f.CustomClosures {
			if _, _, err := r.Resolve(); err != nil {
				return fmt.Errorf("filter %s: %w", name, err)
			}
		}
	}
	for name, p := range c.Periods {
		for _, m := range p.Months {
			if m < time.January || m > time.December {
				return fmt.Errorf("period %s: month %d out of range", name, m)
			}
		}
	}
	if err := c.Comfort.validate(); err != nil {
		return err
	}
	s := c.Settings
	if s.CategoryPassRate <= 0 || s.CategoryPassRate > 100 {
		return fmt.Errorf("category_pass_rate %.1f must be in (0, 100]", s.CategoryPassRate)
	}
	if s.RankingSize < 1 {
		return fmt.Errorf("ranking_size %d must be at least 1", s.RankingSize)
	}
	return nil
}

// TestByID returns a test definition by id.
func (c *Config) TestByID(id string) (TestDefinition, bool) {
	for _, t := range c.Tests {
		if t.ID == id {
			return t, true
		}
	}
	return TestDefinition{}, false
}
