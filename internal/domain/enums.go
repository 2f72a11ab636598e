package domain

import "fmt"

// Parameter identifies a measured indoor-environment quantity.
type Parameter string

const (
	ParamTemperature Parameter = "temperature"
	ParamCO2         Parameter = "co2"
	ParamHumidity    Parameter = "humidity"
	ParamIlluminance Parameter = "illuminance"
	ParamRadon       Parameter = "radon"
	ParamVOC         Parameter = "voc"
)

// Valid reports whether p is a known parameter.
func (p Parameter) Valid() bool {
	switch p {
	case ParamTemperature, ParamCO2, ParamHumidity, ParamIlluminance, ParamRadon, ParamVOC:
		return true
	}
	return false
}

// Category is a ranked compliance tier; I is strictest, IV is loosest.
type Category string

const (
	CategoryI    Category = "I"
	CategoryII   Category = "II"
	CategoryIII  Category = "III"
	CategoryIV   Category = "IV"
	CategoryNone Category = "none"
)

// CategoriesStrictestFirst lists evaluable categories in ranking order.
func CategoriesStrictestFirst() []Category {
	return []Category{CategoryI, CategoryII, CategoryIII, CategoryIV}
}

// Valid reports whether c is an evaluable category (CategoryNone is not).
func (c Category) Valid() bool {
	switch c {
	case CategoryI, CategoryII, CategoryIII, CategoryIV:
		return true
	}
	return false
}

// StricterThan reports whether c outranks other (I outranks II, etc.).
func (c Category) StricterThan(other Category) bool {
	return c.rank() < other.rank()
}

func (c Category) rank() int {
	switch c {
	case CategoryI:
		return 1
	case CategoryII:
		return 2
	case CategoryIII:
		return 3
	case CategoryIV:
		return 4
	default:
		return 5
	}
}

// Mode selects how a sample is compared against a test threshold.
type Mode string

const (
	// ModeAscending passes while the value stays at or below the threshold (pollutants).
	ModeAscending Mode = "ascending"
	// ModeDescending passes while the value stays at or above the threshold (e.g. illuminance).
	ModeDescending Mode = "descending"
	// ModeRange passes while the value stays inside [min, max].
	ModeRange Mode = "range"
)

// Valid reports whether m is a known evaluation mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAscending, ModeDescending, ModeRange:
		return true
	}
	return false
}

// VentilationType describes how a room is ventilated. Natural and mixed-mode
// rooms qualify for the adaptive comfort model on temperature tests.
type VentilationType string

const (
	VentMechanical VentilationType = "mechanical"
	VentNatural    VentilationType = "natural"
	VentMixed      VentilationType = "mixed"
)

// Adaptive reports whether the adaptive comfort model applies to this
// ventilation type.
func (v VentilationType) Adaptive() bool {
	return v == VentNatural || v == VentMixed
}

// Season names the half-year a fixed comfort band belongs to.
type Season string

const (
	SeasonHeating Season = "heating"
	SeasonCooling Season = "cooling"
)

// Severity grades how far a compliance rate fell short.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityForRate maps a compliance rate (0-100) to its severity band.
func SeverityForRate(rate float64) Severity {
	switch {
	case rate >= 95:
		return SeverityInfo
	case rate >= 85:
		return SeverityLow
	case rate >= 70:
		return SeverityMedium
	case rate >= 50:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Status summarizes how much of an aggregation node could be computed.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// SkipReason explains why a test produced no ComplianceResult.
type SkipReason string

const (
	// SkipMissingParameter: the room has no series for the test's parameter.
	SkipMissingParameter SkipReason = "missing_parameter"
	// SkipEmptyFilter: filter plus period left no in-scope timestamps.
	SkipEmptyFilter SkipReason = "empty_filter_result"
	// SkipNoValidSamples: in-scope timestamps exist but every value is missing.
	SkipNoValidSamples SkipReason = "no_valid_samples"
	// SkipBadConfiguration: the test references an unknown filter, period or parameter.
	SkipBadConfiguration SkipReason = "bad_configuration"
)

func (r SkipReason) String() string { return string(r) }

// ParseCategory converts a configuration string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return CategoryNone, fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
