package config

import (
	"fmt"

	"github.com/buildsense/ieqengine/internal/domain"
)

// Band is an acceptable operative-temperature interval with its design value.
type Band struct {
	Lower  float64 `yaml:"lower"`
	Upper  float64 `yaml:"upper"`
	Design float64 `yaml:"design"`
}

// SeasonBands holds one category's fixed heating and cooling bands.
type SeasonBands struct {
	Heating Band `yaml:"heating"`
	Cooling Band `yaml:"cooling"`
}

// ComfortTables are the fixed operative-temperature tables used when the
// adaptive model does not apply or its running mean falls outside the model's
// validity window.
type ComfortTables struct {
	CategoryI   SeasonBands `yaml:"category_i"`
	CategoryII  SeasonBands `yaml:"category_ii"`
	CategoryIII SeasonBands `yaml:"category_iii"`
	CategoryIV  SeasonBands `yaml:"category_iv"`

	// Adaptive deviation (+/- degC around the comfort temperature) per category.
	AdaptiveDeviation map[domain.Category]float64 `yaml:"adaptive_deviation"`
}

// DefaultComfortTables returns the standard office-space tables.
func DefaultComfortTables() ComfortTables {
	return ComfortTables{
		CategoryI: SeasonBands{
			Heating: Band{Lower: 21.0, Upper: 23.0, Design: 22.0},
			Cooling: Band{Lower: 23.5, Upper: 25.5, Design: 24.5},
		},
		CategoryII: SeasonBands{
			Heating: Band{Lower: 20.0, Upper: 24.0, Design: 22.0},
			Cooling: Band{Lower: 23.0, Upper: 26.0, Design: 24.5},
		},
		CategoryIII: SeasonBands{
			Heating: Band{Lower: 19.0, Upper: 25.0, Design: 22.0},
			Cooling: Band{Lower: 22.0, Upper: 27.0, Design: 24.5},
		},
		CategoryIV: SeasonBands{
			Heating: Band{Lower: 17.0, Upper: 25.0, Design: 21.0},
			Cooling: Band{Lower: 21.0, Upper: 28.0, Design: 24.5},
		},
		AdaptiveDeviation: map[domain.Category]float64{
			domain.CategoryI:   2.0,
			domain.CategoryII:  3.0,
			domain.CategoryIII: 4.0,
			domain.CategoryIV:  5.0,
		},
	}
}

// Band returns the fixed band for a category and season.
func (t ComfortTables) Band(cat domain.Category, season domain.Season) Band {
	var b SeasonBands
	switch cat {
	case domain.CategoryI:
		b = t.CategoryI
	case domain.CategoryII:
		b = t.CategoryII
	case domain.CategoryIII:
		b = t.CategoryIII
	default:
		b = t.CategoryIV
	}
	if season == domain.SeasonHeating {
		return b.Heating
	}
	return b.Cooling
}

// Deviation returns the adaptive half-band width for a category.
func (t ComfortTables) Deviation(cat domain.Category) float64 {
	if d, ok := t.AdaptiveDeviation[cat]; ok {
		return d
	}
	return DefaultComfortTables().AdaptiveDeviation[cat]
}

func (t ComfortTables) validate() error {
	for _, cat := range domain.CategoriesStrictestFirst() {
		for _, season := range []domain.Season{domain.SeasonHeating, domain.SeasonCooling} {
			b := t.Band(cat, season)
			if b.Upper < b.Lower {
				return fmt.Errorf("comfort table %s/%s: upper %.1f below lower %.1f", cat, season, b.Upper, b.Lower)
			}
		}
		if t.Deviation(cat) <= 0 {
			return fmt.Errorf("comfort table: non-positive adaptive deviation for category %s", cat)
		}
	}
	return nil
}
