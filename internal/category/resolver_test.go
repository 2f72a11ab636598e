package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildsense/ieqengine/internal/domain"
)

func result(testID string, cat domain.Category, rate float64) domain.ComplianceResult {
	return domain.ComplianceResult{
		TestID:         testID,
		Category:       cat,
		ComplianceRate: rate,
	}
}

func TestResolve_FullyCompliantRoomAchievesCategoryI(t *testing.T) {
	r := NewResolver(95)
	results := map[string]domain.ComplianceResult{
		"temp_I":     result("temp_I", domain.CategoryI, 100),
		"co2_I":      result("co2_I", domain.CategoryI, 100),
		"humidity_I": result("humidity_I", domain.CategoryI, 100),
	}

	res := r.Resolve(results)
	assert.Equal(t, domain.CategoryI, res.Achieved)
	assert.InDelta(t, 100.0, res.OverallRate, 1e-9)
	assert.Equal(t, domain.CategoryCompliant, res.Breakdown[domain.CategoryI])
}

func TestResolve_WorstParameterWins(t *testing.T) {
	// Temperature passes category I, CO2 only category III: categories I and
	// II both require the CO2 compliance that is absent, so III wins.
	r := NewResolver(95)
	results := map[string]domain.ComplianceResult{
		"temp_I":   result("temp_I", domain.CategoryI, 100),
		"co2_I":    result("co2_I", domain.CategoryI, 40),
		"co2_II":   result("co2_II", domain.CategoryII, 70),
		"temp_III": result("temp_III", domain.CategoryIII, 100),
		"co2_III":  result("co2_III", domain.CategoryIII, 98),
	}

	res := r.Resolve(results)
	assert.Equal(t, domain.CategoryIII, res.Achieved)
	assert.Equal(t, domain.CategoryFailed, res.Breakdown[domain.CategoryI])
	assert.Equal(t, domain.CategoryFailed, res.Breakdown[domain.CategoryII])
	assert.Equal(t, domain.CategoryCompliant, res.Breakdown[domain.CategoryIII])
}

func TestResolve_TwoTestCaseOverallRate(t *testing.T) {
	// High temperature compliance plus a failed CO2 test: no category is
	// achieved, yet the ungated mean reports 50%.
	r := NewResolver(95)
	results := map[string]domain.ComplianceResult{
		"temp_I": result("temp_I", domain.CategoryI, 100),
		"co2_I":  result("co2_I", domain.CategoryI, 0),
	}

	res := r.Resolve(results)
	assert.Equal(t, domain.CategoryNone, res.Achieved)
	assert.InDelta(t, 50.0, res.OverallRate, 1e-9)
}

func TestResolve_UndeclaredCategoryIsNotEvaluable(t *testing.T) {
	// Only category II has tests: I, III and IV are not evaluable and must
	// not block II.
	r := NewResolver(95)
	results := map[string]domain.ComplianceResult{
		"temp_II": result("temp_II", domain.CategoryII, 97),
		"co2_II":  result("co2_II", domain.CategoryII, 96),
	}

	res := r.Resolve(results)
	assert.Equal(t, domain.CategoryII, res.Achieved)
	assert.Equal(t, domain.CategoryNotEvaluable, res.Breakdown[domain.CategoryI])
	assert.Equal(t, domain.CategoryNotEvaluable, res.Breakdown[domain.CategoryIII])
	assert.Equal(t, domain.CategoryNotEvaluable, res.Breakdown[domain.CategoryIV])
}

func TestResolve_CategoriesEvaluatedIndependently(t *testing.T) {
	// Data passing category I's declared tests also passes the looser bands
	// declared for II-IV on the same data; every tier must come out
	// compliant on its own, not by inheritance.
	r := NewResolver(95)
	results := map[string]domain.ComplianceResult{}
	for _, cat := range domain.CategoriesStrictestFirst() {
		results["temp_"+string(cat)] = result("temp_"+string(cat), cat, 99)
	}

	res := r.Resolve(results)
	assert.Equal(t, domain.CategoryI, res.Achieved)
	for _, cat := range domain.CategoriesStrictestFirst() {
		assert.Equal(t, domain.CategoryCompliant, res.Breakdown[cat], "category %s", cat)
	}
}

func TestResolve_PassThresholdBoundary(t *testing.T) {
	r := NewResolver(95)

	atThreshold := r.Resolve(map[string]domain.ComplianceResult{
		"co2_I": result("co2_I", domain.CategoryI, 95),
	})
	assert.Equal(t, domain.CategoryI, atThreshold.Achieved)

	below := r.Resolve(map[string]domain.ComplianceResult{
		"co2_I": result("co2_I", domain.CategoryI, 94.99),
	})
	assert.Equal(t, domain.CategoryNone, below.Achieved)
}

func TestResolve_NoResults(t *testing.T) {
	r := NewResolver(95)
	res := r.Resolve(nil)
	assert.Equal(t, domain.CategoryNone, res.Achieved)
	assert.Zero(t, res.OverallRate)
	for _, cat := range domain.CategoriesStrictestFirst() {
		assert.Equal(t, domain.CategoryNotEvaluable, res.Breakdown[cat])
	}
}
