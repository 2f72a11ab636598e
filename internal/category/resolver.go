// Package category resolves a room's achieved standard category from its
// per-test compliance results.
package category

import (
	"github.com/buildsense/ieqengine/internal/domain"
)

// Resolution is the full verdict: the achieved category plus the
// per-category breakdown that produced it.
type Resolution struct {
	Achieved  domain.Category
	Breakdown map[domain.Category]domain.CategoryOutcome
	// OverallRate is the ungated mean over all scored tests; it is reported
	// independently of category achievement.
	OverallRate float64
}

// Resolver applies the worst-parameter-wins rule: a category is compliant
// only when every test declared for it passes.
type Resolver struct {
	// PassRate is the compliance rate a test must reach (percent).
	PassRate float64
}

// NewResolver creates a resolver with the given pass threshold.
func NewResolver(passRate float64) *Resolver {
	if passRate <= 0 {
		passRate = 95.0
	}
	return &Resolver{PassRate: passRate}
}

// Resolve walks categories strictest-first and returns the strictest one
// whose declared tests all pass. Categories are evaluated independently:
// a category with no declared tests is not evaluable, which neither blocks
// nor satisfies any other category. No compliant category means achieved =
// none.
func (r *Resolver) Resolve(results map[string]domain.ComplianceResult) Resolution {
	res := Resolution{
		Achieved:    domain.CategoryNone,
		Breakdown:   make(map[domain.Category]domain.CategoryOutcome, 4),
		OverallRate: overallRate(results),
	}

	for _, cat := range domain.CategoriesStrictestFirst() {
		outcome := r.evaluateCategory(cat, results)
		res.Breakdown[cat] = outcome
		if outcome == domain.CategoryCompliant && res.Achieved == domain.CategoryNone {
			res.Achieved = cat
		}
	}
	return res
}

func (r *Resolver) evaluateCategory(cat domain.Category, results map[string]domain.ComplianceResult) domain.CategoryOutcome {
	declared := 0
	for _, cr := range results {
		if cr.Category != cat {
			continue
		}
		declared++
		if cr.ComplianceRate < r.PassRate {
			return domain.CategoryFailed
		}
	}
	if declared == 0 {
		return domain.CategoryNotEvaluable
	}
	return domain.CategoryCompliant
}

// overallRate is the plain mean of all test compliance rates.
func overallRate(results map[string]domain.ComplianceResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, cr := range results {
		sum += cr.ComplianceRate
	}
	return sum / float64(len(results))
}
