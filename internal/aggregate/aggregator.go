// Package aggregate rolls analysis results up the room -> level -> building
// -> portfolio hierarchy with rankings and issue roll-up.
package aggregate

import (
	"math"
	"sort"

	"github.com/buildsense/ieqengine/internal/domain"
)

// Child is the aggregation view of one completed child analysis. Rooms,
// levels and buildings all reduce to this shape, so one reducer serves every
// tier of the hierarchy.
type Child struct {
	ID          string
	OverallRate float64
	Quality     float64
	// Evaluable is false when the child scored zero tests; such children are
	// excluded from every mean denominator, never treated as 0%.
	Evaluable bool
	// TestRates holds the child's compliance rate per test id (a room's own
	// rates, or a parent's per-test averages).
	TestRates map[string]float64

	Issues          []string
	Recommendations []string
}

// FromRoom reduces a room analysis to its aggregation view.
func FromRoom(r *domain.RoomAnalysis) Child {
	rates := make(map[string]float64, len(r.Results))
	for id, cr := range r.Results {
		rates[id] = cr.ComplianceRate
	}
	return Child{
		ID:              r.RoomID,
		OverallRate:     r.OverallComplianceRate,
		Quality:         r.DataCompleteness,
		Evaluable:       len(r.Results) > 0,
		TestRates:       rates,
		Issues:          r.Issues,
		Recommendations: r.Recommendations,
	}
}

// FromAggregate reduces a lower-tier aggregate to the view its parent needs.
func FromAggregate(a domain.AggregateAnalysis) Child {
	rates := make(map[string]float64, len(a.TestAggregates))
	for _, ta := range a.TestAggregates {
		rates[ta.TestID] = ta.AvgRate
	}
	return Child{
		ID:              a.ID,
		OverallRate:     a.AvgComplianceRate,
		Quality:         a.AvgQuality,
		Evaluable:       a.EvaluatedChildren > 0,
		TestRates:       rates,
		Issues:          a.Issues,
		Recommendations: a.Recommendations,
	}
}

// Aggregator reduces children into a parent record. Stateless and safe for
// concurrent use.
type Aggregator struct {
	// RankingSize is N for the best-N/worst-N lists.
	RankingSize int
}

// NewAggregator creates an aggregator producing rankings of the given size.
func NewAggregator(rankingSize int) *Aggregator {
	if rankingSize < 1 {
		rankingSize = 3
	}
	return &Aggregator{RankingSize: rankingSize}
}

// Aggregate reduces children plus a failed-child tally into one parent
// record. failedChildren are children whose own analysis failed; they are
// absent from children but surface in the tally and status. issueCap bounds
// the de-duplicated issue and recommendation roll-ups.
func (a *Aggregator) Aggregate(id string, children []Child, failedChildren int, issueCap int) domain.AggregateAnalysis {
	// Deterministic order throughout: children sorted by id.
	sorted := append([]Child(nil), children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := domain.AggregateAnalysis{
		ID:             id,
		FailedChildren: failedChildren,
	}
	for _, c := range sorted {
		out.ChildIDs = append(out.ChildIDs, c.ID)
	}

	evaluable := make([]Child, 0, len(sorted))
	for _, c := range sorted {
		if c.Evaluable {
			evaluable = append(evaluable, c)
		}
	}
	out.EvaluatedChildren = len(evaluable)
	out.SkippedChildren = len(sorted) - len(evaluable)

	out.Status = status(len(sorted), len(evaluable), failedChildren)
	if len(evaluable) == 0 {
		return out
	}

	var sumRate, sumQuality float64
	for _, c := range evaluable {
		sumRate += c.OverallRate
		sumQuality += c.Quality
	}
	out.AvgComplianceRate = sumRate / float64(len(evaluable))
	out.AvgQuality = sumQuality / float64(len(evaluable))

	out.TestAggregates = testTable(evaluable)
	out.Best, out.Worst = a.rank(evaluable)
	out.Issues = rollUp(evaluable, issueCap, func(c Child) []string { return c.Issues })
	out.Recommendations = rollUp(evaluable, issueCap, func(c Child) []string { return c.Recommendations })

	return out
}

func status(total, evaluated, failed int) domain.Status {
	switch {
	case total == 0 && failed == 0:
		return domain.StatusFailed
	case evaluated == 0:
		return domain.StatusFailed
	case evaluated < total || failed > 0:
		return domain.StatusPartial
	default:
		return domain.StatusCompleted
	}
}

// testTable builds the per-test aggregation rows over every test id seen in
// any child, sorted by test id for reproducible output.
func testTable(children []Child) []domain.TestAggregate {
	type acc struct {
		sum, min, max float64
		n             int
	}
	table := map[string]*acc{}
	for _, c := range children {
		for testID, rate := range c.TestRates {
			a := table[testID]
			if a == nil {
				a = &acc{min: math.Inf(1), max: math.Inf(-1)}
				table[testID] = a
			}
			a.sum += rate
			a.n++
			if rate < a.min {
				a.min = rate
			}
			if rate > a.max {
				a.max = rate
			}
		}
	}

	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.TestAggregate, 0, len(ids))
	for _, id := range ids {
		a := table[id]
		out = append(out, domain.TestAggregate{
			TestID:     id,
			AvgRate:    a.sum / float64(a.n),
			MinRate:    a.min,
			MaxRate:    a.max,
			ChildCount: a.n,
		})
	}
	return out
}

// rank returns the best-N and worst-N children by overall rate. Ties break
// on child id so repeated runs produce identical lists.
func (a *Aggregator) rank(children []Child) (best, worst []domain.RankingEntry) {
	byBest := append([]Child(nil), children...)
	sort.Slice(byBest, func(i, j int) bool {
		if byBest[i].OverallRate != byBest[j].OverallRate {
			return byBest[i].OverallRate > byBest[j].OverallRate
		}
		return byBest[i].ID < byBest[j].ID
	})

	byWorst := append([]Child(nil), children...)
	sort.Slice(byWorst, func(i, j int) bool {
		if byWorst[i].OverallRate != byWorst[j].OverallRate {
			return byWorst[i].OverallRate < byWorst[j].OverallRate
		}
		return byWorst[i].ID < byWorst[j].ID
	})

	n := a.RankingSize
	if n > len(children) {
		n = len(children)
	}
	for i := 0; i < n; i++ {
		best = append(best, domain.RankingEntry{ID: byBest[i].ID, Rate: byBest[i].OverallRate})
		worst = append(worst, domain.RankingEntry{ID: byWorst[i].ID, Rate: byWorst[i].OverallRate})
	}
	return best, worst
}

// rollUp unions the children's string lists in child-id order, exact-string
// de-duplicated and capped.
func rollUp(children []Child, limit int, pick func(Child) []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range children {
		for _, s := range pick(c) {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
