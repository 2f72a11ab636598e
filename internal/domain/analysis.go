package domain

import "time"

// DescriptiveStats summarizes the valid samples behind a result.
type DescriptiveStats struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// FactorStats holds descriptive statistics for one external climate factor
// restricted to a set of timestamps (violation or compliant periods).
type FactorStats struct {
	Factor string  `json:"factor"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// ThresholdSpec records the bound(s) a test was scored against.
type ThresholdSpec struct {
	Mode  Mode    `json:"mode"`
	Value float64 `json:"value,omitempty"` // ascending/descending
	Min   float64 `json:"min,omitempty"`   // range
	Max   float64 `json:"max,omitempty"`   // range
	// Adaptive marks range bounds that came from the adaptive comfort model
	// rather than the configured table.
	Adaptive bool `json:"adaptive,omitempty"`
}

// ComplianceResult is the outcome of scoring one filtered series against one
// test definition. total = compliant + non-compliant; missing samples are
// excluded from all three counts.
type ComplianceResult struct {
	TestID                  string             `json:"test_id"`
	Parameter               Parameter          `json:"parameter"`
	Category                Category           `json:"category"`
	ComplianceRate          float64            `json:"compliance_rate"` // 0-100
	TotalSamples            int                `json:"total_samples"`
	CompliantSamples        int                `json:"compliant_samples"`
	NonCompliantSamples     int                `json:"non_compliant_samples"`
	Threshold               ThresholdSpec      `json:"threshold"`
	Severity                Severity           `json:"severity"`
	Stats                   DescriptiveStats   `json:"stats"`
	WeatherCorrelations     map[string]float64 `json:"weather_correlations,omitempty"`
	WeatherDuringViolations []FactorStats      `json:"weather_during_violations,omitempty"`
}

// SkippedTest records a test that produced no result, with the reason.
type SkippedTest struct {
	TestID string     `json:"test_id"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// CategoryOutcome is the per-category verdict from the achievement resolver.
type CategoryOutcome string

const (
	CategoryCompliant    CategoryOutcome = "compliant"
	CategoryFailed       CategoryOutcome = "failed"
	CategoryNotEvaluable CategoryOutcome = "not_evaluable"
)

// RoomAnalysis is the complete per-room record produced by the evaluation
// pipeline; it is read-only input to aggregation.
type RoomAnalysis struct {
	RoomID     string `json:"room_id"`
	LevelID    string `json:"level_id"`
	BuildingID string `json:"building_id"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Results map[string]ComplianceResult `json:"results"` // test id -> result
	Skipped []SkippedTest               `json:"skipped,omitempty"`

	// OverallComplianceRate is the ungated mean over all scored tests; it is
	// independent of category achievement.
	OverallComplianceRate float64  `json:"overall_compliance_rate"`
	DataCompleteness      float64  `json:"data_completeness"`
	AchievedCategory      Category `json:"achieved_category"`

	CategoryBreakdown map[Category]CategoryOutcome `json:"category_breakdown,omitempty"`

	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// EvaluableTests counts the tests that produced a ComplianceResult.
func (r *RoomAnalysis) EvaluableTests() int { return len(r.Results) }

// TestAggregate is one row of a parent's per-test aggregation table.
type TestAggregate struct {
	TestID     string  `json:"test_id"`
	AvgRate    float64 `json:"avg_rate"`
	MinRate    float64 `json:"min_rate"`
	MaxRate    float64 `json:"max_rate"`
	ChildCount int     `json:"child_count"`
}

// RankingEntry is one position of a best/worst ranking.
type RankingEntry struct {
	ID   string  `json:"id"`
	Rate float64 `json:"rate"`
}

// AggregateAnalysis is the shared shape of level, building and portfolio
// records: child ids, aggregated means, per-test table, rankings and the
// capped issue roll-up. Parents reference children by id only.
type AggregateAnalysis struct {
	ID       string   `json:"id"`
	ChildIDs []string `json:"child_ids"`

	AvgComplianceRate float64 `json:"avg_compliance_rate"`
	AvgQuality        float64 `json:"avg_quality"`

	TestAggregates []TestAggregate `json:"test_aggregates,omitempty"`

	Best  []RankingEntry `json:"best,omitempty"`
	Worst []RankingEntry `json:"worst,omitempty"`

	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`

	EvaluatedChildren int    `json:"evaluated_children"`
	SkippedChildren   int    `json:"skipped_children"`
	FailedChildren    int    `json:"failed_children"`
	Status            Status `json:"status"`
}

// LevelAnalysis aggregates the rooms of one level.
type LevelAnalysis struct {
	AggregateAnalysis
	BuildingID string `json:"building_id"`
}

// BuildingAnalysis aggregates the levels of one building.
type BuildingAnalysis struct {
	AggregateAnalysis
}

// PortfolioAnalysis aggregates all buildings of a run.
type PortfolioAnalysis struct {
	AggregateAnalysis
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// EmptyFilterEvent identifies one test whose filter+period combination left
// no in-scope data; events are collected and summarized once per run.
type EmptyFilterEvent struct {
	RoomID   string `json:"room_id"`
	FilterID string `json:"filter_id"`
	PeriodID string `json:"period_id"`
	TestID   string `json:"test_id"`
}

// RoomFailure records a room whose pipeline failed outright; the room is
// excluded from aggregation but tallied for auditability.
type RoomFailure struct {
	RoomID string `json:"room_id"`
	Err    string `json:"error"`
}
