// Package engine orchestrates the full compliance run: per-room evaluation
// pipelines on a worker pool, category resolution and bottom-up aggregation
// into level, building and portfolio records.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/buildsense/ieqengine/internal/aggregate"
	"github.com/buildsense/ieqengine/internal/calendar"
	"github.com/buildsense/ieqengine/internal/category"
	"github.com/buildsense/ieqengine/internal/comfort"
	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
	"github.com/buildsense/ieqengine/internal/evaluator"
	"github.com/buildsense/ieqengine/internal/telemetry"
	"github.com/buildsense/ieqengine/internal/tempfilter"
	"github.com/buildsense/ieqengine/internal/weather"
)

// RoomInput is one room's fully loaded data.
type RoomInput struct {
	RoomID      string
	LevelID     string
	BuildingID  string
	Ventilation domain.VentilationType
	// Series holds one time series per measured parameter; missing samples
	// are NaN.
	Series map[domain.Parameter]domain.TimeSeries
}

// Input is a complete portfolio run: rooms plus shared outdoor/climate data.
type Input struct {
	PortfolioID string
	Rooms       []RoomInput
	// OutdoorTemperature feeds the adaptive comfort model's running means.
	OutdoorTemperature domain.TimeSeries
	// Climate holds external factors for violation correlation.
	Climate weather.ClimateSeries
}

// RunResult carries every analysis record of one run plus the warnings
// digest and failure tallies.
type RunResult struct {
	RunID     string                             `json:"run_id"`
	Portfolio domain.PortfolioAnalysis           `json:"portfolio"`
	Buildings map[string]domain.BuildingAnalysis `json:"buildings"`
	Levels    map[string]domain.LevelAnalysis    `json:"levels"`
	Rooms     map[string]domain.RoomAnalysis     `json:"rooms"`

	Warnings    WarningsDigest       `json:"warnings"`
	FailedRooms []domain.RoomFailure `json:"failed_rooms,omitempty"`
}

// Engine is the compliance evaluation engine. All state is read-only after
// construction; Run may be called concurrently.
type Engine struct {
	cfg       *config.Config
	processor *tempfilter.Processor
	evaluator *evaluator.Evaluator
	resolver  *category.Resolver
	reducer   *aggregate.Aggregator
	metrics   *telemetry.MetricsRegistry
}

// New builds an engine from an immutable configuration. The registerer may
// be nil to leave metrics unregistered.
func New(cfg *config.Config, reg prometheus.Registerer) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine configuration: %w", err)
	}

	// Custom closures stay scoped to their own filter; the processor's mask
	// enforces them, so the shared calendar carries public holidays only.
	holidays, err := calendar.NewHolidaySource(cfg.Settings.HolidayRegion, nil)
	if err != nil {
		return nil, fmt.Errorf("holiday calendar: %w", err)
	}

	analyzer := weather.NewAnalyzer(cfg.Settings.AlignmentTolerance)

	return &Engine{
		cfg:       cfg,
		processor: tempfilter.NewProcessor(holidays),
		evaluator: evaluator.New(cfg.Comfort, analyzer),
		resolver:  category.NewResolver(cfg.Settings.CategoryPassRate),
		reducer:   aggregate.NewAggregator(cfg.Settings.RankingSize),
		metrics:   telemetry.NewMetricsRegistry(reg),
	}, nil
}

// Run executes the whole pipeline for a portfolio. Room failures never abort
// the run; they are tallied and the room is excluded from aggregation.
func (e *Engine) Run(ctx context.Context, in Input) (*RunResult, error) {
	if len(in.Rooms) == 0 {
		return nil, errors.New("no rooms supplied")
	}

	start := time.Now()
	runID := uuid.NewString()
	e.metrics.ActiveRuns.Inc()
	defer e.metrics.ActiveRuns.Dec()

	log.Info().
		Str("run_id", runID).
		Str("portfolio", in.PortfolioID).
		Int("rooms", len(in.Rooms)).
		Msg("compliance run started")

	// Shared, read-only across all room workers.
	runningMeans := comfort.DailyRunningMeans(in.OutdoorTemperature, comfort.DefaultAlpha)

	warnings := &warningCollector{}
	rooms, failures := e.runRooms(ctx, in, runningMeans, warnings)

	result := &RunResult{
		RunID:       runID,
		Rooms:       rooms,
		FailedRooms: failures,
		Warnings:    warnings.digest(),
	}
	e.aggregateAll(in, result)
	result.Portfolio.RunID = runID
	result.Portfolio.GeneratedAt = time.Now().UTC()

	e.metrics.RunDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Str("run_id", runID).
		Int("rooms_analyzed", len(rooms)).
		Int("rooms_failed", len(failures)).
		Int("warnings", len(result.Warnings.EmptyFilterEvents)).
		Dur("elapsed", time.Since(start)).
		Msg("compliance run finished")

	return result, nil
}

// runRooms fans room pipelines out over a bounded worker pool. Each room
// depends only on its own series plus shared read-only state, so no locking
// beyond result collection is needed.
func (e *Engine) runRooms(ctx context.Context, in Input, runningMeans map[domain.CivilDate]float64, warnings *warningCollector) (map[string]domain.RoomAnalysis, []domain.RoomFailure) {
	workers := e.cfg.Settings.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(in.Rooms) {
		workers = len(in.Rooms)
	}

	jobs := make(chan RoomInput)
	var (
		mu       sync.Mutex
		rooms    = make(map[string]domain.RoomAnalysis, len(in.Rooms))
		failures []domain.RoomFailure
		wg       sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for room := range jobs {
				analysis, err := e.analyzeRoomSafe(ctx, room, in.Climate, runningMeans, warnings)
				mu.Lock()
				if err != nil {
					failures = append(failures, domain.RoomFailure{RoomID: room.RoomID, Err: err.Error()})
					e.metrics.RoomsFailed.Inc()
				} else {
					rooms[room.RoomID] = *analysis
					e.metrics.RoomsEvaluated.Inc()
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i, room := range in.Rooms {
		select {
		case jobs <- room:
		case <-ctx.Done():
			// In-flight rooms finish on their own; rooms never handed to a
			// worker are tallied so the run's counts stay complete.
			mu.Lock()
			for _, unfed := range in.Rooms[i:] {
				failures = append(failures, domain.RoomFailure{
					RoomID: unfed.RoomID,
					Err:    fmt.Sprintf("not evaluated: %v", ctx.Err()),
				})
				e.metrics.RoomsFailed.Inc()
			}
			mu.Unlock()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].RoomID < failures[j].RoomID })
	return rooms, failures
}

// analyzeRoomSafe is the room-orchestration boundary: a panic or error in
// one room's pipeline is converted into a RoomFailure so siblings continue.
func (e *Engine) analyzeRoomSafe(ctx context.Context, room RoomInput, climate weather.ClimateSeries, runningMeans map[domain.CivilDate]float64, warnings *warningCollector) (analysis *domain.RoomAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis = nil
			err = fmt.Errorf("room pipeline panicked: %v", r)
			log.Error().Str("room", room.RoomID).Interface("panic", r).Msg("room analysis failed")
		}
	}()
	if room.RoomID == "" {
		return nil, errors.New("room without id")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.analyzeRoom(room, climate, runningMeans, warnings), nil
}

func (e *Engine) analyzeRoom(room RoomInput, climate weather.ClimateSeries, runningMeans map[domain.CivilDate]float64, warnings *warningCollector) *domain.RoomAnalysis {
	analysis := &domain.RoomAnalysis{
		RoomID:     room.RoomID,
		LevelID:    room.LevelID,
		BuildingID: room.BuildingID,
		Results:    map[string]domain.ComplianceResult{},
	}

	var events []domain.EmptyFilterEvent
	for _, test := range e.cfg.Tests {
		outcome := e.runTest(room, test, climate, runningMeans, &events)
		if outcome.Skipped() {
			// Missing parameters are expected and stay silent at room level.
			if outcome.Skip.Reason != domain.SkipMissingParameter {
				analysis.Skipped = append(analysis.Skipped, *outcome.Skip)
			}
			e.metrics.TestsSkipped.WithLabelValues(outcome.Skip.Reason.String()).Inc()
			continue
		}
		analysis.Results[test.ID] = *outcome.Result
		e.metrics.TestsEvaluated.Inc()
	}
	warnings.add(events)

	analysis.PeriodStart, analysis.PeriodEnd = roomBounds(room)
	analysis.DataCompleteness = roomCompleteness(room)

	resolution := e.resolver.Resolve(analysis.Results)
	analysis.AchievedCategory = resolution.Achieved
	analysis.CategoryBreakdown = resolution.Breakdown
	analysis.OverallComplianceRate = resolution.OverallRate

	analysis.Issues, analysis.Recommendations = deriveFindings(analysis.Results, e.cfg.Settings.CategoryPassRate)
	return analysis
}

// runTest executes filter -> evaluate for one test, translating the error
// taxonomy into explicit skip variants.
func (e *Engine) runTest(room RoomInput, test config.TestDefinition, climate weather.ClimateSeries, runningMeans map[domain.CivilDate]float64, events *[]domain.EmptyFilterEvent) evaluator.Outcome {
	series, ok := room.Series[test.Parameter]
	if !ok {
		return evaluator.Outcome{Skip: &domain.SkippedTest{TestID: test.ID, Reason: domain.SkipMissingParameter}}
	}

	filter, ok := e.cfg.Filters[test.Filter]
	if !ok {
		return evaluator.Outcome{Skip: &domain.SkippedTest{
			TestID: test.ID,
			Reason: domain.SkipBadConfiguration,
			Detail: fmt.Sprintf("unknown filter %q", test.Filter),
		}}
	}
	period, ok := e.cfg.Periods[test.Period]
	if !ok {
		return evaluator.Outcome{Skip: &domain.SkippedTest{
			TestID: test.ID,
			Reason: domain.SkipBadConfiguration,
			Detail: fmt.Sprintf("unknown period %q", test.Period),
		}}
	}

	filtered, _, err := e.processor.Apply(series, filter, period)
	if err != nil {
		if errors.Is(err, tempfilter.ErrEmptyFilterResult) {
			*events = append(*events, domain.EmptyFilterEvent{
				RoomID:   room.RoomID,
				FilterID: test.Filter,
				PeriodID: test.Period,
				TestID:   test.ID,
			})
			return evaluator.Outcome{Skip: &domain.SkippedTest{TestID: test.ID, Reason: domain.SkipEmptyFilter}}
		}
		return evaluator.Outcome{Skip: &domain.SkippedTest{
			TestID: test.ID,
			Reason: domain.SkipBadConfiguration,
			Detail: err.Error(),
		}}
	}

	return e.evaluator.Evaluate(evaluator.Input{
		Series:       filtered,
		Test:         test,
		Ventilation:  room.Ventilation,
		RunningMeans: runningMeans,
		Climate:      climate,
	})
}

// aggregateAll rolls rooms into levels, levels into buildings and buildings
// into the portfolio, strictly bottom-up.
func (e *Engine) aggregateAll(in Input, result *RunResult) {
	s := e.cfg.Settings

	// Group surviving rooms by level, remembering which building owns each
	// level and which rooms failed per level.
	levelRooms := map[string][]aggregate.Child{}
	levelBuilding := map[string]string{}
	levelFailed := map[string]int{}
	failedSet := map[string]bool{}
	for _, f := range result.FailedRooms {
		failedSet[f.RoomID] = true
	}
	for _, room := range in.Rooms {
		levelBuilding[room.LevelID] = room.BuildingID
		if failedSet[room.RoomID] {
			levelFailed[room.LevelID]++
			continue
		}
		if analysis, ok := result.Rooms[room.RoomID]; ok {
			levelRooms[room.LevelID] = append(levelRooms[room.LevelID], aggregate.FromRoom(&analysis))
		}
	}

	result.Levels = map[string]domain.LevelAnalysis{}
	buildingLevels := map[string][]aggregate.Child{}
	for levelID, children := range levelRooms {
		agg := e.reducer.Aggregate(levelID, children, levelFailed[levelID], s.LevelIssueCap)
		result.Levels[levelID] = domain.LevelAnalysis{
			AggregateAnalysis: agg,
			BuildingID:        levelBuilding[levelID],
		}
		buildingLevels[levelBuilding[levelID]] = append(buildingLevels[levelBuilding[levelID]], aggregate.FromAggregate(agg))
	}
	// Levels whose every room failed still surface as failed level records.
	for levelID, failed := range levelFailed {
		if _, ok := result.Levels[levelID]; ok {
			continue
		}
		agg := e.reducer.Aggregate(levelID, nil, failed, s.LevelIssueCap)
		result.Levels[levelID] = domain.LevelAnalysis{
			AggregateAnalysis: agg,
			BuildingID:        levelBuilding[levelID],
		}
		buildingLevels[levelBuilding[levelID]] = append(buildingLevels[levelBuilding[levelID]], aggregate.FromAggregate(agg))
	}

	result.Buildings = map[string]domain.BuildingAnalysis{}
	var portfolioChildren []aggregate.Child
	for buildingID, children := range buildingLevels {
		agg := e.reducer.Aggregate(buildingID, children, 0, s.BuildingIssueCap)
		result.Buildings[buildingID] = domain.BuildingAnalysis{AggregateAnalysis: agg}
		portfolioChildren = append(portfolioChildren, aggregate.FromAggregate(agg))
	}

	result.Portfolio = domain.PortfolioAnalysis{
		AggregateAnalysis: e.reducer.Aggregate(in.PortfolioID, portfolioChildren, 0, s.PortfolioIssueCap),
	}
}

func roomBounds(room RoomInput) (start, end time.Time) {
	for _, s := range room.Series {
		b, e := s.Bounds()
		if b.IsZero() {
			continue
		}
		if start.IsZero() || b.Before(start) {
			start = b
		}
		if end.IsZero() || e.After(end) {
			end = e
		}
	}
	return start, end
}

func roomCompleteness(room RoomInput) float64 {
	if len(room.Series) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range room.Series {
		sum += s.Completeness()
	}
	return sum / float64(len(room.Series))
}
