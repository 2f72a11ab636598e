// Package ieqengine evaluates indoor-environmental-quality time series
// against category-based compliance standards and aggregates per-room
// results into level, building and portfolio summaries.
//
// The engine is a synchronous batch pipeline over fully loaded series; data
// ingestion, report rendering and command surfaces are collaborator layers
// that consume the records produced here.
package ieqengine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildsense/ieqengine/internal/config"
	"github.com/buildsense/ieqengine/internal/domain"
	"github.com/buildsense/ieqengine/internal/engine"
	"github.com/buildsense/ieqengine/internal/weather"
)

// Re-exported configuration types.
type (
	Config           = config.Config
	TestDefinition   = config.TestDefinition
	FilterDefinition = config.FilterDefinition
	PeriodDefinition = config.PeriodDefinition
)

// Re-exported run input/output types.
type (
	Engine        = engine.Engine
	Input         = engine.Input
	RoomInput     = engine.RoomInput
	RunResult     = engine.RunResult
	ClimateSeries = weather.ClimateSeries

	TimeSeries        = domain.TimeSeries
	ComplianceResult  = domain.ComplianceResult
	RoomAnalysis      = domain.RoomAnalysis
	LevelAnalysis     = domain.LevelAnalysis
	BuildingAnalysis  = domain.BuildingAnalysis
	PortfolioAnalysis = domain.PortfolioAnalysis
)

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config { return config.Default() }

// NewEngine builds an engine from cfg; pass nil cfg for the defaults and a
// nil registerer to leave metrics unregistered.
func NewEngine(cfg *Config, reg prometheus.Registerer) (*Engine, error) {
	return engine.New(cfg, reg)
}

// NewTimeSeries builds a time series from parallel slices; use math.NaN for
// missing samples.
var NewTimeSeries = domain.NewTimeSeries
