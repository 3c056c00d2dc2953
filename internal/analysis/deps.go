// Package analysis runs the habit forecast and nutrition planning pipelines
// over a user's stored logs.
package analysis

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/forecast"
	"github.com/Priyansh6747/Nutrilio/internal/service"
)

// Deps contains all dependencies required by the analysis engine.
type Deps struct {
	// Store provides read access to daily records and meals.
	Store service.LogReader
	// Oracle produces sampled forecasts for one feature series at a time.
	Oracle forecast.Oracle
	// Now overrides the wall clock. Optional.
	Now func() time.Time
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Store == nil {
		return fmt.Errorf("store dependency is required")
	}
	if d.Oracle == nil {
		return fmt.Errorf("oracle dependency is required")
	}
	return nil
}

// Engine orchestrates the analysis pipelines.
type Engine struct {
	deps    Deps
	builder *features.Builder
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a new analysis engine with the provided dependencies.
func NewEngine(deps Deps) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		deps:    deps,
		builder: features.NewBuilder(),
		logger:  slog.Default(),
		now:     now,
	}, nil
}
