// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// MealFilter defines filtering options for meal queries.
type MealFilter struct {
	Before *time.Time
	After  *time.Time
	Limit  int
}

// LogStore defines the contract for the persistence layer holding a user's
// daily logs and meal history.
type LogStore interface {
	LogReader

	// Daily record operations
	SaveDailyRecords(ctx context.Context, records []model.DailyRecord) error

	// Meal operations
	SaveMeals(ctx context.Context, meals []model.Meal) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// LogReader is the read side of the log store used by the analysis pipeline.
type LogReader interface {
	GetDailyRecords(ctx context.Context, start, end time.Time) ([]model.DailyRecord, error)
	GetLatestRecordDate(ctx context.Context) (time.Time, error)
	GetMeals(ctx context.Context, filter MealFilter) ([]model.Meal, error)
	GetMealCount(ctx context.Context) (int, error)
}

// Transaction represents a database transaction used for atomic imports.
type Transaction interface {
	Commit() error
	Rollback() error
	SaveDailyRecords(ctx context.Context, records []model.DailyRecord) error
	SaveMeals(ctx context.Context, meals []model.Meal) (int, error)
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered, inclusive of both ends.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.Date()
	span := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Sub(time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC))
	return int(span.Hours()/24) + 1
}

// ImportStats summarizes a completed import.
type ImportStats struct {
	Range         DateRange
	RecordsSaved  int
	MealsRead     int
	MealsInserted int
	Duration      time.Duration
}
