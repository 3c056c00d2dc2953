// Package storage provides the SQLite persistence layer for daily logs and meals.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidRecord    = errors.New("invalid daily record")
	ErrInvalidMeal      = errors.New("invalid meal")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDailyRecords validates a slice of daily records.
func validateDailyRecords(records []model.DailyRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}

	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.Date.IsZero() {
			return fmt.Errorf("record at index %d: %w: missing date", i, ErrInvalidRecord)
		}
		key := r.DateKey()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("record at index %d: %w: duplicate date %s", i, ErrInvalidRecord, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// validateMeals validates a slice of meals.
func validateMeals(meals []model.Meal) error {
	if meals == nil {
		return fmt.Errorf("%w: meals", ErrNilParameter)
	}
	if len(meals) == 0 {
		return fmt.Errorf("%w: meals", ErrEmptySlice)
	}

	for i := range meals {
		if err := validateMeal(&meals[i]); err != nil {
			return fmt.Errorf("meal at index %d: %w", i, err)
		}
	}
	return nil
}

// validateMeal validates a single meal.
func validateMeal(meal *model.Meal) error {
	if meal == nil {
		return fmt.Errorf("%w: meal", ErrNilParameter)
	}
	if meal.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidMeal)
	}
	if strings.TrimSpace(meal.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidMeal)
	}
	return nil
}
