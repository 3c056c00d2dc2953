package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/service"
)

// SaveMeals stores meals, skipping any already imported, and returns how
// many were inserted.
func (s *SQLiteStorage) SaveMeals(ctx context.Context, meals []model.Meal) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateMeals(meals); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveMealsTx(ctx, tx, meals)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit meals: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveMealsTx(ctx context.Context, tx *sql.Tx, meals []model.Meal) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO meals (id, hash, timestamp, name, nutrients)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, meal := range meals {
		if meal.ID == "" {
			meal.ID = uuid.NewString()
		}

		nutrients := meal.Nutrients
		if nutrients == nil {
			nutrients = []model.Nutrient{}
		}
		blob, err := json.Marshal(nutrients)
		if err != nil {
			return inserted, fmt.Errorf("failed to encode nutrients for meal %q: %w", meal.Name, err)
		}

		res, err := stmt.ExecContext(ctx,
			meal.ID,
			meal.GenerateHash(),
			storedTime(meal.Timestamp),
			strings.TrimSpace(meal.Name),
			string(blob),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to save meal %q: %w", meal.Name, err)
		}

		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

// GetMeals returns stored meals ordered by timestamp ascending.
func (s *SQLiteStorage) GetMeals(ctx context.Context, filter service.MealFilter) ([]model.Meal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, timestamp, name, nutrients FROM meals WHERE 1=1`
	var args []any

	if filter.After != nil {
		query += ` AND timestamp >= ?`
		args = append(args, storedTime(*filter.After))
	}
	if filter.Before != nil {
		query += ` AND timestamp < ?`
		args = append(args, storedTime(*filter.Before))
	}
	query += ` ORDER BY timestamp ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var meals []model.Meal
	for rows.Next() {
		var (
			meal      model.Meal
			nutrients string
		)
		if err := rows.Scan(&meal.ID, &meal.Timestamp, &meal.Name, &nutrients); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		if err := json.Unmarshal([]byte(nutrients), &meal.Nutrients); err != nil {
			return nil, fmt.Errorf("failed to decode nutrients for meal %s: %w", meal.ID, err)
		}
		meals = append(meals, meal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}
	return meals, nil
}

// GetMealCount returns the number of stored meals.
func (s *SQLiteStorage) GetMealCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meals`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count meals: %w", err)
	}
	return count, nil
}

// storedTime normalizes timestamps so that stored text compares chronologically.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
