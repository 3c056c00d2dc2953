package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// SaveDailyRecords upserts daily records keyed by calendar day.
func (s *SQLiteStorage) SaveDailyRecords(ctx context.Context, records []model.DailyRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDailyRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveDailyRecordsTx(ctx, tx, records); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) saveDailyRecordsTx(ctx context.Context, tx *sql.Tx, records []model.DailyRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_records (date, metrics, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			metrics = excluded.metrics,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		values := r.Values
		if values == nil {
			values = map[string]float64{}
		}
		metrics, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("failed to encode metrics for %s: %w", r.DateKey(), err)
		}
		if _, err := stmt.ExecContext(ctx, dayKey(r.Date), string(metrics)); err != nil {
			return fmt.Errorf("failed to save daily record %s: %w", r.DateKey(), err)
		}
	}

	return nil
}

// GetDailyRecords returns stored records for the days from start to end
// inclusive, ascending by date. Days without a record are simply absent.
func (s *SQLiteStorage) GetDailyRecords(ctx context.Context, start, end time.Time) ([]model.DailyRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, metrics
		FROM daily_records
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, dayKey(start), dayKey(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.DailyRecord
	for rows.Next() {
		var date, metrics string
		if err := rows.Scan(&date, &metrics); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}

		day, err := parseDay(date)
		if err != nil {
			return nil, err
		}

		values := make(map[string]float64)
		if err := json.Unmarshal([]byte(metrics), &values); err != nil {
			return nil, fmt.Errorf("failed to decode metrics for %s: %w", date, err)
		}
		records = append(records, model.NewDailyRecord(day, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily records: %w", err)
	}
	return records, nil
}

// GetLatestRecordDate returns the most recent logged day.
func (s *SQLiteStorage) GetLatestRecordDate(ctx context.Context) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}

	var date sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM daily_records`).Scan(&date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("failed to query latest record date: %w", err)
	}
	if !date.Valid {
		return time.Time{}, fmt.Errorf("daily records: %w", common.ErrNotFound)
	}
	return parseDay(date.String)
}
