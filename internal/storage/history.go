package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Priyansh6747/Nutrilio/internal/service"
)

// ImportRecord is one row of import history.
type ImportRecord struct {
	ImportedAt    time.Time
	ID            string
	Source        string
	RecordsSaved  int
	MealsInserted int
}

// RecordImport appends an entry to the import history and returns its ID.
func (s *SQLiteStorage) RecordImport(ctx context.Context, source string, stats service.ImportStats) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(source, "source"); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_history (id, source, records_saved, meals_inserted)
		VALUES (?, ?, ?, ?)
	`, id, source, stats.RecordsSaved, stats.MealsInserted)
	if err != nil {
		return "", fmt.Errorf("failed to record import: %w", err)
	}
	return id, nil
}

// ListImports returns import history, most recent first.
func (s *SQLiteStorage) ListImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, records_saved, meals_inserted, imported_at
		FROM import_history
		ORDER BY imported_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.RecordsSaved, &r.MealsInserted, &r.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import history: %w", err)
	}
	return out, nil
}
