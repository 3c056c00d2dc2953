// Package testutil provides test databases and log fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/service"
	"github.com/Priyansh6747/Nutrilio/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.LogStore) error
	Records        []model.DailyRecord
	Meals          []model.Meal
	SkipMigrations bool
}

// SetupTestDB creates a new migrated in-memory test database.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.SeedRecords(testutil.Days(start, 30, testutil.Steady))
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Storage: store, t: t}
	if len(opts.Records) > 0 {
		db.SeedRecords(opts.Records)
	}
	if len(opts.Meals) > 0 {
		db.SeedMeals(opts.Meals)
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// SeedRecords saves records or fails the test.
func (db *TestDB) SeedRecords(records []model.DailyRecord) {
	db.t.Helper()
	if err := db.Storage.SaveDailyRecords(context.Background(), records); err != nil {
		db.t.Fatalf("failed to seed daily records: %v", err)
	}
}

// SeedMeals saves meals or fails the test.
func (db *TestDB) SeedMeals(meals []model.Meal) {
	db.t.Helper()
	if _, err := db.Storage.SaveMeals(context.Background(), meals); err != nil {
		db.t.Fatalf("failed to seed meals: %v", err)
	}
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
