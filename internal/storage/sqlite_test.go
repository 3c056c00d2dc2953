package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/service"
)

// Helper function to create a test storage instance.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

var baseDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testRecords(days int) []model.DailyRecord {
	records := make([]model.DailyRecord, days)
	for i := range records {
		records[i] = model.NewDailyRecord(baseDay.AddDate(0, 0, i), map[string]float64{
			model.KeyCalories:  1800 + float64(i)*10,
			model.KeyMealCount: 3,
			"vitaminC_mg":      45.5,
		})
	}
	return records
}

func testMeal(name string, at time.Time) model.Meal {
	return model.Meal{
		Timestamp: at,
		Name:      name,
		Nutrients: []model.Nutrient{
			{Name: "Protein", Unit: "g", Amount: 20},
			{Name: "Fiber", Unit: "g", Amount: 5},
			{Name: "Iron", Unit: "mg", Amount: 2.5},
		},
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates nested directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "nutrilio.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		_, err = os.Stat(filepath.Dir(dbPath))
		assert.NoError(t, err)
		assert.Equal(t, dbPath, store.Path())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(MemoryPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))
	})
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var indexCount int
	err = store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_meals_timestamp'
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 1, indexCount)
}

func TestDailyRecords(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDailyRecords(ctx, testRecords(5)))

	got, err := store.GetDailyRecords(ctx, baseDay.AddDate(0, 0, 1), baseDay.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-02", got[0].DateKey())
	assert.Equal(t, "2024-03-04", got[2].DateKey())
	assert.Equal(t, 1810.0, got[0].Get(model.KeyCalories))
	assert.Equal(t, 45.5, got[0].Get("vitaminC_mg"), "key case is preserved")

	t.Run("upsert replaces metrics", func(t *testing.T) {
		updated := model.NewDailyRecord(baseDay, map[string]float64{model.KeyCalories: 2500})
		require.NoError(t, store.SaveDailyRecords(ctx, []model.DailyRecord{updated}))

		got, err := store.GetDailyRecords(ctx, baseDay, baseDay)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2500.0, got[0].Get(model.KeyCalories))
		assert.Equal(t, 0.0, got[0].Get(model.KeyMealCount))
	})

	t.Run("latest date", func(t *testing.T) {
		latest, err := store.GetLatestRecordDate(ctx)
		require.NoError(t, err)
		assert.Equal(t, baseDay.AddDate(0, 0, 4), latest)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := store.GetDailyRecords(ctx, baseDay, baseDay.AddDate(0, 0, -1))
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestGetLatestRecordDate_Empty(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetLatestRecordDate(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveDailyRecords_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name    string
		records []model.DailyRecord
		wantErr error
	}{
		{"nil", nil, ErrNilParameter},
		{"empty", []model.DailyRecord{}, ErrEmptySlice},
		{"zero date", []model.DailyRecord{{Values: map[string]float64{}}}, ErrInvalidRecord},
		{"duplicate day", []model.DailyRecord{
			model.NewDailyRecord(baseDay, nil),
			model.NewDailyRecord(baseDay.Add(5*time.Hour), nil),
		}, ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveDailyRecords(ctx, tt.records)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMeals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	meals := []model.Meal{
		testMeal("Oatmeal", baseDay.Add(8*time.Hour)),
		testMeal("Lentil Soup", baseDay.AddDate(0, 0, 1).Add(13*time.Hour)),
		testMeal("Salmon", baseDay.AddDate(0, 0, 2).Add(19*time.Hour)),
	}
	meals[2].ID = "fixed-id"

	inserted, err := store.SaveMeals(ctx, meals)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	t.Run("re-import skips duplicates", func(t *testing.T) {
		inserted, err := store.SaveMeals(ctx, meals)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		count, err := store.GetMealCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("all ascending", func(t *testing.T) {
		got, err := store.GetMeals(ctx, service.MealFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Oatmeal", got[0].Name)
		assert.Equal(t, "Salmon", got[2].Name)
		assert.Equal(t, "fixed-id", got[2].ID)
		assert.NotEmpty(t, got[0].ID)
		assert.True(t, got[1].Timestamp.Equal(meals[1].Timestamp))
		assert.Equal(t, meals[0].Nutrients, got[0].Nutrients)
	})

	t.Run("before filter", func(t *testing.T) {
		before := baseDay.AddDate(0, 0, 2)
		got, err := store.GetMeals(ctx, service.MealFilter{Before: &before})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("after and limit", func(t *testing.T) {
		after := baseDay.AddDate(0, 0, 1)
		got, err := store.GetMeals(ctx, service.MealFilter{After: &after, Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Lentil Soup", got[0].Name)
	})

	t.Run("invalid meal", func(t *testing.T) {
		_, err := store.SaveMeals(ctx, []model.Meal{{Name: "No time"}})
		assert.ErrorIs(t, err, ErrInvalidMeal)
	})
}

func TestTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.SaveDailyRecords(ctx, testRecords(2)))
		_, err = tx.SaveMeals(ctx, []model.Meal{testMeal("Toast", baseDay)})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		records, err := store.GetDailyRecords(ctx, baseDay, baseDay.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("commit persists writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.SaveDailyRecords(ctx, testRecords(2)))
		n, err := tx.SaveMeals(ctx, []model.Meal{testMeal("Toast", baseDay)})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, tx.Commit())

		records, err := store.GetDailyRecords(ctx, baseDay, baseDay.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestImportHistory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.RecordImport(ctx, "first.json", service.ImportStats{RecordsSaved: 7, MealsInserted: 12})
	require.NoError(t, err)
	id, err := store.RecordImport(ctx, "second.json", service.ImportStats{RecordsSaved: 1})
	require.NoError(t, err)

	history, err := store.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, "second.json", history[0].Source)
	assert.Equal(t, 12, history[1].MealsInserted)

	_, err = store.RecordImport(ctx, "", service.ImportStats{})
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestBackup(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	require.NoError(t, store.SaveDailyRecords(ctx, testRecords(3)))

	t.Run("backup is readable", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "copy.db")
		require.NoError(t, store.Backup(ctx, dest))

		restored, err := NewSQLiteStorage(dest)
		require.NoError(t, err)
		defer func() { _ = restored.Close() }()

		records, err := restored.GetDailyRecords(ctx, baseDay, baseDay.AddDate(0, 0, 10))
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("rejects unsafe paths", func(t *testing.T) {
		assert.Error(t, store.Backup(ctx, "relative.db"))
		assert.Error(t, store.Backup(ctx, "/tmp/it's.db"))
	})

	t.Run("auto backups are pruned", func(t *testing.T) {
		for i := 0; i < MaxAutoBackups+2; i++ {
			_, err := store.AutoBackup(ctx, "import", baseDay.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}

		entries, err := os.ReadDir(store.BackupDir())
		require.NoError(t, err)
		assert.Len(t, entries, MaxAutoBackups)
		assert.Equal(t, "auto-import-20240301-000200.db", entries[0].Name(), "oldest two are removed")
	})

	t.Run("memory database", func(t *testing.T) {
		mem, err := NewSQLiteStorage(MemoryPath)
		require.NoError(t, err)
		defer func() { _ = mem.Close() }()
		assert.ErrorIs(t, mem.Backup(ctx, filepath.Join(t.TempDir(), "x.db")), ErrBackupUnavailable)
	})
}
