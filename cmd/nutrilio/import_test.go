package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/testutil"
)

const sampleExport = `{
  "daily_records": [
    {"date": "2024-05-02", "calories": 2100, "protein_g": 95, "meal_count": 3},
    {"date": "2024-05-01", "calories": 1900, "fiber_g": 22, "water_intake_ml": null}
  ],
  "meals": [
    {"timestamp": "2024-04-30T12:30:00Z", "name": " Lentil Soup ",
     "nutrients": [{"name": "Fiber", "unit": "g", "amt": 9}, {"name": "Protein", "unit": "g", "amt": 18}]},
    {"timestamp": "2024-05-02T19:00:00Z", "name": "Salmon Bowl",
     "nutrients": [{"name": "Protein", "unit": "g", "amt": 34}]}
  ]
}`

func TestParseImport(t *testing.T) {
	data, err := parseImport(strings.NewReader(sampleExport))
	require.NoError(t, err)

	require.Len(t, data.Records, 2)
	assert.Equal(t, "2024-05-01", data.Records[0].DateKey(), "records are sorted by date")
	assert.Equal(t, 1900.0, data.Records[0].Get(model.KeyCalories))
	assert.NotContains(t, data.Records[0].Values, model.KeyWaterIntake, "null values are dropped")
	assert.Equal(t, 95.0, data.Records[1].Get(model.KeyProtein))

	require.Len(t, data.Meals, 2)
	assert.Equal(t, "Lentil Soup", data.Meals[0].Name)
	assert.Equal(t, 9.0, data.Meals[0].Nutrients[0].Amount)

	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), data.Range.Start)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), data.Range.End)
	assert.Equal(t, 3, data.Range.Days())
}

func TestParseImport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "malformed json", input: `{"daily_records": [`, wantErr: "failed to decode JSON"},
		{name: "empty file", input: `{}`, wantErr: "no daily records or meals"},
		{name: "missing date", input: `{"daily_records": [{"calories": 10}]}`, wantErr: `missing "date"`},
		{name: "bad date", input: `{"daily_records": [{"date": "05/01/2024"}]}`, wantErr: "invalid date"},
		{name: "non numeric metric", input: `{"daily_records": [{"date": "2024-05-01", "calories": "lots"}]}`, wantErr: "expected a number"},
		{
			name:    "duplicate date",
			input:   `{"daily_records": [{"date": "2024-05-01"}, {"date": "2024-05-01"}]}`,
			wantErr: "duplicate date 2024-05-01",
		},
		{name: "unnamed meal", input: `{"meals": [{"timestamp": "2024-05-01T12:00:00Z", "name": "  "}]}`, wantErr: "name is required"},
		{name: "meal without timestamp", input: `{"meals": [{"name": "Toast"}]}`, wantErr: "timestamp is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseImport(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteImport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	data, err := parseImport(strings.NewReader(sampleExport))
	require.NoError(t, err)

	var progressed int
	stats, err := writeImport(ctx, db.Storage, data, func(n int) { progressed += n })
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RecordsSaved)
	assert.Equal(t, 2, stats.MealsRead)
	assert.Equal(t, 2, stats.MealsInserted)
	assert.Equal(t, 4, progressed)

	stored, err := db.Storage.GetDailyRecords(ctx, data.Range.Start, data.Range.End)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	t.Run("reimport skips duplicate meals", func(t *testing.T) {
		again, err := parseImport(strings.NewReader(sampleExport))
		require.NoError(t, err)
		stats, err := writeImport(ctx, db.Storage, again, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.RecordsSaved)
		assert.Equal(t, 0, stats.MealsInserted)

		count, err := db.Storage.GetMealCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestWriteImport_Canceled(t *testing.T) {
	db := testutil.SetupTestDB(t)

	data := &importData{Records: testutil.Days(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 3, testutil.Steady)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := writeImport(ctx, db.Storage, data, nil)
	require.Error(t, err)

	count, err := db.Storage.GetMealCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = db.Storage.GetLatestRecordDate(context.Background())
	assert.Error(t, err, "nothing was committed")
}
