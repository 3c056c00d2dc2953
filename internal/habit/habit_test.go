package habit

import (
	"testing"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)

func day(offset int, values map[string]float64) model.DailyRecord {
	return model.NewDailyRecord(start.AddDate(0, 0, offset), values)
}

func TestFillGaps(t *testing.T) {
	recs := []model.DailyRecord{
		day(3, map[string]float64{model.KeyCalories: 400}),
		day(0, map[string]float64{model.KeyCalories: 1800}),
		{Date: start.AddDate(0, 0, 3).Add(18 * time.Hour), Values: map[string]float64{model.KeyCalories: 600, model.KeyMealCount: 1}},
		day(-2, map[string]float64{model.KeyCalories: 999}),
	}

	filled := FillGaps(recs, start, start.AddDate(0, 0, 4))
	require.Len(t, filled, 5)

	for i, r := range filled {
		assert.Equal(t, start.AddDate(0, 0, i), r.Date)
	}
	assert.Equal(t, 1800.0, filled[0].Get(model.KeyCalories))
	assert.Empty(t, filled[1].Values)
	assert.Equal(t, 1000.0, filled[3].Get(model.KeyCalories), "same-day records are summed")
	assert.Equal(t, 1.0, filled[3].Get(model.KeyMealCount))
	assert.Equal(t, 400.0, recs[0].Get(model.KeyCalories), "input is not mutated")

	assert.Empty(t, FillGaps(recs, start, start.AddDate(0, 0, -1)))
}

func TestFillGapsCrossesMonthBoundary(t *testing.T) {
	filled := FillGaps(nil, start, start.AddDate(0, 0, 5))
	require.Len(t, filled, 6)
	assert.Equal(t, "2024-02-29", filled[3].DateKey())
	assert.Equal(t, "2024-03-02", filled[5].DateKey())
}

// pattern builds ascending days from a string read oldest to newest,
// where 'x' is a qualifying day and '.' is not.
func pattern(p string) []model.DailyRecord {
	out := make([]model.DailyRecord, len(p))
	for i, c := range p {
		meals := 0.0
		if c == 'x' {
			meals = MinMealsPerDay
		}
		out[i] = day(i, map[string]float64{model.KeyMealCount: meals})
	}
	return out
}

func TestMealStreak(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    StreakResult
	}{
		{"empty", "", StreakResult{}},
		{"all qualifying", "xxxxx", StreakResult{Current: 5, Longest: 5}},
		{"none qualifying", ".....", StreakResult{}},
		{"shorter older run replaces current", "xx.xxx", StreakResult{Current: 2, Longest: 3}},
		{"older run is longer", "xxxxx.xx", StreakResult{Current: 5, Longest: 5}},
		{"today missed", "xxxx.", StreakResult{Current: 0, Longest: 4}},
		{"today missed after long run", "xxxxxxx.", StreakResult{Current: 0, Longest: 7}},
		{"single gap then longer run", "xxxx.xx", StreakResult{Current: 4, Longest: 4}},
		{"two gaps", "x.xx.x", StreakResult{Current: 1, Longest: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MealStreak(pattern(tt.pattern)))
		})
	}
}

// A break followed by an older qualifying run replaces Current with the
// older run's length instead of keeping today's run. This is the historical
// behavior and is preserved until product decides otherwise.
func TestStreakCurrentOverwrittenByOlderRun(t *testing.T) {
	got := MealStreak(pattern("xxx.x"))
	assert.Equal(t, 3, got.Current, "today's run has length 1 but the older run wins")
	assert.Equal(t, 3, got.Longest)
}

func TestStreakWindow(t *testing.T) {
	p := ""
	for i := 0; i < StreakWindowDays+10; i++ {
		p += "x"
	}
	got := MealStreak(pattern(p))
	assert.Equal(t, StreakResult{Current: StreakWindowDays, Longest: StreakWindowDays}, got)
}

func TestApplyStreak(t *testing.T) {
	recs := []model.DailyRecord{day(0, nil), {Date: start.AddDate(0, 0, 1)}}
	ApplyStreak(recs, StreakResult{Current: 2, Longest: 9})

	for _, r := range recs {
		assert.Equal(t, 2.0, r.Get(model.KeyCurrentStreak))
		assert.Equal(t, 9.0, r.Get(model.KeyLongestStreak))
	}
}

func TestSort(t *testing.T) {
	recs := []model.DailyRecord{day(2, nil), day(0, nil), day(1, nil)}
	Sort(recs)
	assert.Equal(t, []string{"2024-02-26", "2024-02-27", "2024-02-28"},
		[]string{recs[0].DateKey(), recs[1].DateKey(), recs[2].DateKey()})
}
