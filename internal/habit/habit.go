// Package habit prepares raw daily logs for feature building: it fills
// missing days and derives logging streaks.
package habit

import (
	"sort"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// MinMealsPerDay is the meal count a day needs to extend the meal streak.
const MinMealsPerDay = 3

// StreakWindowDays is how many trailing days the streak scan inspects.
const StreakWindowDays = 30

// FillGaps returns one record per day from start to end inclusive, in
// ascending order. Days with no record get an empty zero-valued record,
// records sharing a day are summed, and records outside the range are dropped.
func FillGaps(records []model.DailyRecord, start, end time.Time) []model.DailyRecord {
	start = model.TruncateDay(start)
	end = model.TruncateDay(end)
	if end.Before(start) {
		return []model.DailyRecord{}
	}

	byDay := make(map[string]model.DailyRecord, len(records))
	for _, r := range records {
		day := model.TruncateDay(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		key := day.Format(model.DateLayout)
		existing, ok := byDay[key]
		if !ok {
			c := r.Clone()
			c.Date = day
			byDay[key] = c
			continue
		}
		for k, v := range r.Values {
			existing.Values[k] += v
		}
	}

	var out []model.DailyRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if r, ok := byDay[d.Format(model.DateLayout)]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, model.NewDailyRecord(d, nil))
	}
	return out
}

// Sort orders records by date ascending in place.
func Sort(records []model.DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// StreakResult holds the streak lengths in days.
type StreakResult struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// Streak scans days backwards from the most recent one. days must be
// ascending; only the last StreakWindowDays are inspected.
//
// Current is only carried past today while it is already non-zero, so a
// break followed by an older qualifying run overwrites Current with that
// older run's length, and a non-qualifying today pins Current at zero.
// Callers rely on these exact counts.
func Streak(days []model.DailyRecord, qualifies func(model.DailyRecord) bool) StreakResult {
	if len(days) > StreakWindowDays {
		days = days[len(days)-StreakWindowDays:]
	}

	var res StreakResult
	run := 0
	for i := 0; i < len(days); i++ {
		day := days[len(days)-1-i]
		if qualifies(day) {
			run++
			if i == 0 || res.Current > 0 {
				res.Current = run
			}
			continue
		}
		res.Longest = max(res.Longest, run)
		run = 0
		if i == 0 {
			res.Current = 0
		}
	}
	res.Longest = max(res.Longest, run)
	return res
}

// MealStreak counts days with at least MinMealsPerDay meals.
func MealStreak(days []model.DailyRecord) StreakResult {
	return Streak(days, func(r model.DailyRecord) bool {
		return r.Get(model.KeyMealCount) >= MinMealsPerDay
	})
}

// ApplyStreak stamps s onto every record.
func ApplyStreak(records []model.DailyRecord, s StreakResult) {
	for i := range records {
		if records[i].Values == nil {
			records[i].Values = make(map[string]float64)
		}
		records[i].Values[model.KeyCurrentStreak] = float64(s.Current)
		records[i].Values[model.KeyLongestStreak] = float64(s.Longest)
	}
}
