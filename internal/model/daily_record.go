package model

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar-day format used for record keys.
const DateLayout = "2006-01-02"

// Canonical daily record keys.
const (
	KeyCalories          = "calories"
	KeyProtein           = "protein_g"
	KeyCarbs             = "carbs_g"
	KeyFat               = "fat_g"
	KeyFiber             = "fiber_g"
	KeySugar             = "sugar_g"
	KeySodium            = "sodium_mg"
	KeyCalcium           = "calcium_mg"
	KeyIron              = "iron_mg"
	KeyMealCount         = "meal_count"
	KeyWaterIntake       = "water_intake_ml"
	KeyCombinedIntensity = "combined_intensity"
	KeyCurrentStreak     = "current_streak"
	KeyLongestStreak     = "longest_streak"
)

// CanonicalKeys lists the daily record keys in the order they appear as feature columns.
var CanonicalKeys = []string{
	KeyCalories,
	KeyProtein,
	KeyCarbs,
	KeyFat,
	KeyFiber,
	KeySugar,
	KeySodium,
	KeyCalcium,
	KeyIron,
	KeyMealCount,
	KeyWaterIntake,
	KeyCombinedIntensity,
	KeyCurrentStreak,
	KeyLongestStreak,
}

// DailyRecord holds one calendar day of nutrition and engagement totals.
type DailyRecord struct {
	Date   time.Time
	Values map[string]float64
}

// NewDailyRecord creates a record for the given day with its time component stripped.
func NewDailyRecord(date time.Time, values map[string]float64) DailyRecord {
	if values == nil {
		values = make(map[string]float64)
	}
	return DailyRecord{
		Date:   TruncateDay(date),
		Values: values,
	}
}

// Get returns the value for key, or 0 when the key was never logged.
func (r DailyRecord) Get(key string) float64 {
	return r.Values[key]
}

// DateKey returns the record's ISO date.
func (r DailyRecord) DateKey() string {
	return r.Date.Format(DateLayout)
}

// Clone returns a deep copy of the record.
func (r DailyRecord) Clone() DailyRecord {
	values := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return DailyRecord{Date: r.Date, Values: values}
}

// TruncateDay strips the time of day, keeping the location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DisplayName title-cases a snake_case key: water_intake_ml becomes "Water Intake Ml".
func DisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
