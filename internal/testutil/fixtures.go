package testutil

import (
	"fmt"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// DayFunc returns the logged values for the i-th day of a fixture.
type DayFunc func(i int) map[string]float64

// Days builds n consecutive daily records starting at start.
func Days(start time.Time, n int, fn DayFunc) []model.DailyRecord {
	records := make([]model.DailyRecord, n)
	for i := range records {
		records[i] = model.NewDailyRecord(start.AddDate(0, 0, i), fn(i))
	}
	return records
}

// Steady logs the same balanced day every day.
func Steady(int) map[string]float64 {
	return map[string]float64{
		model.KeyCalories:    2000,
		model.KeyProtein:     90,
		model.KeyCarbs:       250,
		model.KeyFat:         70,
		model.KeyFiber:       28,
		model.KeySugar:       40,
		model.KeySodium:      1800,
		model.KeyCalcium:     900,
		model.KeyIron:        14,
		model.KeyMealCount:   3,
		model.KeyWaterIntake: 2200,
	}
}

// Varied logs a balanced day with a weekly wobble so rolling statistics are non-zero.
func Varied(i int) map[string]float64 {
	v := Steady(i)
	wobble := float64(i%7) - 3
	v[model.KeyCalories] += wobble * 40
	v[model.KeyProtein] += wobble * 3
	v[model.KeyCarbs] += wobble * 6
	v[model.KeyFat] += wobble * 2
	v[model.KeyWaterIntake] += wobble * 100
	if i%5 == 0 {
		v[model.KeyMealCount] = 2
	}
	return v
}

// Meal builds a historical meal with protein, carbohydrate, fiber and iron.
func Meal(name string, at time.Time, protein, carbs, fiber, iron float64) model.Meal {
	return model.Meal{
		Timestamp: at,
		Name:      name,
		Nutrients: []model.Nutrient{
			{Name: "Protein", Unit: "g", Amount: protein},
			{Name: "Carbohydrate", Unit: "g", Amount: carbs},
			{Name: "Fiber", Unit: "g", Amount: fiber},
			{Name: "Iron", Unit: "mg", Amount: iron},
		},
	}
}

// Meals builds n meals spread one per day before end, oldest first.
func Meals(end time.Time, n int) []model.Meal {
	meals := make([]model.Meal, n)
	for i := range meals {
		at := end.AddDate(0, 0, -(n - i)).Add(12 * time.Hour)
		meals[i] = Meal(fmt.Sprintf("Meal %d", i+1), at, 10+float64(i%4)*5, 30, 3+float64(i%3), 1+float64(i%2))
	}
	return meals
}
