package features

import (
	"math"

	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// ratioDef derives one column from the base values of a single day.
// A ratio is emitted only when every input column exists.
type ratioDef struct {
	compute func(v func(string) float64) float64
	name    string
	inputs  []string
}

var ratioDefs = []ratioDef{
	{
		name:   "protein_to_calories",
		inputs: []string{model.KeyProtein, model.KeyCalories},
		compute: func(v func(string) float64) float64 {
			return stats.Clip(stats.SafeDiv(v(model.KeyProtein)*4, v(model.KeyCalories)), 0, 1)
		},
	},
	{
		name:   "fat_to_calories",
		inputs: []string{model.KeyFat, model.KeyCalories},
		compute: func(v func(string) float64) float64 {
			return stats.Clip(stats.SafeDiv(v(model.KeyFat)*9, v(model.KeyCalories)), 0, 1)
		},
	},
	{
		name:   "carb_to_calories",
		inputs: []string{model.KeyCarbs, model.KeyCalories},
		compute: func(v func(string) float64) float64 {
			return stats.Clip(stats.SafeDiv(v(model.KeyCarbs)*4, v(model.KeyCalories)), 0, 1)
		},
	},
	{
		name:   "protein_to_fat_ratio",
		inputs: []string{model.KeyProtein, model.KeyFat},
		compute: func(v func(string) float64) float64 {
			return stats.Clip(stats.SafeDiv(v(model.KeyProtein), v(model.KeyFat)), 0, 10)
		},
	},
	{
		name:   "protein_to_carb_ratio",
		inputs: []string{model.KeyProtein, model.KeyCarbs},
		compute: func(v func(string) float64) float64 {
			return stats.Clip(stats.SafeDiv(v(model.KeyProtein), v(model.KeyCarbs)), 0, 10)
		},
	},
	{
		name:   "macro_balance",
		inputs: []string{model.KeyProtein, model.KeyCarbs, model.KeyFat},
		compute: func(v func(string) float64) float64 {
			return MacroBalance(v(model.KeyProtein), v(model.KeyCarbs), v(model.KeyFat))
		},
	},
	{
		name:   "water_to_meal_ratio",
		inputs: []string{model.KeyWaterIntake, model.KeyMealCount},
		compute: func(v func(string) float64) float64 {
			return stats.SafeDiv(v(model.KeyWaterIntake), v(model.KeyMealCount))
		},
	},
	{
		name:   "fiber_to_carb_ratio",
		inputs: []string{model.KeyFiber, model.KeyCarbs},
		compute: func(v func(string) float64) float64 {
			return stats.Clip(stats.SafeDiv(v(model.KeyFiber), v(model.KeyCarbs)), 0, 1)
		},
	},
	{
		name:   "calories_per_meal",
		inputs: []string{model.KeyCalories, model.KeyMealCount},
		compute: func(v func(string) float64) float64 {
			return stats.SafeDiv(v(model.KeyCalories), v(model.KeyMealCount))
		},
	},
}

// MacroBalance is the RMS deviation of each macro's share of the total from
// an even one-third split. 0 is perfectly balanced.
func MacroBalance(protein, carbs, fat float64) float64 {
	total := protein + carbs + fat + stats.Epsilon
	const even = 1.0 / 3.0
	var sum float64
	for _, x := range []float64{protein, carbs, fat} {
		d := x/total - even
		sum += d * d
	}
	return math.Sqrt(sum / 3)
}

func ratioColumns(base map[string][]float64, rows int) []column {
	var cols []column
	for _, def := range ratioDefs {
		if !hasAll(base, def.inputs) {
			continue
		}
		values := make([]float64, rows)
		for i := 0; i < rows; i++ {
			day := i
			values[i] = def.compute(func(name string) float64 {
				return base[name][day]
			})
		}
		cols = append(cols, column{
			desc:   Descriptor{Name: def.name, Kind: KindRatio},
			values: values,
		})
	}
	return cols
}

func hasAll(base map[string][]float64, names []string) bool {
	for _, n := range names {
		if _, ok := base[n]; !ok {
			return false
		}
	}
	return true
}
