// Package nutrition measures intake against targets and ranks historical
// meals by how well they close the resulting gaps.
package nutrition

import (
	"strings"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// Nutrient keys beyond the daily record canonical set.
const (
	KeyVitaminC     = "vitaminC_mg"
	KeyVitaminA     = "vitaminA_mg"
	KeySaturatedFat = "saturated_fat_g"
)

// WeightTable maps (goal, nutrient) to a multiplier. Missing nutrients weigh
// 1.0 and goals without an entry use the maintenance row.
type WeightTable map[model.Goal]map[string]float64

// Weight returns the multiplier for nutrient under goal.
func (t WeightTable) Weight(goal model.Goal, nutrient string) float64 {
	row, ok := t[goal]
	if !ok {
		row = t[model.GoalMaintenance]
	}
	if w, ok := row[nutrient]; ok {
		return w
	}
	return 1.0
}

// GapPriorityWeights scale |gap| when ranking priority nutrients.
var GapPriorityWeights = WeightTable{
	model.GoalWeightLoss: {
		model.KeyProtein: 1.5,
		model.KeyFiber:   1.3,
	},
	model.GoalMuscleGain: {
		model.KeyProtein:  1.8,
		model.KeyCalories: 1.2,
	},
	model.GoalMaintenance: {
		model.KeyCalcium: 1.2,
		model.KeyIron:    1.2,
		KeyVitaminC:      1.2,
	},
}

// MealScoreWeights scale each nutrient's gap contribution when scoring meals.
var MealScoreWeights = WeightTable{
	model.GoalWeightLoss: {
		model.KeyProtein:  1.5,
		model.KeyFiber:    1.3,
		model.KeyCalories: 0.7,
		KeySaturatedFat:   0.5,
	},
	model.GoalMuscleGain: {
		model.KeyProtein:  1.8,
		model.KeyCalories: 1.2,
		model.KeyCarbs:    1.1,
	},
	model.GoalMaintenance: {
		model.KeyCalcium: 1.2,
		model.KeyIron:    1.2,
		KeyVitaminC:      1.2,
		model.KeyFiber:   1.1,
	},
}

// PriorityBoost multiplies the weight of nutrients on the priority list.
const PriorityBoost = 1.5

// DailyRecommendations are approximate adult daily intakes. The calories
// entry is replaced by the caller's TDEE.
var DailyRecommendations = map[string]float64{
	model.KeyProtein:  50,
	model.KeyCarbs:    275,
	model.KeyFat:      78,
	model.KeyFiber:    28,
	model.KeyCalcium:  1000,
	model.KeyIron:     18,
	KeyVitaminC:       90,
	model.KeySodium:   2300,
	KeySaturatedFat:   20,
	model.KeyCalories: 2000,
}

var nutrientSynonyms = map[string]string{
	"protein":       model.KeyProtein,
	"carbohydrate":  model.KeyCarbs,
	"carbs":         model.KeyCarbs,
	"fat":           model.KeyFat,
	"fiber":         model.KeyFiber,
	"calcium":       model.KeyCalcium,
	"iron":          model.KeyIron,
	"vitamin c":     KeyVitaminC,
	"sodium":        model.KeySodium,
	"saturated fat": KeySaturatedFat,
	"energy":        model.KeyCalories,
	"kcal":          model.KeyCalories,
}

// CanonicalNutrient maps a logged nutrient name onto its feature key.
// Unrecognized names are returned lower-cased and trimmed.
func CanonicalNutrient(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if key, ok := nutrientSynonyms[n]; ok {
		return key
	}
	return n
}
