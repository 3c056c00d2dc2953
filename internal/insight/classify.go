package insight

import (
	"math"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// FeatureClass says which way a feature should move to count as progress.
type FeatureClass int

// Feature classes.
const (
	ClassUnknown FeatureClass = iota
	ClassDesirableUp
	ClassDesirableDown
	ClassNeutral
)

var featureClasses = map[string]FeatureClass{
	model.KeyProtein:             ClassDesirableUp,
	model.KeyFiber:               ClassDesirableUp,
	model.KeyWaterIntake:         ClassDesirableUp,
	model.KeyCurrentStreak:       ClassDesirableUp,
	model.KeyMealCount:           ClassDesirableUp,
	"vitamin_c_g":                ClassDesirableUp,
	model.KeyCalcium:             ClassDesirableUp,
	model.KeyIron:                ClassDesirableUp,
	"protein_to_calories":        ClassDesirableUp,
	"water_percentage_completed": ClassDesirableUp,

	model.KeySugar:         ClassDesirableDown,
	model.KeySodium:        ClassDesirableDown,
	"saturated_fat_g":      ClassDesirableDown,
	"trans_fat_g":          ClassDesirableDown,
	"cholesterol_mg":       ClassDesirableDown,
	"calories_variability": ClassDesirableDown,
	"macro_balance":        ClassDesirableDown,

	model.KeyCalories: ClassNeutral,
	model.KeyCarbs:    ClassNeutral,
	model.KeyFat:      ClassNeutral,
}

// ClassOf returns the class registered for feature.
func ClassOf(feature string) FeatureClass {
	return featureClasses[feature]
}

// Interpret maps a trend to its sentiment for feature. Stable is always stable.
func Interpret(feature string, t Trend) Direction {
	if t == TrendStable {
		return DirectionStable
	}
	switch ClassOf(feature) {
	case ClassDesirableUp:
		if t == TrendUp {
			return DirectionImproving
		}
		return DirectionDeclining
	case ClassDesirableDown:
		if t == TrendDown {
			return DirectionImproving
		}
		return DirectionConcerning
	case ClassNeutral:
		return DirectionChanging
	default:
		return DirectionNeutral
	}
}

// ClassifyTrend labels a percent change against threshold. A change equal
// to the threshold is not stable.
func ClassifyTrend(percentChange, threshold float64) Trend {
	switch {
	case math.Abs(percentChange) < threshold:
		return TrendStable
	case percentChange > 0:
		return TrendUp
	default:
		return TrendDown
	}
}

// ClassifyAnomaly grades a z-score. ok is false when |z| <= 2.5.
func ClassifyAnomaly(z float64) (Severity, bool) {
	abs := math.Abs(z)
	switch {
	case abs > anomalyHighZ:
		return SeverityHigh, true
	case abs > anomalyZ:
		return SeverityMedium, true
	default:
		return "", false
	}
}
