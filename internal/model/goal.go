package model

import "strings"

// Goal is the user's dietary objective. It drives every goal-weighted rule.
type Goal string

const (
	// GoalWeightLoss favors protein and fiber and penalizes calorie-dense meals.
	GoalWeightLoss Goal = "weight_loss"
	// GoalMuscleGain favors protein and energy-dense meals.
	GoalMuscleGain Goal = "muscle_gain"
	// GoalMaintenance favors micronutrient coverage and balanced macros.
	GoalMaintenance Goal = "maintenance"
	// GoalWeightGain is accepted as input but weighted like maintenance.
	GoalWeightGain Goal = "weight_gain"
)

// Goals lists every recognized goal.
var Goals = []Goal{GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalWeightGain}

// ParseGoal converts free-form input to a Goal. Unrecognized values fall back to maintenance.
func ParseGoal(s string) Goal {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, g := range Goals {
		if string(g) == normalized {
			return g
		}
	}
	return GoalMaintenance
}

// String returns the goal's wire name.
func (g Goal) String() string {
	return string(g)
}

// Display returns a title-cased label such as "Weight Loss".
func (g Goal) Display() string {
	return DisplayName(string(g))
}
