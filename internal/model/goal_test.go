package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGoal(t *testing.T) {
	tests := []struct {
		input string
		want  Goal
	}{
		{"weight_loss", GoalWeightLoss},
		{"Weight Loss", GoalWeightLoss},
		{"muscle-gain", GoalMuscleGain},
		{"maintenance", GoalMaintenance},
		{"weight_gain", GoalWeightGain},
		{"", GoalMaintenance},
		{"bulk", GoalMaintenance},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGoal(tt.input))
		})
	}
}

func TestGoal_Display(t *testing.T) {
	assert.Equal(t, "Weight Loss", GoalWeightLoss.Display())
	assert.Equal(t, "Maintenance", GoalMaintenance.Display())
}
