package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandMealTimes(t *testing.T) {
	tests := []struct {
		name    string
		options []MealTimeOption
		want    []MealTime
	}{
		{"morning only", []MealTimeOption{MealTimeOptionMorning}, []MealTime{MealTimeMorning}},
		{"evening only", []MealTimeOption{MealTimeOptionEvening}, []MealTime{MealTimeEvening}},
		{"both", []MealTimeOption{MealTimeOptionBoth}, []MealTime{MealTimeMorning, MealTimeEvening}},
		{"explicit pair reversed", []MealTimeOption{MealTimeOptionEvening, MealTimeOptionMorning}, []MealTime{MealTimeMorning, MealTimeEvening}},
		{"both plus morning dedupes", []MealTimeOption{MealTimeOptionBoth, MealTimeOptionMorning}, []MealTime{MealTimeMorning, MealTimeEvening}},
		{"empty", nil, []MealTime{}},
		{"unknown ignored", []MealTimeOption{"midnight"}, []MealTime{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandMealTimes(tt.options))
		})
	}
}

func TestValidateMealTimes(t *testing.T) {
	assert.NoError(t, ValidateMealTimes([]MealTimeOption{MealTimeOptionBoth}))
	assert.True(t, IsValidationError(ValidateMealTimes(nil)))
	assert.True(t, IsValidationError(ValidateMealTimes([]MealTimeOption{"brunch"})))
}
