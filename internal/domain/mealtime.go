package domain

// MealTime is a concrete delivery slot
type MealTime string

const (
	MealTimeMorning MealTime = "morning"
	MealTimeEvening MealTime = "evening"
)

// MealTimeOption is what a customer selects; "both" stands for morning and evening
type MealTimeOption string

const (
	MealTimeOptionMorning MealTimeOption = "morning"
	MealTimeOptionEvening MealTimeOption = "evening"
	MealTimeOptionBoth    MealTimeOption = "both"
)

// IsValid reports whether o is a known option
func (o MealTimeOption) IsValid() bool {
	switch o {
	case MealTimeOptionMorning, MealTimeOptionEvening, MealTimeOptionBoth:
		return true
	}
	return false
}

// ExpandMealTimes resolves selected options to concrete slots in a stable
// morning-then-evening order without duplicates.
// Both the initial materialization and the nightly pass go through here.
func ExpandMealTimes(options []MealTimeOption) []MealTime {
	var morning, evening bool
	for _, o := range options {
		switch o {
		case MealTimeOptionMorning:
			morning = true
		case MealTimeOptionEvening:
			evening = true
		case MealTimeOptionBoth:
			morning, evening = true, true
		}
	}

	out := make([]MealTime, 0, 2)
	if morning {
		out = append(out, MealTimeMorning)
	}
	if evening {
		out = append(out, MealTimeEvening)
	}
	return out
}

// ValidateMealTimes requires a non-empty list of known options
func ValidateMealTimes(options []MealTimeOption) error {
	if len(options) == 0 {
		return ErrMissingField("meal_times")
	}
	for _, o := range options {
		if !o.IsValid() {
			return ErrValidation("invalid meal time " + string(o)).WithDetail("meal_time", string(o))
		}
	}
	return nil
}
