package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// PlanTier classifies a meal plan's audience
type PlanTier string

const (
	PlanTierRegular  PlanTier = "regular"
	PlanTierCustom   PlanTier = "custom"
	PlanTierBusiness PlanTier = "business"
)

// PlanDuration is the length of one subscription period
type PlanDuration string

const (
	PlanDurationWeekly  PlanDuration = "weekly"
	PlanDurationMonthly PlanDuration = "monthly"
)

// IsValid reports whether d is a known duration
func (d PlanDuration) IsValid() bool {
	return d == PlanDurationWeekly || d == PlanDurationMonthly
}

// AddTo returns the end of a period starting at start.
// Weekly adds 7 calendar days; monthly adds one calendar month with
// Go's normalization (Jan 31 + 1 month = Mar 3 or Mar 2).
func (d PlanDuration) AddTo(start time.Time) time.Time {
	switch d {
	case PlanDurationMonthly:
		return timeutil.ToUTC(start.AddDate(0, 1, 0))
	default:
		return timeutil.ToUTC(start.AddDate(0, 0, 7))
	}
}

// DietType selects one of a day's item lists
type DietType string

const (
	DietVegetarian    DietType = "vegetarian"
	DietVegan         DietType = "vegan"
	DietNonVegetarian DietType = "non-vegetarian"
)

// IsValid reports whether t is a known diet type
func (t DietType) IsValid() bool {
	switch t {
	case DietVegetarian, DietVegan, DietNonVegetarian:
		return true
	}
	return false
}

// Weekday names a menu day. Saturday is never a delivery day.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
)

var weekdays = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
}

// IsValid reports whether w is a delivery day
func (w Weekday) IsValid() bool {
	_, ok := weekdays[w]
	return ok
}

// TimeWeekday converts to time.Weekday. ok is false for unknown days.
func (w Weekday) TimeWeekday() (time.Weekday, bool) {
	wd, ok := weekdays[w]
	return wd, ok
}

// WeekdayOf returns the menu day for t, or "" on Saturday
func WeekdayOf(t time.Time) Weekday {
	wd := t.UTC().Weekday()
	for name, v := range weekdays {
		if v == wd {
			return name
		}
	}
	return ""
}

// MenuItem is one dish on a day's menu
type MenuItem struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// DayMenu lists the dishes served on one weekday, per diet
type DayMenu struct {
	Day         Weekday    `json:"day"`
	VegItems    []MenuItem `json:"veg_items"`
	VeganItems  []MenuItem `json:"vegan_items"`
	NonVegItems []MenuItem `json:"non_veg_items"`
}

// ItemsFor returns the list matching diet
func (d DayMenu) ItemsFor(diet DietType) []MenuItem {
	switch diet {
	case DietVegetarian:
		return d.VegItems
	case DietVegan:
		return d.VeganItems
	case DietNonVegetarian:
		return d.NonVegItems
	}
	return nil
}

// MealPlan is a restaurant's recurring weekly menu offering
type MealPlan struct {
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	MaxSubscribers     *int            `json:"max_subscribers,omitempty"`
	CustomFor          *string         `json:"custom_for,omitempty"`
	Price              decimal.Decimal `json:"price"`
	ID                 string          `json:"id"`
	RestaurantID       string          `json:"restaurant_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Tier               PlanTier        `json:"tier"`
	Duration           PlanDuration    `json:"duration"`
	WeeklyMenu         []DayMenu       `json:"weekly_menu"`
	CurrentSubscribers int             `json:"current_subscribers"`
	IsActive           bool            `json:"is_active"`
	IsCustom           bool            `json:"is_custom"`
}

// HasCapacity reports whether one more subscriber fits
func (p *MealPlan) HasCapacity() bool {
	return p.MaxSubscribers == nil || p.CurrentSubscribers < *p.MaxSubscribers
}

// ReservedFor reports whether a custom plan is bound to a different user
func (p *MealPlan) ReservedFor(userID string) bool {
	return p.CustomFor == nil || *p.CustomFor == "" || *p.CustomFor == userID
}

// DayMenuFor returns the menu for day, if any
func (p *MealPlan) DayMenuFor(day Weekday) (DayMenu, bool) {
	for _, d := range p.WeeklyMenu {
		if d.Day == day {
			return d, true
		}
	}
	return DayMenu{}, false
}

// EndDateFrom derives the end of the period starting at start
func (p *MealPlan) EndDateFrom(start time.Time) time.Time {
	return p.Duration.AddTo(start)
}

// Validate checks the plan's shape before it is stored
func (p *MealPlan) Validate() error {
	if p.RestaurantID == "" {
		return ErrMissingField("restaurant_id")
	}
	if p.Name == "" {
		return ErrMissingField("name")
	}
	if len(p.Name) > 100 {
		return ErrValidation("name cannot exceed 100 characters")
	}
	if len(p.Description) > 500 {
		return ErrValidation("description cannot exceed 500 characters")
	}
	switch p.Tier {
	case PlanTierRegular, PlanTierCustom, PlanTierBusiness:
	default:
		return ErrValidation(fmt.Sprintf("invalid tier %q", p.Tier))
	}
	if !p.Duration.IsValid() {
		return ErrValidation(fmt.Sprintf("invalid duration %q", p.Duration))
	}
	if p.Price.IsNegative() {
		return ErrValidation("price cannot be negative")
	}
	if p.MaxSubscribers != nil && *p.MaxSubscribers < 0 {
		return ErrValidation("max_subscribers cannot be negative")
	}
	if len(p.WeeklyMenu) == 0 {
		return NewDomainError(ErrorCodeValidationMenu, "weekly menu is required")
	}

	seen := make(map[Weekday]bool, len(p.WeeklyMenu))
	for _, d := range p.WeeklyMenu {
		if !d.Day.IsValid() {
			return NewDomainError(ErrorCodeValidationMenu, fmt.Sprintf("invalid day %q", d.Day)).
				WithDetail("day", string(d.Day))
		}
		if seen[d.Day] {
			return NewDomainError(ErrorCodeValidationMenu, fmt.Sprintf("duplicate day %q", d.Day)).
				WithDetail("day", string(d.Day))
		}
		seen[d.Day] = true

		if len(d.VegItems)+len(d.VeganItems)+len(d.NonVegItems) == 0 {
			return NewDomainError(ErrorCodeValidationMenu, fmt.Sprintf("%s must have at least one item", d.Day)).
				WithDetail("day", string(d.Day))
		}
		for _, list := range [][]MenuItem{d.VegItems, d.VeganItems, d.NonVegItems} {
			for _, item := range list {
				if item.ItemID == "" || item.Name == "" {
					return NewDomainError(ErrorCodeValidationMenu, fmt.Sprintf("%s has an item without id or name", d.Day))
				}
				if item.Price.IsNegative() {
					return NewDomainError(ErrorCodeValidationMenu, fmt.Sprintf("%s item %s has a negative price", d.Day, item.Name))
				}
			}
		}
	}
	return nil
}
