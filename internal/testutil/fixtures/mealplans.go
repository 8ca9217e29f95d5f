package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

const (
	// RestaurantID and RestaurantOwnerID identify the default vendor
	RestaurantID      = "rest-1"
	RestaurantOwnerID = "owner-1"
)

// MealPlanBuilder provides fluent API for building test meal plans.
type MealPlanBuilder struct {
	plan *domain.MealPlan
}

// NewMealPlan creates an active weekly plan with a vegetarian list on every day
// (three items totaling 9.00), vegan items on Sunday only, and no non-veg items.
func NewMealPlan() *MealPlanBuilder {
	now := time.Now().UTC()
	days := []domain.Weekday{domain.Sunday, domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday, domain.Friday}

	menu := make([]domain.DayMenu, 0, len(days))
	for _, d := range days {
		dm := domain.DayMenu{
			Day: d,
			VegItems: []domain.MenuItem{
				Item(string(d)+"-dal", "Dal", "2.50"),
				Item(string(d)+"-roti", "Roti", "3.00"),
				Item(string(d)+"-rice", "Rice", "3.50"),
			},
		}
		if d == domain.Sunday {
			dm.VeganItems = []domain.MenuItem{Item("sunday-salad", "Salad", "4.00")}
		}
		menu = append(menu, dm)
	}

	return &MealPlanBuilder{
		plan: &domain.MealPlan{
			ID:           uuid.New().String(),
			RestaurantID: RestaurantID,
			Name:         "Home Thali",
			Description:  "Two meals a day",
			Tier:         domain.PlanTierRegular,
			Duration:     domain.PlanDurationWeekly,
			Price:        decimal.NewFromInt(10),
			WeeklyMenu:   menu,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

// Item builds a menu item with a decimal price string.
func Item(id, name, price string) domain.MenuItem {
	return domain.MenuItem{ItemID: id, Name: name, Price: decimal.RequireFromString(price)}
}

func (b *MealPlanBuilder) WithID(id string) *MealPlanBuilder {
	b.plan.ID = id
	return b
}

func (b *MealPlanBuilder) WithDuration(d domain.PlanDuration) *MealPlanBuilder {
	b.plan.Duration = d
	return b
}

func (b *MealPlanBuilder) WithMaxSubscribers(n int) *MealPlanBuilder {
	b.plan.MaxSubscribers = IntPtr(n)
	return b
}

func (b *MealPlanBuilder) WithCurrentSubscribers(n int) *MealPlanBuilder {
	b.plan.CurrentSubscribers = n
	return b
}

func (b *MealPlanBuilder) Inactive() *MealPlanBuilder {
	b.plan.IsActive = false
	return b
}

// CustomFor binds the plan to one user
func (b *MealPlanBuilder) CustomFor(userID string) *MealPlanBuilder {
	b.plan.Tier = domain.PlanTierCustom
	b.plan.IsCustom = true
	b.plan.CustomFor = StringPtr(userID)
	return b
}

func (b *MealPlanBuilder) WithMenu(menu ...domain.DayMenu) *MealPlanBuilder {
	b.plan.WeeklyMenu = menu
	return b
}

func (b *MealPlanBuilder) Build() *domain.MealPlan {
	return b.plan
}
