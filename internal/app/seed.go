package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// Demo identifiers written by SeedDemo
const (
	DemoRestaurantID = "demo-restaurant"
	DemoVendorID     = "demo-vendor"
	DemoCustomerID   = "demo-customer"
	DemoMealPlanID   = "demo-weekly-thali"
)

// SeedDemo writes one restaurant, one customer and one weekly plan. Running
// it again leaves an existing plan untouched.
func SeedDemo(ctx context.Context, repos Repositories, now time.Time, logger *zap.Logger) error {
	if err := repos.Directory.PutRestaurant(ctx, domain.Restaurant{
		ID:      DemoRestaurantID,
		Name:    "Demo Kitchen",
		OwnerID: DemoVendorID,
	}); err != nil {
		return fmt.Errorf("seed restaurant: %w", err)
	}
	if err := repos.Directory.PutCustomer(ctx, domain.Customer{
		ID:    DemoCustomerID,
		Name:  "Demo Customer",
		Email: "customer@mealplan.local",
	}); err != nil {
		return fmt.Errorf("seed customer: %w", err)
	}

	_, err := repos.MealPlans.GetByID(ctx, DemoMealPlanID)
	switch {
	case err == nil:
		logger.Info("Demo meal plan already present", zap.String("meal_plan_id", DemoMealPlanID))
		return nil
	case !domain.IsNotFoundError(err):
		return fmt.Errorf("look up demo plan: %w", err)
	}

	plan := DemoMealPlan(now)
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("demo plan: %w", err)
	}
	if err := repos.MealPlans.Create(ctx, plan); err != nil {
		return fmt.Errorf("seed meal plan: %w", err)
	}

	logger.Info("Seeded demo data",
		zap.String("restaurant_id", DemoRestaurantID),
		zap.String("customer_id", DemoCustomerID),
		zap.String("meal_plan_id", plan.ID),
	)
	return nil
}

// DemoMealPlan is a weekly plan with veg and non-veg lists Sunday to Friday
func DemoMealPlan(now time.Time) *domain.MealPlan {
	days := []domain.Weekday{domain.Sunday, domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday, domain.Friday}
	menu := make([]domain.DayMenu, 0, len(days))
	for _, d := range days {
		menu = append(menu, domain.DayMenu{
			Day: d,
			VegItems: []domain.MenuItem{
				demoItem(string(d)+"-dal", "Dal tadka", "3.50"),
				demoItem(string(d)+"-roti", "Roti", "1.50"),
			},
			NonVegItems: []domain.MenuItem{
				demoItem(string(d)+"-curry", "Chicken curry", "5.50"),
				demoItem(string(d)+"-rice", "Jeera rice", "2.00"),
			},
		})
	}

	return &domain.MealPlan{
		ID:           DemoMealPlanID,
		RestaurantID: DemoRestaurantID,
		Name:         "Weekly Thali",
		Description:  "Lunch and dinner, six days a week",
		Tier:         domain.PlanTierRegular,
		Duration:     domain.PlanDurationWeekly,
		Price:        decimal.NewFromInt(60),
		WeeklyMenu:   menu,
		IsActive:     true,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

func demoItem(id, name, price string) domain.MenuItem {
	return domain.MenuItem{ItemID: id, Name: name, Price: decimal.RequireFromString(price)}
}
