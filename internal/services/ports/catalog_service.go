package ports

import (
	"context"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// CatalogService reads and publishes meal plans
type CatalogService interface {
	// CreateMealPlan validates and stores a plan for a restaurant owned by actingUserID
	CreateMealPlan(ctx context.Context, actingUserID string, plan *domain.MealPlan) (*domain.MealPlan, error)

	GetMealPlan(ctx context.Context, id string) (*domain.MealPlan, error)

	// ListActivePlans lists active plans, optionally for one restaurant
	ListActivePlans(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error)

	// ToggleMealPlanStatus flips IsActive on a plan whose restaurant actingUserID owns
	ToggleMealPlanStatus(ctx context.Context, actingUserID, planID string) (*domain.MealPlan, error)
}
