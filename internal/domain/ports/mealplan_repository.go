package ports

import (
	"context"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// MealPlanRepository persists meal plans and their subscriber counter
type MealPlanRepository interface {
	// Create stores a new plan
	Create(ctx context.Context, plan *domain.MealPlan) error

	// GetByID returns the plan or a MEAL_PLAN_NOT_FOUND error
	GetByID(ctx context.Context, id string) (*domain.MealPlan, error)

	// ListActive lists active plans, optionally filtered by restaurant ("" = all)
	ListActive(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error)

	// SetActive opens or closes the plan to new subscribers
	SetActive(ctx context.Context, id string, active bool, at time.Time) error

	// ReserveSubscriberSlot atomically increments CurrentSubscribers when the plan
	// is active and below MaxSubscribers. It returns false when no slot was taken.
	ReserveSubscriberSlot(ctx context.Context, id string) (bool, error)

	// ReleaseSubscriberSlot atomically decrements CurrentSubscribers, never below zero
	ReleaseSubscriberSlot(ctx context.Context, id string) error
}
