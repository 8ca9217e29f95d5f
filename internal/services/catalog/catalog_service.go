package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Service implements servicesports.CatalogService
type Service struct {
	plans       ports.MealPlanRepository
	restaurants ports.RestaurantDirectory
	clock       timeutil.Clock
	logger      ports.Logger
}

// NewService creates a new catalog service
func NewService(plans ports.MealPlanRepository, restaurants ports.RestaurantDirectory, clock timeutil.Clock, logger ports.Logger) *Service {
	return &Service{plans: plans, restaurants: restaurants, clock: clock, logger: logger}
}

var _ servicesports.CatalogService = (*Service)(nil)

// CreateMealPlan publishes a new active plan. Subscriber counts always start at zero.
func (s *Service) CreateMealPlan(ctx context.Context, actingUserID string, plan *domain.MealPlan) (*domain.MealPlan, error) {
	if plan == nil {
		return nil, domain.ErrValidation("meal plan is required")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.GetRestaurant(ctx, plan.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.OwnerID != actingUserID {
		return nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to publish plans for this restaurant").
			WithDetail("restaurant_id", plan.RestaurantID)
	}
	if plan.Tier == domain.PlanTierCustom && (plan.CustomFor == nil || *plan.CustomFor == "") {
		return nil, domain.ErrMissingField("custom_for")
	}

	now := s.clock.Now()
	created := *plan
	created.ID = uuid.New().String()
	created.CurrentSubscribers = 0
	created.IsActive = true
	created.IsCustom = plan.CustomFor != nil && *plan.CustomFor != ""
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.plans.Create(ctx, &created); err != nil {
		s.logger.Error("create meal plan failed",
			ports.String("restaurant_id", plan.RestaurantID),
			ports.Err(err))
		return nil, fmt.Errorf("create meal plan: %w", err)
	}

	s.logger.Info("meal plan created",
		ports.String("meal_plan_id", created.ID),
		ports.String("restaurant_id", created.RestaurantID),
		ports.String("duration", string(created.Duration)))
	return &created, nil
}

func (s *Service) GetMealPlan(ctx context.Context, id string) (*domain.MealPlan, error) {
	if id == "" {
		return nil, domain.ErrMissingField("meal_plan_id")
	}
	return s.plans.GetByID(ctx, id)
}

func (s *Service) ListActivePlans(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error) {
	return s.plans.ListActive(ctx, restaurantID)
}

// ToggleMealPlanStatus opens or closes a plan to new subscribers. Existing
// subscriptions keep renewing either way.
func (s *Service) ToggleMealPlanStatus(ctx context.Context, actingUserID, planID string) (*domain.MealPlan, error) {
	if planID == "" {
		return nil, domain.ErrMissingField("meal_plan_id")
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.GetRestaurant(ctx, plan.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.OwnerID != actingUserID {
		return nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to update this meal plan").
			WithDetail("meal_plan_id", planID)
	}

	now := s.clock.Now()
	if err := s.plans.SetActive(ctx, plan.ID, !plan.IsActive, now); err != nil {
		return nil, fmt.Errorf("toggle meal plan status: %w", err)
	}
	plan.IsActive = !plan.IsActive
	plan.UpdatedAt = now

	s.logger.Info("meal plan status changed",
		ports.String("meal_plan_id", plan.ID),
		ports.String("restaurant_id", plan.RestaurantID),
		ports.Bool("is_active", plan.IsActive))
	return plan, nil
}
