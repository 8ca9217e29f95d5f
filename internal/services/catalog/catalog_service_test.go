package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/mealplan-service/internal/adapters/memory"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/testutil/fixtures"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

func newService() (*Service, *memory.Store) {
	store := memory.NewStore()
	_ = store.Directory().PutRestaurant(context.Background(), domain.Restaurant{ID: fixtures.RestaurantID, OwnerID: fixtures.RestaurantOwnerID})
	clock := timeutil.NewFixedClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	return NewService(store.MealPlans(), store.Directory(), clock, mocks.NewMockLogger()), store
}

func TestCreateMealPlan(t *testing.T) {
	svc, _ := newService()
	draft := fixtures.NewMealPlan().WithCurrentSubscribers(7).Build()
	draft.IsActive = false

	created, err := svc.CreateMealPlan(context.Background(), fixtures.RestaurantOwnerID, draft)
	require.NoError(t, err)

	assert.NotEqual(t, draft.ID, created.ID)
	assert.Equal(t, 0, created.CurrentSubscribers)
	assert.True(t, created.IsActive)

	got, err := svc.GetMealPlan(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Len(t, got.WeeklyMenu, 6)
}

func TestCreateMealPlan_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		plan  func() *domain.MealPlan
		check func(error) bool
	}{
		{
			name:  "not the owner",
			actor: "someone",
			plan:  func() *domain.MealPlan { return fixtures.NewMealPlan().Build() },
			check: domain.IsConflictError,
		},
		{
			name:  "saturday menu",
			actor: fixtures.RestaurantOwnerID,
			plan: func() *domain.MealPlan {
				return fixtures.NewMealPlan().WithMenu(domain.DayMenu{
					Day:      "saturday",
					VegItems: []domain.MenuItem{fixtures.Item("x", "X", "1.00")},
				}).Build()
			},
			check: domain.IsValidationError,
		},
		{
			name:  "day without items",
			actor: fixtures.RestaurantOwnerID,
			plan: func() *domain.MealPlan {
				return fixtures.NewMealPlan().WithMenu(domain.DayMenu{Day: domain.Monday}).Build()
			},
			check: domain.IsValidationError,
		},
		{
			name:  "custom tier without user",
			actor: fixtures.RestaurantOwnerID,
			plan: func() *domain.MealPlan {
				p := fixtures.NewMealPlan().Build()
				p.Tier = domain.PlanTierCustom
				return p
			},
			check: domain.IsValidationError,
		},
		{
			name:  "unknown restaurant",
			actor: fixtures.RestaurantOwnerID,
			plan: func() *domain.MealPlan {
				p := fixtures.NewMealPlan().Build()
				p.RestaurantID = "elsewhere"
				return p
			},
			check: domain.IsNotFoundError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService()
			_, err := svc.CreateMealPlan(context.Background(), tt.actor, tt.plan())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestListActivePlans(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	require.NoError(t, store.MealPlans().Create(ctx, fixtures.NewMealPlan().Build()))
	require.NoError(t, store.MealPlans().Create(ctx, fixtures.NewMealPlan().Inactive().Build()))

	other := fixtures.NewMealPlan().Build()
	other.RestaurantID = "rest-2"
	require.NoError(t, store.MealPlans().Create(ctx, other))

	all, err := svc.ListActivePlans(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListActivePlans(ctx, fixtures.RestaurantID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestToggleMealPlanStatus(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	plan := fixtures.NewMealPlan().Build()
	require.NoError(t, store.MealPlans().Create(ctx, plan))

	_, err := svc.ToggleMealPlanStatus(ctx, "someone", plan.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotOwner))

	toggled, err := svc.ToggleMealPlanStatus(ctx, fixtures.RestaurantOwnerID, plan.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err := svc.ListActivePlans(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, active)

	toggled, err = svc.ToggleMealPlanStatus(ctx, fixtures.RestaurantOwnerID, plan.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = svc.ToggleMealPlanStatus(ctx, fixtures.RestaurantOwnerID, "missing")
	assert.True(t, domain.IsNotFoundError(err))
}
