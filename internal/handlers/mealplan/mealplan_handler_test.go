package mealplan

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
)

func asVendor(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := auth.WithPrincipal(r.Context(), &auth.Principal{UserID: "owner-1", Role: auth.RoleVendor})
		next(w, r.WithContext(ctx), ps)
	}
}

func setup(t *testing.T) (*httprouter.Router, *mocks.MockCatalogService) {
	catalog := new(mocks.MockCatalogService)
	router := httprouter.New()
	NewHandler(catalog, zaptest.NewLogger(t)).Register(router, asVendor)
	return router, catalog
}

func TestCreateMealPlan(t *testing.T) {
	router, catalog := setup(t)

	catalog.On("CreateMealPlan", mock.Anything, "owner-1", mock.MatchedBy(func(p *domain.MealPlan) bool {
		return p.RestaurantID == "r-1" &&
			p.Price.Equal(decimal.RequireFromString("1499.50")) &&
			len(p.WeeklyMenu) == 1 &&
			p.WeeklyMenu[0].Day == domain.Monday &&
			p.CurrentSubscribers == 0
	})).Return(&domain.MealPlan{ID: "plan-1", RestaurantID: "r-1"}, nil)

	body := `{
		"restaurant_id": "r-1",
		"name": "Weekday lunches",
		"tier": "regular",
		"duration": "weekly",
		"price": "1499.50",
		"weekly_menu": [{"day": "monday", "veg_items": [{"item_id": "i1", "name": "Dal", "price": "120"}], "vegan_items": [], "non_veg_items": []}]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/meal-plans", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "plan-1")
	catalog.AssertExpectations(t)
}

func TestCreateMealPlan_RejectsServerFields(t *testing.T) {
	router, catalog := setup(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/meal-plans",
		strings.NewReader(`{"restaurant_id":"r-1","current_subscribers":10}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	catalog.AssertNotCalled(t, "CreateMealPlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateMealPlan_NotOwner(t *testing.T) {
	router, catalog := setup(t)
	catalog.On("CreateMealPlan", mock.Anything, "owner-1", mock.Anything).
		Return(nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/meal-plans", strings.NewReader(`{"restaurant_id":"r-2"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAndListMealPlans(t *testing.T) {
	router, catalog := setup(t)
	catalog.On("GetMealPlan", mock.Anything, "plan-1").Return(&domain.MealPlan{ID: "plan-1"}, nil)
	catalog.On("GetMealPlan", mock.Anything, "missing").Return(nil, domain.ErrMealPlanNotFound("missing"))
	catalog.On("ListActivePlans", mock.Anything, "r-1").Return([]*domain.MealPlan{{ID: "plan-1"}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/meal-plans/plan-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/meal-plans/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/meal-plans?restaurant_id=r-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"meal_plans"`)
}

func TestToggleStatus(t *testing.T) {
	router, catalog := setup(t)
	catalog.On("ToggleMealPlanStatus", mock.Anything, "owner-1", "plan-1").
		Return(&domain.MealPlan{ID: "plan-1", IsActive: false}, nil)
	catalog.On("ToggleMealPlanStatus", mock.Anything, "owner-1", "plan-2").
		Return(nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/meal-plans/plan-1/toggle-status", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"is_active":false`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/meal-plans/plan-2/toggle-status", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	catalog.AssertExpectations(t)
}
