package mealplan

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/handlers/respond"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// Handler serves /api/v1/meal-plans
type Handler struct {
	catalog  ports.CatalogService
	logger   *zap.Logger
	timeouts *resilience.TimeoutConfig
}

func NewHandler(catalog ports.CatalogService, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger, timeouts: resilience.DefaultTimeoutConfig()}
}

// Register mounts the public reads and the vendor-only writes
func (h *Handler) Register(router *httprouter.Router, requireVendor func(httprouter.Handle) httprouter.Handle) {
	router.GET("/api/v1/meal-plans", h.ListMealPlans)
	router.GET("/api/v1/meal-plans/:id", h.GetMealPlan)
	router.POST("/api/v1/meal-plans", requireVendor(h.CreateMealPlan))
	router.PUT("/api/v1/meal-plans/:id/toggle-status", requireVendor(h.ToggleStatus))
}

// CreateMealPlanRequest is the POST body. Server-owned fields are not accepted.
type CreateMealPlanRequest struct {
	RestaurantID   string              `json:"restaurant_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Tier           domain.PlanTier     `json:"tier"`
	Duration       domain.PlanDuration `json:"duration"`
	Price          decimal.Decimal     `json:"price"`
	MaxSubscribers *int                `json:"max_subscribers,omitempty"`
	CustomFor      *string             `json:"custom_for,omitempty"`
	WeeklyMenu     []domain.DayMenu    `json:"weekly_menu"`
}

// CreateMealPlan handles POST /api/v1/meal-plans
func (h *Handler) CreateMealPlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CreateMealPlanRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	plan, err := h.catalog.CreateMealPlan(ctx, auth.UserID(r.Context()), &domain.MealPlan{
		RestaurantID:   req.RestaurantID,
		Name:           req.Name,
		Description:    req.Description,
		Tier:           req.Tier,
		Duration:       req.Duration,
		Price:          req.Price,
		MaxSubscribers: req.MaxSubscribers,
		CustomFor:      req.CustomFor,
		WeeklyMenu:     req.WeeklyMenu,
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, plan)
}

// ToggleStatus handles PUT /api/v1/meal-plans/:id/toggle-status
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	plan, err := h.catalog.ToggleMealPlanStatus(ctx, auth.UserID(r.Context()), ps.ByName("id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, plan)
}

// GetMealPlan handles GET /api/v1/meal-plans/:id
func (h *Handler) GetMealPlan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	plan, err := h.catalog.GetMealPlan(ctx, ps.ByName("id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, plan)
}

// ListMealPlans handles GET /api/v1/meal-plans?restaurant_id=
func (h *Handler) ListMealPlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	plans, err := h.catalog.ListActivePlans(ctx, r.URL.Query().Get("restaurant_id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if plans == nil {
		plans = []*domain.MealPlan{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"meal_plans": plans})
}
