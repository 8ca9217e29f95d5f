package subscription

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/handlers/respond"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Handler serves /api/v1/subscriptions
type Handler struct {
	service  ports.SubscriptionService
	orders   ports.OrderService
	logger   *zap.Logger
	timeouts *resilience.TimeoutConfig
}

// NewHandler creates a subscription HTTP handler
func NewHandler(service ports.SubscriptionService, orders ports.OrderService, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		orders:   orders,
		logger:   logger,
		timeouts: resilience.DefaultTimeoutConfig(),
	}
}

// Register mounts the routes behind requireUser
func (h *Handler) Register(router *httprouter.Router, requireUser func(httprouter.Handle) httprouter.Handle) {
	router.POST("/api/v1/subscriptions", requireUser(h.CreateSubscription))
	router.GET("/api/v1/subscriptions", requireUser(h.ListSubscriptions))
	router.GET("/api/v1/subscriptions/:id", requireUser(h.GetSubscription))
	router.PUT("/api/v1/subscriptions/:id", requireUser(h.UpdateSubscription))
	router.POST("/api/v1/subscriptions/:id/cancel", requireUser(h.CancelSubscription))
	router.GET("/api/v1/subscriptions/:id/orders", requireUser(h.ListOrders))
}

// CreateSubscriptionRequest is the POST body
type CreateSubscriptionRequest struct {
	MealPlanID           string                  `json:"meal_plan_id"`
	StartDate            string                  `json:"start_date,omitempty"`
	DietType             domain.DietType         `json:"diet_type"`
	MealTimes            []domain.MealTimeOption `json:"meal_times"`
	PaymentMethod        domain.PaymentMethod    `json:"payment_method"`
	DeliveryAddress      domain.Address          `json:"delivery_address"`
	DeliveryInstructions string                  `json:"delivery_instructions,omitempty"`
}

// UpdateSubscriptionRequest is the PUT body; omitted fields stay as they are
type UpdateSubscriptionRequest struct {
	DeliveryAddress      *domain.Address         `json:"delivery_address,omitempty"`
	DeliveryInstructions *string                 `json:"delivery_instructions,omitempty"`
	MealTimes            []domain.MealTimeOption `json:"meal_times,omitempty"`
}

// SubscriptionResponse is the create response
type SubscriptionResponse struct {
	Subscription *domain.Subscription `json:"subscription"`
	Orders       []*domain.Order      `json:"orders"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// CancelResponse is the cancel response
type CancelResponse struct {
	Subscription    *domain.Subscription `json:"subscription"`
	OrdersCancelled int                  `json:"orders_cancelled"`
	Warnings        []string             `json:"warnings,omitempty"`
}

// CreateSubscription handles POST /api/v1/subscriptions
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CreateSubscriptionRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	start, err := parseStartDate(req.StartDate)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	result, err := h.service.CreateSubscription(ctx, &ports.CreateSubscriptionRequest{
		UserID:               auth.UserID(r.Context()),
		MealPlanID:           req.MealPlanID,
		StartDate:            start,
		DietType:             req.DietType,
		MealTimes:            req.MealTimes,
		PaymentMethod:        req.PaymentMethod,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryInstructions: req.DeliveryInstructions,
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	if len(result.Warnings) > 0 {
		h.logger.Warn("Subscription created with warnings",
			zap.String("subscription_id", result.Subscription.ID),
			zap.Strings("warnings", respond.Warnings(result.Warnings)),
		)
	}

	respond.JSON(w, http.StatusCreated, SubscriptionResponse{
		Subscription: result.Subscription,
		Orders:       nonNilOrders(result.Orders),
		Warnings:     respond.Warnings(result.Warnings),
	})
}

// ListSubscriptions handles GET /api/v1/subscriptions
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	subs, err := h.service.ListSubscriptions(ctx, auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if subs == nil {
		subs = []*domain.Subscription{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
}

// GetSubscription handles GET /api/v1/subscriptions/:id
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	sub, err := h.service.GetSubscription(ctx, ps.ByName("id"), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, sub)
}

// UpdateSubscription handles PUT /api/v1/subscriptions/:id
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req UpdateSubscriptionRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	sub, err := h.service.UpdateSubscription(ctx, &ports.UpdateSubscriptionRequest{
		SubscriptionID: ps.ByName("id"),
		ActingUserID:   auth.UserID(r.Context()),
		Changes: domain.SubscriptionChanges{
			DeliveryAddress:      req.DeliveryAddress,
			DeliveryInstructions: req.DeliveryInstructions,
			MealTimes:            req.MealTimes,
		},
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, sub)
}

// CancelSubscription handles POST /api/v1/subscriptions/:id/cancel
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	result, err := h.service.CancelSubscription(ctx, ps.ByName("id"), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, CancelResponse{
		Subscription:    result.Subscription,
		OrdersCancelled: result.OrdersCancelled,
		Warnings:        respond.Warnings(result.Warnings),
	})
}

// ListOrders handles GET /api/v1/subscriptions/:id/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	orders, err := h.orders.ListSubscriptionOrders(ctx, ps.ByName("id"), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"orders": nonNilOrders(orders)})
}

// parseStartDate accepts a calendar date or an RFC 3339 timestamp
func parseStartDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := timeutil.ParseDate("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationStartDate, "start_date must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}

func nonNilOrders(orders []*domain.Order) []*domain.Order {
	if orders == nil {
		return []*domain.Order{}
	}
	return orders
}
