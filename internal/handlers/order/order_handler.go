package order

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/handlers/respond"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// Handler serves /api/v1/orders
type Handler struct {
	orders   ports.OrderService
	logger   *zap.Logger
	timeouts *resilience.TimeoutConfig
}

func NewHandler(orders ports.OrderService, logger *zap.Logger) *Handler {
	return &Handler{orders: orders, logger: logger, timeouts: resilience.DefaultTimeoutConfig()}
}

// Register mounts the order routes. Status updates additionally need the vendor role.
// Upcoming orders live outside /orders/ since httprouter cannot mix a static
// segment with the :id wildcard.
func (h *Handler) Register(router *httprouter.Router, requireUser, requireVendor func(httprouter.Handle) httprouter.Handle) {
	router.GET("/api/v1/orders/:id", requireUser(h.GetOrder))
	router.PUT("/api/v1/orders/:id/status", requireVendor(h.UpdateStatus))
	router.POST("/api/v1/orders/:id/cancel", requireUser(h.CancelOrder))
	router.GET("/api/v1/upcoming-orders", requireUser(h.ListUpcoming))
}

// UpdateStatusRequest is the PUT body
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// CancelOrderRequest is the optional cancel body
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	order, err := h.orders.GetOrder(ctx, ps.ByName("id"), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/v1/orders/:id/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req UpdateStatusRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	order, err := h.orders.UpdateStatus(ctx, ps.ByName("id"), auth.UserID(r.Context()), req.Status)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	respond.JSON(w, http.StatusOK, order)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel. The body is optional.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req CancelOrderRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(w, r, &req); err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	order, err := h.orders.CancelOrder(ctx, ps.ByName("id"), auth.UserID(r.Context()), req.Reason)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, order)
}

// ListUpcoming handles GET /api/v1/upcoming-orders
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	orders, err := h.orders.ListUpcomingOrders(ctx, auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"orders": orders, "count": len(orders)})
}
