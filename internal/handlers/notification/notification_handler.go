package notification

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/handlers/respond"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// Handler serves the caller's notification inbox
type Handler struct {
	inbox    ports.NotificationService
	logger   *zap.Logger
	timeouts *resilience.TimeoutConfig
}

func NewHandler(inbox ports.NotificationService, logger *zap.Logger) *Handler {
	return &Handler{inbox: inbox, logger: logger, timeouts: resilience.DefaultTimeoutConfig()}
}

func (h *Handler) Register(router *httprouter.Router, requireUser func(httprouter.Handle) httprouter.Handle) {
	router.GET("/api/v1/notifications", requireUser(h.ListNotifications))
	router.PUT("/api/v1/notifications/:id/read", requireUser(h.MarkRead))
}

// ListNotifications handles GET /api/v1/notifications?limit=
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	list, err := h.inbox.ListNotifications(ctx, auth.UserID(r.Context()), limit)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"notifications": list})
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	if err := h.inbox.MarkRead(ctx, ps.ByName("id"), auth.UserID(r.Context())); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
