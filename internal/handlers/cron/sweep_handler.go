package cron

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/handlers/respond"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// SweepHandler exposes the daily sweep to an external scheduler
type SweepHandler struct {
	sweep      ports.SweepService
	clock      timeutil.Clock
	logger     *zap.Logger
	timeouts   *resilience.TimeoutConfig
	cronSecret string
}

// NewSweepHandler creates a new sweep cron handler
func NewSweepHandler(
	sweep ports.SweepService,
	clock timeutil.Clock,
	logger *zap.Logger,
	cronSecret string,
) *SweepHandler {
	return &SweepHandler{
		sweep:      sweep,
		clock:      clock,
		logger:     logger,
		timeouts:   resilience.DefaultTimeoutConfig(),
		cronSecret: cronSecret,
	}
}

// Register mounts POST /cron/daily-sweep and GET /cron/health
func (h *SweepHandler) Register(router *httprouter.Router) {
	router.POST("/cron/daily-sweep", h.RunDailySweep)
	router.GET("/cron/health", h.HealthCheck)
}

// RunSweepRequest is the optional request body
type RunSweepRequest struct {
	// AsOfDate runs the sweep as of midnight UTC on that date (YYYY-MM-DD)
	AsOfDate *string `json:"as_of_date"`
}

// RunSweepResponse wraps the sweep result
type RunSweepResponse struct {
	Success bool `json:"success"`
	*ports.SweepResult
	ProcessedAt string `json:"processed_at"`
}

// RunDailySweep handles POST /cron/daily-sweep
func (h *SweepHandler) RunDailySweep(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.logger.Info("Daily sweep cron triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request", zap.String("remote_addr", r.RemoteAddr))
		respond.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "unauthorized"})
		return
	}

	var req RunSweepRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, "invalid request body")
			return
		}
	}

	asOf := h.clock.Now()
	if req.AsOfDate != nil {
		parsed, err := timeutil.ParseDate("2006-01-02", *req.AsOfDate)
		if err != nil {
			respond.BadRequest(w, "invalid as_of_date format, want YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	// the sweep outlives a disconnecting scheduler
	ctx, cancel := h.timeouts.SweepContext(context.WithoutCancel(r.Context()))
	defer cancel()

	result, err := h.sweep.RunDailySweep(ctx, asOf)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusPartialContent
	}
	respond.JSON(w, status, RunSweepResponse{
		Success:     len(result.Errors) == 0,
		SweepResult: result,
		ProcessedAt: h.clock.Now().Format(time.RFC3339),
	})
}

// authenticateRequest accepts X-Cron-Secret or Authorization: Bearer <secret>.
// An empty configured secret rejects everything.
func (h *SweepHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	if secretEqual(r.Header.Get("X-Cron-Secret"), h.cronSecret) {
		return true
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") && secretEqual(strings.TrimPrefix(authHeader, "Bearer "), h.cronSecret) {
		return true
	}
	return false
}

func secretEqual(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// HealthCheck handles GET /cron/health for monitoring
func (h *SweepHandler) HealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   h.clock.Now().Format(time.RFC3339),
	})
}
