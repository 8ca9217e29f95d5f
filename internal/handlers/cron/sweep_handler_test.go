package cron

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

var fixedNow = time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*httprouter.Router, *mocks.MockSweepService) {
	sweep := new(mocks.MockSweepService)
	router := httprouter.New()
	NewSweepHandler(sweep, timeutil.NewFixedClock(fixedNow), zaptest.NewLogger(t), "s3cret").Register(router)
	return router, sweep
}

func post(router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/cron/daily-sweep", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRunDailySweep_Authentication(t *testing.T) {
	router, sweep := setup(t)
	sweep.On("RunDailySweep", mock.Anything, fixedNow).Return(&ports.SweepResult{AsOf: fixedNow}, nil)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"wrong secret", map[string]string{"X-Cron-Secret": "nope"}, http.StatusUnauthorized},
		{"header secret", map[string]string{"X-Cron-Secret": "s3cret"}, http.StatusOK},
		{"bearer secret", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(router, "", tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRunDailySweep_EmptySecretRejects(t *testing.T) {
	sweep := new(mocks.MockSweepService)
	router := httprouter.New()
	NewSweepHandler(sweep, timeutil.NewFixedClock(fixedNow), zaptest.NewLogger(t), "").Register(router)

	rec := post(router, "", map[string]string{"X-Cron-Secret": ""})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	sweep.AssertNotCalled(t, "RunDailySweep", mock.Anything, mock.Anything)
}

func TestRunDailySweep_AsOfDate(t *testing.T) {
	router, sweep := setup(t)
	asOf := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	sweep.On("RunDailySweep", mock.Anything, asOf).Return(&ports.SweepResult{
		AsOf:                 asOf,
		RemindersSent:        2,
		SubscriptionsRenewed: 1,
		OrdersCreated:        4,
	}, nil)

	rec := post(router, `{"as_of_date":"2025-03-07"}`, map[string]string{"X-Cron-Secret": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(2), resp["reminders_sent"])
	assert.Equal(t, float64(4), resp["orders_created"])

	rec = post(router, `{"as_of_date":"07/03/2025"}`, map[string]string{"X-Cron-Secret": "s3cret"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunDailySweep_PartialAndFailures(t *testing.T) {
	router, sweep := setup(t)
	auth := map[string]string{"X-Cron-Secret": "s3cret"}

	sweep.On("RunDailySweep", mock.Anything, fixedNow).Return(&ports.SweepResult{
		AsOf:   fixedNow,
		Errors: []ports.SweepError{{Pass: "renewal", SubscriptionID: "sub-1", Error: "boom"}},
	}, nil).Once()
	rec := post(router, "", auth)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Contains(t, rec.Body.String(), "sub-1")

	sweep.On("RunDailySweep", mock.Anything, fixedNow).Return(nil, domain.ErrSweepInProgress()).Once()
	rec = post(router, "", auth)
	assert.Equal(t, http.StatusConflict, rec.Code)

	sweep.On("RunDailySweep", mock.Anything, fixedNow).
		Return(nil, domain.WrapError(domain.ErrorCodeLockUnavailable, "acquire sweep lock", errors.New("redis down"))).Once()
	rec = post(router, "", auth)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router, _ := setup(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cron/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
