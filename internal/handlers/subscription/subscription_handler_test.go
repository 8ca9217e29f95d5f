package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
)

// asUser stands in for the bearer middleware
func asUser(userID string) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			ctx := auth.WithPrincipal(r.Context(), &auth.Principal{UserID: userID, Role: auth.RoleCustomer})
			next(w, r.WithContext(ctx), ps)
		}
	}
}

func setup(t *testing.T) (*httprouter.Router, *mocks.MockSubscriptionService, *mocks.MockOrderService) {
	subs := new(mocks.MockSubscriptionService)
	orders := new(mocks.MockOrderService)
	router := httprouter.New()
	NewHandler(subs, orders, zaptest.NewLogger(t)).Register(router, asUser("user-1"))
	return router, subs, orders
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateSubscription_Success(t *testing.T) {
	router, subs, _ := setup(t)

	sub := &domain.Subscription{ID: "sub-1", UserID: "user-1", MealPlanID: "plan-1", TotalAmount: decimal.NewFromInt(700)}
	subs.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req *ports.CreateSubscriptionRequest) bool {
		return req.UserID == "user-1" &&
			req.MealPlanID == "plan-1" &&
			req.DietType == domain.DietVegan &&
			req.StartDate != nil &&
			req.StartDate.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) &&
			len(req.MealTimes) == 1 && req.MealTimes[0] == domain.MealTimeOptionBoth
	})).Return(&ports.SubscriptionResult{
		Subscription: sub,
		Orders:       []*domain.Order{{ID: "o-1"}, {ID: "o-2"}},
		Warnings:     []error{errors.New("DEPENDENCY_NOTIFICATION_FAILED: push failed")},
	}, nil)

	rec := do(router, http.MethodPost, "/api/v1/subscriptions", `{
		"meal_plan_id": "plan-1",
		"start_date": "2025-03-03",
		"diet_type": "vegan",
		"meal_times": ["both"],
		"payment_method": "credit card",
		"delivery_address": {"street": "1 Main", "city": "Pune", "state": "MH", "zip_code": "411001"}
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp SubscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sub-1", resp.Subscription.ID)
	assert.Len(t, resp.Orders, 2)
	assert.Len(t, resp.Warnings, 1)
	subs.AssertExpectations(t)
}

func TestCreateSubscription_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"plan full", domain.NewDomainError(domain.ErrorCodePlanFull, "full"), http.StatusConflict, "CONFLICT_PLAN_FULL"},
		{"plan missing", domain.ErrMealPlanNotFound("plan-1"), http.StatusNotFound, "MEAL_PLAN_NOT_FOUND"},
		{"bad start", domain.NewDomainError(domain.ErrorCodeValidationStartDate, "past"), http.StatusBadRequest, "VALIDATION_START_DATE"},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, subs, _ := setup(t)
			subs.On("CreateSubscription", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := do(router, http.MethodPost, "/api/v1/subscriptions", `{"meal_plan_id":"plan-1","diet_type":"vegan","meal_times":["morning"]}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestCreateSubscription_BadInput(t *testing.T) {
	router, subs, _ := setup(t)

	rec := do(router, http.MethodPost, "/api/v1/subscriptions", `{"meal_plan_id":"plan-1","unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/subscriptions", `{"meal_plan_id":"plan-1","start_date":"next tuesday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_START_DATE")

	subs.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestCancelSubscription(t *testing.T) {
	router, subs, _ := setup(t)

	subs.On("CancelSubscription", mock.Anything, "sub-1", "user-1").Return(&ports.CancelResult{
		Subscription:    &domain.Subscription{ID: "sub-1", Status: domain.SubscriptionStatusCancelled},
		OrdersCancelled: 3,
	}, nil)
	subs.On("CancelSubscription", mock.Anything, "sub-2", "user-1").
		Return(nil, domain.NewDomainError(domain.ErrorCodeAlreadyCancelled, "already cancelled"))
	subs.On("CancelSubscription", mock.Anything, "sub-3", "user-1").
		Return(nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not yours"))

	rec := do(router, http.MethodPost, "/api/v1/subscriptions/sub-1/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CancelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.OrdersCancelled)

	rec = do(router, http.MethodPost, "/api/v1/subscriptions/sub-2/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/subscriptions/sub-3/cancel", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAndListSubscriptions(t *testing.T) {
	router, subs, orders := setup(t)

	subs.On("GetSubscription", mock.Anything, "sub-1", "user-1").Return(&domain.Subscription{ID: "sub-1"}, nil)
	subs.On("GetSubscription", mock.Anything, "other", "user-1").Return(nil, domain.ErrSubscriptionNotFound("other"))
	subs.On("ListSubscriptions", mock.Anything, "user-1").Return(nil, nil)
	orders.On("ListSubscriptionOrders", mock.Anything, "sub-1", "user-1").Return([]*domain.Order{{ID: "o-1"}}, nil)

	rec := do(router, http.MethodGet, "/api/v1/subscriptions/sub-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/subscriptions/other", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/subscriptions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscriptions":[]}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/subscriptions/sub-1/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "o-1")
}

func TestParseStartDate(t *testing.T) {
	got, err := parseStartDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseStartDate("2025-03-03T10:30:00+05:30")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 3, 5, 0, 0, 0, time.UTC)))

	_, err = parseStartDate("03/03/2025")
	assert.True(t, domain.IsValidationError(err))
}

func TestUpdateSubscription(t *testing.T) {
	router, subs, _ := setup(t)

	subs.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(req *ports.UpdateSubscriptionRequest) bool {
		c := req.Changes
		return req.SubscriptionID == "sub-1" &&
			req.ActingUserID == "user-1" &&
			c.DeliveryAddress == nil &&
			c.DeliveryInstructions != nil && *c.DeliveryInstructions == "gate 2" &&
			len(c.MealTimes) == 1 && c.MealTimes[0] == domain.MealTimeOptionEvening
	})).Return(&domain.Subscription{ID: "sub-1", DeliveryInstructions: "gate 2"}, nil)
	subs.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(req *ports.UpdateSubscriptionRequest) bool {
		return req.SubscriptionID == "sub-2"
	})).Return(nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to update this subscription"))

	rec := do(router, http.MethodPut, "/api/v1/subscriptions/sub-1", `{"delivery_instructions":"gate 2","meal_times":["evening"]}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "gate 2")

	rec = do(router, http.MethodPut, "/api/v1/subscriptions/sub-2", `{"delivery_instructions":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(router, http.MethodPut, "/api/v1/subscriptions/sub-1", `{"status":"active"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	subs.AssertExpectations(t)
}
