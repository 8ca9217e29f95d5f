package order

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
)

func as(userID string, role auth.Role) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			next(w, r.WithContext(auth.WithPrincipal(r.Context(), &auth.Principal{UserID: userID, Role: role})), ps)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	orders := new(mocks.MockOrderService)
	router := httprouter.New()
	NewHandler(orders, zaptest.NewLogger(t)).Register(router, as("user-1", auth.RoleCustomer), as("owner-1", auth.RoleVendor))

	orders.On("UpdateStatus", mock.Anything, "o-1", "owner-1", domain.OrderStatusPreparing).
		Return(&domain.Order{ID: "o-1", Status: domain.OrderStatusPreparing}, nil)
	orders.On("UpdateStatus", mock.Anything, "o-2", "owner-1", domain.OrderStatusPending).
		Return(nil, domain.NewDomainError(domain.ErrorCodeInvalidTransition, "cannot move back"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/orders/o-1/status", strings.NewReader(`{"status":"preparing"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"preparing"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/orders/o-2/status", strings.NewReader(`{"status":"pending"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/orders/o-1/status", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	orders.AssertExpectations(t)
}

func TestGetOrder(t *testing.T) {
	orders := new(mocks.MockOrderService)
	router := httprouter.New()
	NewHandler(orders, zaptest.NewLogger(t)).Register(router, as("user-1", auth.RoleCustomer), as("owner-1", auth.RoleVendor))

	orders.On("GetOrder", mock.Anything, "o-1", "user-1").Return(&domain.Order{ID: "o-1"}, nil)
	orders.On("GetOrder", mock.Anything, "o-9", "user-1").Return(nil, domain.ErrOrderNotFound("o-9"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	orders := new(mocks.MockOrderService)
	router := httprouter.New()
	NewHandler(orders, zaptest.NewLogger(t)).Register(router, as("user-1", auth.RoleCustomer), as("owner-1", auth.RoleVendor))

	orders.On("CancelOrder", mock.Anything, "o-1", "user-1", "away this week").
		Return(&domain.Order{ID: "o-1", Status: domain.OrderStatusCancelled, CancellationReason: "away this week"}, nil)
	orders.On("CancelOrder", mock.Anything, "o-2", "user-1", "").
		Return(nil, domain.NewDomainError(domain.ErrorCodeInvalidTransition, "cannot cancel an order that is preparing"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/o-1/cancel", strings.NewReader(`{"reason":"away this week"}`)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"cancelled"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/o-2/cancel", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	orders.AssertExpectations(t)
}

func TestListUpcoming(t *testing.T) {
	orders := new(mocks.MockOrderService)
	router := httprouter.New()
	NewHandler(orders, zaptest.NewLogger(t)).Register(router, as("user-1", auth.RoleCustomer), as("owner-1", auth.RoleVendor))

	orders.On("ListUpcomingOrders", mock.Anything, "user-1").Return(nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/upcoming-orders", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orders":[],"count":0}`, rec.Body.String())
	orders.AssertExpectations(t)
}
