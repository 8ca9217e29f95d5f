package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/mealplan-service/internal/domain"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
)

// MockSubscriptionService is a testify mock of servicesports.SubscriptionService
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) CreateSubscription(ctx context.Context, req *servicesports.CreateSubscriptionRequest) (*servicesports.SubscriptionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*servicesports.SubscriptionResult), args.Error(1)
}

func (m *MockSubscriptionService) CancelSubscription(ctx context.Context, subscriptionID, actingUserID string) (*servicesports.CancelResult, error) {
	args := m.Called(ctx, subscriptionID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*servicesports.CancelResult), args.Error(1)
}

func (m *MockSubscriptionService) GetSubscription(ctx context.Context, subscriptionID, actingUserID string) (*domain.Subscription, error) {
	args := m.Called(ctx, subscriptionID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) ListSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) UpdateSubscription(ctx context.Context, req *servicesports.UpdateSubscriptionRequest) (*domain.Subscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

// MockCatalogService is a testify mock of servicesports.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateMealPlan(ctx context.Context, actingUserID string, plan *domain.MealPlan) (*domain.MealPlan, error) {
	args := m.Called(ctx, actingUserID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MealPlan), args.Error(1)
}

func (m *MockCatalogService) GetMealPlan(ctx context.Context, id string) (*domain.MealPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MealPlan), args.Error(1)
}

func (m *MockCatalogService) ListActivePlans(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MealPlan), args.Error(1)
}

func (m *MockCatalogService) ToggleMealPlanStatus(ctx context.Context, actingUserID, planID string) (*domain.MealPlan, error) {
	args := m.Called(ctx, actingUserID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MealPlan), args.Error(1)
}

// MockOrderService is a testify mock of servicesports.OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, actingUserID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListSubscriptionOrders(ctx context.Context, subscriptionID, actingUserID string) ([]*domain.Order, error) {
	args := m.Called(ctx, subscriptionID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID, actingUserID string, status domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, orderID, actingUserID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID, actingUserID, reason string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, actingUserID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListUpcomingOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// MockNotificationService is a testify mock of servicesports.NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, recipientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

// MockSweepService is a testify mock of servicesports.SweepService
type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) RunDailySweep(ctx context.Context, now time.Time) (*servicesports.SweepResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*servicesports.SweepResult), args.Error(1)
}

var (
	_ servicesports.SubscriptionService = (*MockSubscriptionService)(nil)
	_ servicesports.CatalogService      = (*MockCatalogService)(nil)
	_ servicesports.OrderService        = (*MockOrderService)(nil)
	_ servicesports.NotificationService = (*MockNotificationService)(nil)
	_ servicesports.SweepService        = (*MockSweepService)(nil)
)
