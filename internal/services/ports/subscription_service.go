package ports

import (
	"context"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// CreateSubscriptionRequest contains parameters for subscribing to a meal plan
type CreateSubscriptionRequest struct {
	StartDate            *time.Time
	DeliveryAddress      domain.Address
	UserID               string
	MealPlanID           string
	DeliveryInstructions string
	DietType             domain.DietType
	PaymentMethod        domain.PaymentMethod
	MealTimes            []domain.MealTimeOption
}

// UpdateSubscriptionRequest edits delivery details. Nil fields are left unchanged.
type UpdateSubscriptionRequest struct {
	SubscriptionID string
	ActingUserID   string
	Changes        domain.SubscriptionChanges
}

// SubscriptionResult is a created subscription plus the orders materialized for
// its first window. Warnings carry dependency failures that did not roll back the
// subscription.
type SubscriptionResult struct {
	Subscription *domain.Subscription
	Orders       []*domain.Order
	Warnings     []error
}

// CancelResult reports the cascade of a cancellation
type CancelResult struct {
	Subscription    *domain.Subscription
	OrdersCancelled int
	Warnings        []error
}

// SubscriptionService defines the port for subscription operations
type SubscriptionService interface {
	// CreateSubscription reserves a plan slot, stores the subscription and materializes its first week
	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*SubscriptionResult, error)

	// CancelSubscription cancels a subscription owned by actingUserID
	CancelSubscription(ctx context.Context, subscriptionID, actingUserID string) (*CancelResult, error)

	// UpdateSubscription edits delivery address, instructions or meal times.
	// Orders already materialized keep the details they were created with.
	UpdateSubscription(ctx context.Context, req *UpdateSubscriptionRequest) (*domain.Subscription, error)

	// GetSubscription returns a subscription owned by actingUserID
	GetSubscription(ctx context.Context, subscriptionID, actingUserID string) (*domain.Subscription, error)

	// ListSubscriptions lists a user's subscriptions
	ListSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error)
}
