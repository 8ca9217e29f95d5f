package ports

import (
	"context"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// OrderRepository persists orders. Stores enforce uniqueness of
// (subscription, day of week, meal time, scheduled day) and report a
// CONFLICT_DUPLICATE_ORDER_SLOT error from Create when it is violated.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ExistsForSlot matches ScheduledFor anywhere within the slot's calendar day
	ExistsForSlot(ctx context.Context, slot domain.OrderSlot) (bool, error)

	ListBySubscription(ctx context.Context, subscriptionID string) ([]*domain.Order, error)

	// CancelBySubscription cancels the subscription's orders whose status is in
	// statuses and returns how many changed
	CancelBySubscription(ctx context.Context, subscriptionID string, statuses []domain.OrderStatus, reason string, at time.Time) (int, error)

	// Cancel cancels one order still in from, recording reason
	Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) (bool, error)

	// UpdateStatus moves an order from -> to, returning false if it was no longer in from
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error)
}
