package ports

import (
	"context"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// OrderService exposes order reads and vendor status updates
type OrderService interface {
	// GetOrder returns an order visible to actingUserID (customer or restaurant owner)
	GetOrder(ctx context.Context, orderID, actingUserID string) (*domain.Order, error)

	// ListSubscriptionOrders lists orders of a subscription owned by actingUserID
	ListSubscriptionOrders(ctx context.Context, subscriptionID, actingUserID string) ([]*domain.Order, error)

	// UpdateStatus moves an order forward; only the restaurant owner may do this
	UpdateStatus(ctx context.Context, orderID, actingUserID string, status domain.OrderStatus) (*domain.Order, error)

	// CancelOrder cancels one order. The customer may cancel pending or
	// confirmed orders; the restaurant owner any order not yet finished.
	CancelOrder(ctx context.Context, orderID, actingUserID, reason string) (*domain.Order, error)

	// ListUpcomingOrders lists pending and confirmed orders scheduled from now
	// on across the user's active subscriptions, soonest first
	ListUpcomingOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}
