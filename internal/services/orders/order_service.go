package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Service implements servicesports.OrderService
type Service struct {
	orders      ports.OrderRepository
	subs        ports.SubscriptionRepository
	restaurants ports.RestaurantDirectory
	notifier    ports.NotificationSink
	clock       timeutil.Clock
	logger      ports.Logger
}

// NewService creates a new order service
func NewService(
	orders ports.OrderRepository,
	subs ports.SubscriptionRepository,
	restaurants ports.RestaurantDirectory,
	notifier ports.NotificationSink,
	clock timeutil.Clock,
	logger ports.Logger,
) *Service {
	return &Service{
		orders:      orders,
		subs:        subs,
		restaurants: restaurants,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
	}
}

var _ servicesports.OrderService = (*Service)(nil)

// GetOrder returns the order to its customer or the restaurant owner
func (s *Service) GetOrder(ctx context.Context, orderID, actingUserID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == actingUserID {
		return order, nil
	}
	restaurant, err := s.restaurants.GetRestaurant(ctx, order.RestaurantID)
	if err != nil || restaurant.OwnerID != actingUserID {
		return nil, domain.ErrOrderNotFound(orderID)
	}
	return order, nil
}

// ListSubscriptionOrders lists every order generated for a subscription
func (s *Service) ListSubscriptionOrders(ctx context.Context, subscriptionID, actingUserID string) ([]*domain.Order, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.OwnedBy(actingUserID) {
		return nil, domain.ErrSubscriptionNotFound(subscriptionID)
	}
	return s.orders.ListBySubscription(ctx, subscriptionID)
}

// UpdateStatus moves an order forward. Only the restaurant owner may update it.
func (s *Service) UpdateStatus(ctx context.Context, orderID, actingUserID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, domain.ErrValidation("invalid order status").WithDetail("status", string(status))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.GetRestaurant(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.OwnerID != actingUserID {
		return nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to update this order").
			WithDetail("order_id", orderID)
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status)).
			WithDetail("order_id", orderID)
	}

	now := s.clock.Now()
	applied, err := s.orders.UpdateStatus(ctx, orderID, order.Status, status, now)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !applied {
		return nil, domain.ErrStaleState("order changed concurrently").WithDetail("order_id", orderID)
	}

	updated, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		ports.String("order_id", orderID),
		ports.String("from", string(order.Status)),
		ports.String("to", string(status)))

	s.notifyStatus(ctx, updated)
	return updated, nil
}

// CancelOrder cancels a single order and tells the other party
func (s *Service) CancelOrder(ctx context.Context, orderID, actingUserID, reason string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.GetRestaurant(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}

	byCustomer := order.UserID == actingUserID
	switch {
	case byCustomer:
		if !order.Status.CancellableByCustomer() {
			return nil, domain.NewDomainError(domain.ErrorCodeInvalidTransition,
				fmt.Sprintf("cannot cancel an order that is %s", order.Status)).
				WithDetail("order_id", orderID)
		}
	case restaurant.OwnerID == actingUserID:
		if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			return nil, domain.NewDomainError(domain.ErrorCodeInvalidTransition,
				fmt.Sprintf("cannot cancel an order that is %s", order.Status)).
				WithDetail("order_id", orderID)
		}
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to cancel this order").
			WithDetail("order_id", orderID)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = domain.DefaultCancelReason
	}

	now := s.clock.Now()
	applied, err := s.orders.Cancel(ctx, orderID, order.Status, reason, now)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if !applied {
		return nil, domain.ErrStaleState("order changed concurrently").WithDetail("order_id", orderID)
	}
	order.Status = domain.OrderStatusCancelled
	order.CancellationReason = reason
	order.CancelledAt = &now
	order.UpdatedAt = now

	s.logger.Info("order cancelled",
		ports.String("order_id", orderID),
		ports.String("cancelled_by", actingUserID),
		ports.Bool("by_customer", byCustomer))

	recipient := order.UserID
	if byCustomer {
		recipient = restaurant.OwnerID
	}
	s.notifyCancelled(ctx, order, recipient)
	return order, nil
}

// ListUpcomingOrders lists the user's pending and confirmed subscription orders
// scheduled at or after now
func (s *Service) ListUpcomingOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrMissingField("user_id")
	}
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	upcoming := []*domain.Order{}
	for _, sub := range subs {
		if !sub.IsActive() {
			continue
		}
		list, err := s.orders.ListBySubscription(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("list orders for subscription %s: %w", sub.ID, err)
		}
		for _, o := range list {
			if o.Status.CancellableByCustomer() && !o.ScheduledFor.Before(now) {
				upcoming = append(upcoming, o)
			}
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledFor.Before(upcoming[j].ScheduledFor)
	})
	return upcoming, nil
}

func (s *Service) notifyCancelled(ctx context.Context, order *domain.Order, recipientID string) {
	if s.notifier == nil {
		return
	}
	orderID := order.ID
	err := s.notifier.Send(ctx, &domain.Notification{
		RecipientID:           recipientID,
		Type:                  domain.NotificationOrderUpdate,
		Title:                 "Order Cancelled",
		Message:               fmt.Sprintf("The %s order for %s was cancelled: %s", order.MealTime, order.ScheduledFor.Format("2006-01-02"), order.CancellationReason),
		RelatedOrderID:        &orderID,
		RelatedSubscriptionID: order.SubscriptionID,
	})
	if err != nil {
		s.logger.Warn("order cancellation notification failed",
			ports.String("order_id", order.ID),
			ports.Err(err))
	}
}

func (s *Service) notifyStatus(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	orderID := order.ID
	label := strings.ReplaceAll(string(order.Status), "_", " ")
	err := s.notifier.Send(ctx, &domain.Notification{
		RecipientID:           order.UserID,
		Type:                  domain.NotificationOrderUpdate,
		Title:                 "Order Update",
		Message:               fmt.Sprintf("Your %s order for %s is now %s.", order.MealTime, order.ScheduledFor.Format("2006-01-02"), label),
		RelatedOrderID:        &orderID,
		RelatedSubscriptionID: order.SubscriptionID,
	})
	if err != nil {
		s.logger.Warn("order update notification failed",
			ports.String("order_id", order.ID),
			ports.Err(err))
	}
}
