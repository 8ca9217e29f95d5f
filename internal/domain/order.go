package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusOnTheWay       OrderStatus = "on_the_way"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// orderProgress ranks non-terminal statuses; transitions only move up
var orderProgress = map[OrderStatus]int{
	OrderStatusPending:        0,
	OrderStatusConfirmed:      1,
	OrderStatusPreparing:      2,
	OrderStatusReadyForPickup: 3,
	OrderStatusOnTheWay:       4,
	OrderStatusOutForDelivery: 5,
	OrderStatusDelivered:      6,
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	_, ok := orderProgress[s]
	return ok || s == OrderStatusCancelled
}

// IsTerminal reports whether no further transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is forward-only.
// Any non-terminal status may be cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderProgress[next] > orderProgress[s]
}

// CancellableByCustomer reports whether the customer may still cancel an
// order; once the kitchen starts preparing only the restaurant can.
func (s OrderStatus) CancellableByCustomer() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CancellableBySubscription lists the statuses swept up by a subscription cancel
var CancellableBySubscription = []OrderStatus{OrderStatusPending, OrderStatusConfirmed}

// SubscriptionCancelReason is recorded on orders cancelled with their subscription
const SubscriptionCancelReason = "Subscription cancelled by user"

// DefaultCancelReason is recorded when a single order is cancelled without a reason
const DefaultCancelReason = "Cancelled by user"

// OrderItem is a snapshot of a menu item at order time
type OrderItem struct {
	ItemID   string          `json:"item_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// LineTotal is price times quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is one delivery of one meal
type Order struct {
	ScheduledFor         time.Time       `json:"scheduled_for"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
	DeliveredAt          *time.Time      `json:"delivered_at,omitempty"`
	SubscriptionID       *string         `json:"subscription_id,omitempty"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DeliveryAddress      Address         `json:"delivery_address"`
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	RestaurantID         string          `json:"restaurant_id"`
	DeliveryInstructions string          `json:"delivery_instructions,omitempty"`
	CancellationReason   string          `json:"cancellation_reason,omitempty"`
	PaymentMethod        PaymentMethod   `json:"payment_method"`
	Status               OrderStatus     `json:"status"`
	DayOfWeek            Weekday         `json:"day_of_week,omitempty"`
	MealTime             MealTime        `json:"meal_time,omitempty"`
	DietType             DietType        `json:"diet_type,omitempty"`
	Items                []OrderItem     `json:"items"`
}

// SnapshotItems copies menu items into order lines with quantity 1
func SnapshotItems(items []MenuItem) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, it := range items {
		out[i] = OrderItem{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: 1,
		}
	}
	return out
}

// SumItems totals the order lines
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// OrderSlot identifies the single order a subscription may have for one meal
type OrderSlot struct {
	SubscriptionID string
	DayOfWeek      Weekday
	MealTime       MealTime
	ScheduledFor   time.Time // midnight UTC
}
