package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// MealPlanRepository implements ports.MealPlanRepository
type MealPlanRepository struct{ s *Store }

func (r *MealPlanRepository) Create(ctx context.Context, plan *domain.MealPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.plans[plan.ID]; exists {
		return fmt.Errorf("meal plan %s already exists", plan.ID)
	}
	r.s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *MealPlanRepository) GetByID(ctx context.Context, id string) (*domain.MealPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok {
		return nil, domain.ErrMealPlanNotFound(id)
	}
	return clonePlan(p), nil
}

func (r *MealPlanRepository) ListActive(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.MealPlan
	for _, p := range r.s.plans {
		if !p.IsActive || (restaurantID != "" && p.RestaurantID != restaurantID) {
			continue
		}
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MealPlanRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.plans[id]
	if !ok {
		return domain.ErrMealPlanNotFound(id)
	}
	p.IsActive = active
	p.UpdatedAt = at
	return nil
}

func (r *MealPlanRepository) ReserveSubscriberSlot(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.plans[id]
	if !ok {
		return false, domain.ErrMealPlanNotFound(id)
	}
	if !p.IsActive || !p.HasCapacity() {
		return false, nil
	}
	p.CurrentSubscribers++
	return true, nil
}

func (r *MealPlanRepository) ReleaseSubscriberSlot(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.plans[id]
	if !ok {
		return domain.ErrMealPlanNotFound(id)
	}
	if p.CurrentSubscribers > 0 {
		p.CurrentSubscribers--
	}
	return nil
}

// SubscriptionRepository implements ports.SubscriptionRepository
type SubscriptionRepository struct{ s *Store }

func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.subscriptions[sub.ID]; exists {
		return fmt.Errorf("subscription %s already exists", sub.ID)
	}
	r.s.subscriptions[sub.ID] = cloneSubscription(sub)
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound(id)
	}
	return cloneSubscription(sub), nil
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	return r.filter(func(sub *domain.Subscription) bool { return sub.UserID == userID }, sortSubscriptionsNewestFirst), nil
}

func (r *SubscriptionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return false, domain.ErrSubscriptionNotFound(id)
	}
	if sub.Status == domain.SubscriptionStatusCancelled {
		return false, nil
	}
	sub.Status = domain.SubscriptionStatusCancelled
	sub.CancelledAt = &at
	sub.UpdatedAt = at
	return true, nil
}

func (r *SubscriptionRepository) UpdateDetails(ctx context.Context, upd *domain.Subscription, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subscriptions[upd.ID]
	if !ok {
		return false, domain.ErrSubscriptionNotFound(upd.ID)
	}
	if sub.Status == domain.SubscriptionStatusCancelled {
		return false, nil
	}
	sub.DeliveryAddress = upd.DeliveryAddress
	sub.DeliveryInstructions = upd.DeliveryInstructions
	sub.SelectedMealTimes = append([]domain.MealTimeOption(nil), upd.SelectedMealTimes...)
	sub.UpdatedAt = at
	return true, nil
}

func (r *SubscriptionRepository) ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	return r.filter(func(sub *domain.Subscription) bool {
		return sub.IsActive() && !sub.RenewalDate.Before(from) && !sub.RenewalDate.After(to)
	}, sortByRenewal), nil
}

func (r *SubscriptionRepository) ListActiveDueForRenewal(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	return r.filter(func(sub *domain.Subscription) bool {
		return sub.IsActive() && !sub.RenewalDate.After(asOf)
	}, sortByRenewal), nil
}

func (r *SubscriptionRepository) ListActiveEndingOnOrAfter(ctx context.Context, t time.Time) ([]*domain.Subscription, error) {
	return r.filter(func(sub *domain.Subscription) bool {
		return sub.IsActive() && !sub.EndDate.Before(t)
	}, sortByRenewal), nil
}

func (r *SubscriptionRepository) Renew(ctx context.Context, id string, expectedRenewal, start, end, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return false, domain.ErrSubscriptionNotFound(id)
	}
	if !sub.IsActive() || !sub.RenewalDate.Equal(expectedRenewal) {
		return false, nil
	}
	sub.StartDate = start
	sub.EndDate = end
	sub.RenewalDate = end
	sub.UpdatedAt = at
	return true, nil
}

func (r *SubscriptionRepository) MarkReminderSent(ctx context.Context, id string, renewalDate, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return false, domain.ErrSubscriptionNotFound(id)
	}
	if !sub.IsActive() || (sub.LastReminderFor != nil && sub.LastReminderFor.Equal(renewalDate)) {
		return false, nil
	}
	rd := renewalDate
	sub.LastReminderFor = &rd
	sub.LastRemindedAt = &at
	return true, nil
}

func (r *SubscriptionRepository) filter(keep func(*domain.Subscription) bool, order func([]*domain.Subscription)) []*domain.Subscription {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Subscription
	for _, sub := range r.s.subscriptions {
		if keep(sub) {
			out = append(out, cloneSubscription(sub))
		}
	}
	order(out)
	return out
}

// OrderRepository implements ports.OrderRepository
type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	if order.SubscriptionID != nil {
		slot := domain.OrderSlot{
			SubscriptionID: *order.SubscriptionID,
			DayOfWeek:      order.DayOfWeek,
			MealTime:       order.MealTime,
			ScheduledFor:   order.ScheduledFor,
		}
		if r.slotTaken(slot) {
			return domain.ErrDuplicateOrderSlot()
		}
	}
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound(id)
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) ExistsForSlot(ctx context.Context, slot domain.OrderSlot) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.slotTaken(slot), nil
}

// slotTaken scans for an order in the slot's calendar day. Caller holds mu.
func (r *OrderRepository) slotTaken(slot domain.OrderSlot) bool {
	dayStart := timeutil.StartOfDay(slot.ScheduledFor)
	dayEnd := timeutil.EndOfDay(slot.ScheduledFor)
	for _, o := range r.s.orders {
		if o.SubscriptionID == nil || *o.SubscriptionID != slot.SubscriptionID {
			continue
		}
		if o.DayOfWeek != slot.DayOfWeek || o.MealTime != slot.MealTime {
			continue
		}
		if !o.ScheduledFor.Before(dayStart) && !o.ScheduledFor.After(dayEnd) {
			return true
		}
	}
	return false
}

func (r *OrderRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Order
	for _, o := range r.s.orders {
		if o.SubscriptionID != nil && *o.SubscriptionID == subscriptionID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledFor.Equal(out[j].ScheduledFor) {
			return out[i].MealTime < out[j].MealTime
		}
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
	return out, nil
}

func (r *OrderRepository) CancelBySubscription(ctx context.Context, subscriptionID string, statuses []domain.OrderStatus, reason string, at time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	match := make(map[domain.OrderStatus]bool, len(statuses))
	for _, st := range statuses {
		match[st] = true
	}

	n := 0
	for _, o := range r.s.orders {
		if o.SubscriptionID == nil || *o.SubscriptionID != subscriptionID || !match[o.Status] {
			continue
		}
		cancelledAt := at
		o.Status = domain.OrderStatusCancelled
		o.CancellationReason = reason
		o.CancelledAt = &cancelledAt
		o.UpdatedAt = at
		n++
	}
	return n, nil
}

func (r *OrderRepository) Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrOrderNotFound(id)
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = domain.OrderStatusCancelled
	o.CancellationReason = reason
	o.CancelledAt = &at
	o.UpdatedAt = at
	return true, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrOrderNotFound(id)
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	switch to {
	case domain.OrderStatusDelivered:
		o.DeliveredAt = &at
	case domain.OrderStatusCancelled:
		o.CancelledAt = &at
	}
	return true, nil
}

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct{ s *Store }

type seqNotification struct {
	n   *domain.Notification
	seq int64
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.notifications[n.ID] = cloneNotification(n)
	r.s.inserted[n.ID] = r.s.nextSeq()
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, visibleAt time.Time, limit int) ([]*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []seqNotification
	for id, n := range r.s.notifications {
		if n.RecipientID != recipientID || (n.DeliverAfter != nil && n.DeliverAfter.After(visibleAt)) {
			continue
		}
		rows = append(rows, seqNotification{n: n, seq: r.s.inserted[id]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]*domain.Notification, len(rows))
	for i, row := range rows {
		out[i] = cloneNotification(row.n)
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return domain.ErrNotificationNotFound(id)
	}
	n.IsRead = true
	return nil
}

// Directory implements ports.RestaurantDirectory and ports.CustomerDirectory
type Directory struct{ s *Store }

func (d *Directory) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	r, ok := d.s.restaurants[id]
	if !ok {
		return nil, domain.ErrRestaurantNotFound(id)
	}
	c := *r
	return &c, nil
}

func (d *Directory) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	c, ok := d.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound(id)
	}
	cp := *c
	return &cp, nil
}

// PutRestaurant inserts or replaces a restaurant
func (d *Directory) PutRestaurant(ctx context.Context, r domain.Restaurant) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.restaurants[r.ID] = &r
	return nil
}

// PutCustomer inserts or replaces a customer
func (d *Directory) PutCustomer(ctx context.Context, c domain.Customer) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.customers[c.ID] = &c
	return nil
}
