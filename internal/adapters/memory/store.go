// Package memory is a process-local store implementing every repository port.
// It backs tests and STORAGE_BACKEND=memory; all state is lost on exit.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// Store holds all collections behind one mutex so conditional updates are atomic
type Store struct {
	mu            sync.RWMutex
	plans         map[string]*domain.MealPlan
	subscriptions map[string]*domain.Subscription
	orders        map[string]*domain.Order
	notifications map[string]*domain.Notification
	restaurants   map[string]*domain.Restaurant
	customers     map[string]*domain.Customer
	inserted      map[string]int64
	seq           int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		plans:         make(map[string]*domain.MealPlan),
		subscriptions: make(map[string]*domain.Subscription),
		orders:        make(map[string]*domain.Order),
		notifications: make(map[string]*domain.Notification),
		restaurants:   make(map[string]*domain.Restaurant),
		customers:     make(map[string]*domain.Customer),
		inserted:      make(map[string]int64),
	}
}

// MealPlans returns the meal plan repository view
func (s *Store) MealPlans() *MealPlanRepository { return &MealPlanRepository{s} }

// Subscriptions returns the subscription repository view
func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{s} }

// Orders returns the order repository view
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s} }

// Notifications returns the notification repository view
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s} }

// Directory returns the restaurant and customer lookup view
func (s *Store) Directory() *Directory { return &Directory{s} }

// nextSeq gives insertion order for stable newest-first listings. Caller holds mu.
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func sortSubscriptionsNewestFirst(subs []*domain.Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
}

func sortByRenewal(subs []*domain.Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].RenewalDate.Equal(subs[j].RenewalDate) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].RenewalDate.Before(subs[j].RenewalDate)
	})
}

func clonePlan(p *domain.MealPlan) *domain.MealPlan {
	c := *p
	if p.MaxSubscribers != nil {
		v := *p.MaxSubscribers
		c.MaxSubscribers = &v
	}
	if p.CustomFor != nil {
		v := *p.CustomFor
		c.CustomFor = &v
	}
	c.WeeklyMenu = make([]domain.DayMenu, len(p.WeeklyMenu))
	for i, d := range p.WeeklyMenu {
		c.WeeklyMenu[i] = domain.DayMenu{
			Day:         d.Day,
			VegItems:    append([]domain.MenuItem(nil), d.VegItems...),
			VeganItems:  append([]domain.MenuItem(nil), d.VeganItems...),
			NonVegItems: append([]domain.MenuItem(nil), d.NonVegItems...),
		}
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneSubscription(sub *domain.Subscription) *domain.Subscription {
	c := *sub
	c.SelectedMealTimes = append([]domain.MealTimeOption(nil), sub.SelectedMealTimes...)
	c.CancelledAt = cloneTime(sub.CancelledAt)
	c.LastReminderFor = cloneTime(sub.LastReminderFor)
	c.LastRemindedAt = cloneTime(sub.LastRemindedAt)
	return &c
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	c.CancelledAt = cloneTime(o.CancelledAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	if o.SubscriptionID != nil {
		v := *o.SubscriptionID
		c.SubscriptionID = &v
	}
	return &c
}

func cloneNotification(n *domain.Notification) *domain.Notification {
	c := *n
	c.DeliverAfter = cloneTime(n.DeliverAfter)
	if n.RelatedOrderID != nil {
		v := *n.RelatedOrderID
		c.RelatedOrderID = &v
	}
	if n.RelatedSubscriptionID != nil {
		v := *n.RelatedSubscriptionID
		c.RelatedSubscriptionID = &v
	}
	return &c
}
