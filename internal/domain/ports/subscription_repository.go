package ports

import (
	"context"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// SubscriptionRepository defines the interface for subscription persistence.
// Every mutating method is conditional on the current row state and reports
// whether it applied, so concurrent cancel and sweep calls never double-apply.
type SubscriptionRepository interface {
	// Create creates a new subscription
	Create(ctx context.Context, sub *domain.Subscription) error

	// GetByID returns the subscription or a SUBSCRIPTION_NOT_FOUND error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)

	// ListByUser lists a customer's subscriptions, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error)

	// MarkCancelled sets status cancelled unless it already is
	MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error)

	// UpdateDetails stores sub's delivery address, instructions and meal
	// times unless the subscription has been cancelled
	UpdateDetails(ctx context.Context, sub *domain.Subscription, at time.Time) (bool, error)

	// ListActiveRenewingBetween lists active subscriptions with from <= RenewalDate <= to
	ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error)

	// ListActiveDueForRenewal lists active subscriptions with RenewalDate <= asOf
	ListActiveDueForRenewal(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error)

	// ListActiveEndingOnOrAfter lists active subscriptions with EndDate >= t
	ListActiveEndingOnOrAfter(ctx context.Context, t time.Time) ([]*domain.Subscription, error)

	// Renew moves an active subscription whose RenewalDate still equals
	// expectedRenewal to the period [start, end); RenewalDate becomes end.
	Renew(ctx context.Context, id string, expectedRenewal, start, end, at time.Time) (bool, error)

	// MarkReminderSent claims the reminder for renewalDate. It returns false
	// when a reminder for that renewal date was already recorded.
	MarkReminderSent(ctx context.Context, id string, renewalDate, at time.Time) (bool, error)
}
