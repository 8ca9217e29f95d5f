package ports

import (
	"context"
	"time"
)

// SweepError records one failed item in a sweep pass
type SweepError struct {
	Pass           string `json:"pass"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Error          string `json:"error"`
}

// SweepResult is the outcome of one daily sweep
type SweepResult struct {
	AsOf                 time.Time    `json:"as_of"`
	RemindersSent        int          `json:"reminders_sent"`
	SubscriptionsRenewed int          `json:"subscriptions_renewed"`
	OrdersCreated        int          `json:"orders_created"`
	Errors               []SweepError `json:"errors,omitempty"`
}

// SweepService runs the reminder, renewal and next-day order passes
type SweepService interface {
	RunDailySweep(ctx context.Context, now time.Time) (*SweepResult, error)
}
