package ports

import (
	"context"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// NotificationSink accepts domain events for a recipient. Callers treat
// any error as a dependency failure and never roll back on it.
type NotificationSink interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// EmailSink sends the subscription e-mails
type EmailSink interface {
	SendReminder(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error
	SendRenewed(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error
}

// PushSink delivers a realtime event to everyone joined to room
type PushSink interface {
	Push(ctx context.Context, room, event string, payload interface{}) error
}

// UserRoom is the push room for one user
func UserRoom(userID string) string {
	return "user:" + userID
}
