package ports

import (
	"context"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// NotificationService is the recipient-facing inbox
type NotificationService interface {
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, recipientID string) error
}
