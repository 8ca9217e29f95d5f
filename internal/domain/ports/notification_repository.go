package ports

import (
	"context"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// NotificationRepository stores inbox entries
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error

	// ListByRecipient returns up to limit entries visible at visibleAt
	// (DeliverAfter unset or not after it), newest first
	ListByRecipient(ctx context.Context, recipientID string, visibleAt time.Time, limit int) ([]*domain.Notification, error)

	// MarkRead sets IsRead on a notification owned by recipientID,
	// or returns NOTIFICATION_NOT_FOUND
	MarkRead(ctx context.Context, id, recipientID string) error
}
