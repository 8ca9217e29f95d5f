package domain

import "time"

// NotificationType tags the event a notification reports
type NotificationType string

const (
	NotificationSubscriptionReminder  NotificationType = "subscription_reminder"
	NotificationSubscriptionOrder     NotificationType = "subscription_order"
	NotificationSubscriptionRenewed   NotificationType = "subscription_renewed"
	NotificationSubscriptionCancelled NotificationType = "subscription_cancelled"
	NotificationOrderUpdate           NotificationType = "order_update"
	NotificationSystem                NotificationType = "system"
)

// Notification is an inbox entry. Only IsRead changes after creation.
type Notification struct {
	CreatedAt             time.Time        `json:"created_at"`
	DeliverAfter          *time.Time       `json:"deliver_after,omitempty"`
	RelatedOrderID        *string          `json:"related_order_id,omitempty"`
	RelatedSubscriptionID *string          `json:"related_subscription_id,omitempty"`
	ID                    string           `json:"id"`
	RecipientID           string           `json:"recipient_id"`
	Type                  NotificationType `json:"type"`
	Title                 string           `json:"title"`
	Message               string           `json:"message"`
	IsRead                bool             `json:"is_read"`
}

// Restaurant is the vendor side of a meal plan
type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// Customer is the contact record used for e-mail
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
