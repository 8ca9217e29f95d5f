package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	"github.com/kevin07696/mealplan-service/pkg/observability"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

const (
	// EventNotification is the push event name for new inbox entries
	EventNotification = "notification"

	defaultListLimit = 50
	maxListLimit     = 200
	maxTitleLen      = 100
	maxMessageLen    = 500
)

// Service persists notifications and pushes them to the recipient's room.
// It implements ports.NotificationSink for the core services and the inbox
// operations for the HTTP layer.
type Service struct {
	repo         ports.NotificationRepository
	push         ports.PushSink
	clock        timeutil.Clock
	logger       ports.Logger
	backoff      resilience.BackoffStrategy
	timeouts     *resilience.TimeoutConfig
	pushAttempts int
}

// NewService creates a notification service. push may be nil to disable realtime delivery.
func NewService(
	repo ports.NotificationRepository,
	push ports.PushSink,
	clock timeutil.Clock,
	logger ports.Logger,
) *Service {
	return &Service{
		repo:         repo,
		push:         push,
		clock:        clock,
		logger:       logger,
		backoff:      resilience.DeliveryBackoff(),
		timeouts:     resilience.DefaultTimeoutConfig(),
		pushAttempts: 3,
	}
}

// WithBackoff overrides the push retry schedule
func (s *Service) WithBackoff(b resilience.BackoffStrategy, attempts int) *Service {
	s.backoff = b
	s.pushAttempts = attempts
	return s
}

// Send stores n and pushes it unless DeliverAfter is still in the future.
// Errors are DEPENDENCY_* domain errors.
func (s *Service) Send(ctx context.Context, n *domain.Notification) error {
	if n.RecipientID == "" {
		return domain.WrapError(domain.ErrorCodeNotificationFailed, "notification has no recipient", nil)
	}

	now := s.clock.Now()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.Title = truncate(n.Title, maxTitleLen)
	n.Message = truncate(n.Message, maxMessageLen)

	if err := s.repo.Create(ctx, n); err != nil {
		observability.RecordNotificationDelivery("store", "failed")
		return domain.WrapError(domain.ErrorCodeNotificationFailed, "store notification", err).
			WithDetail("recipient_id", n.RecipientID)
	}
	observability.RecordNotificationDelivery("store", "success")

	if s.push == nil || (n.DeliverAfter != nil && n.DeliverAfter.After(now)) {
		return nil
	}

	room := ports.UserRoom(n.RecipientID)
	err := resilience.Retry(ctx, s.pushAttempts, s.backoff, func(ctx context.Context) error {
		pushCtx, cancel := s.timeouts.DeliveryContext(ctx)
		defer cancel()
		return s.push.Push(pushCtx, room, EventNotification, n)
	})
	if err != nil {
		observability.RecordNotificationDelivery("push", "failed")
		s.logger.Warn("push delivery failed",
			ports.String("notification_id", n.ID),
			ports.String("room", room),
			ports.Err(err))
		return domain.WrapError(domain.ErrorCodePushFailed, "push notification", err).
			WithDetail("notification_id", n.ID)
	}
	observability.RecordNotificationDelivery("push", "success")
	return nil
}

// ListNotifications returns the recipient's visible inbox, newest first
func (s *Service) ListNotifications(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	if recipientID == "" {
		return nil, domain.ErrMissingField("recipient_id")
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	list, err := s.repo.ListByRecipient(ctx, recipientID, s.clock.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags one of the recipient's notifications as read
func (s *Service) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	if notificationID == "" {
		return domain.ErrMissingField("notification_id")
	}
	return s.repo.MarkRead(ctx, notificationID, recipientID)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
