// Package email delivers the subscription reminder and renewal e-mails.
// Sender composes plain-text messages and retries a Transport.
package email

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/pkg/observability"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// Message is one outgoing e-mail
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Transport hands a message to a mail system
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Sender implements ports.EmailSink over a Transport
type Sender struct {
	transport Transport
	backoff   resilience.BackoffStrategy
	attempts  int
	logger    *zap.Logger
}

// NewSender retries each delivery up to three times with DeliveryBackoff
func NewSender(transport Transport, logger *zap.Logger) *Sender {
	return &Sender{
		transport: transport,
		backoff:   resilience.DeliveryBackoff(),
		attempts:  3,
		logger:    logger,
	}
}

// WithRetry overrides the retry policy
func (s *Sender) WithRetry(b resilience.BackoffStrategy, attempts int) *Sender {
	s.backoff = b
	s.attempts = attempts
	return s
}

func (s *Sender) SendReminder(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error {
	return s.send(ctx, ReminderMessage(to, sub, plan))
}

func (s *Sender) SendRenewed(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error {
	return s.send(ctx, RenewedMessage(to, sub, plan))
}

func (s *Sender) send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return domain.NewDomainError(domain.ErrorCodeEmailFailed, "recipient has no e-mail address")
	}

	err := resilience.Retry(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		return s.transport.Deliver(ctx, msg)
	})
	if err != nil {
		observability.RecordNotificationDelivery("email", "failed")
		s.logger.Warn("E-mail delivery failed",
			zap.String("subject", msg.Subject),
			zap.Int("attempts", s.attempts),
			zap.Error(err),
		)
		return domain.WrapError(domain.ErrorCodeEmailFailed, "send e-mail", err).
			WithDetail("subject", msg.Subject)
	}

	observability.RecordNotificationDelivery("email", "success")
	return nil
}

// ReminderMessage is sent ReminderLeadDays before renewal
func ReminderMessage(to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(to))
	fmt.Fprintf(&b, "Your %s subscription to %s renews on %s.\n", plan.Duration, plan.Name, sub.RenewalDate.Format("Monday, 02 Jan 2006"))
	fmt.Fprintf(&b, "Amount: %s\n", sub.TotalAmount.StringFixed(2))
	b.WriteString("\nNo action is needed to keep your meals coming. Cancel any time from your account.\n")

	return Message{
		To:      to.Email,
		ToName:  to.Name,
		Subject: fmt.Sprintf("Your %s subscription renews soon", plan.Name),
		Body:    b.String(),
	}
}

// RenewedMessage confirms a new period
func RenewedMessage(to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(to))
	fmt.Fprintf(&b, "Your subscription to %s has been renewed.\n", plan.Name)
	fmt.Fprintf(&b, "New period: %s to %s\n", sub.StartDate.Format("02 Jan 2006"), sub.EndDate.Format("02 Jan 2006"))
	fmt.Fprintf(&b, "Amount: %s\n", sub.TotalAmount.StringFixed(2))

	return Message{
		To:      to.Email,
		ToName:  to.Name,
		Subject: fmt.Sprintf("%s renewed", plan.Name),
		Body:    b.String(),
	}
}

func greetingName(c *domain.Customer) string {
	if c.Name == "" {
		return "there"
	}
	return c.Name
}
