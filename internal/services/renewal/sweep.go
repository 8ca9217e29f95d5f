package renewal

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/observability"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

const (
	// SweepLockName is the lock key shared by every sweep trigger
	SweepLockName = "daily-sweep"

	// DefaultLockTTL bounds how long a crashed sweep can block the next one
	DefaultLockTTL = 30 * time.Minute

	PassReminders = "reminders"
	PassRenewals  = "renewals"
	PassOrders    = "orders"
)

// Service implements servicesports.SweepService
type Service struct {
	subs         ports.SubscriptionRepository
	plans        ports.MealPlanRepository
	customers    ports.CustomerDirectory
	materializer servicesports.Materializer
	notifier     ports.NotificationSink
	email        ports.EmailSink
	locker       ports.SweepLocker
	logger       ports.Logger
	lockTTL      time.Duration
}

// NewService creates the daily sweep. email may be nil to disable e-mail.
func NewService(
	subs ports.SubscriptionRepository,
	plans ports.MealPlanRepository,
	customers ports.CustomerDirectory,
	materializer servicesports.Materializer,
	notifier ports.NotificationSink,
	email ports.EmailSink,
	locker ports.SweepLocker,
	logger ports.Logger,
) *Service {
	return &Service{
		subs:         subs,
		plans:        plans,
		customers:    customers,
		materializer: materializer,
		notifier:     notifier,
		email:        email,
		locker:       locker,
		logger:       logger,
		lockTTL:      DefaultLockTTL,
	}
}

// WithLockTTL overrides the sweep lock lifetime
func (s *Service) WithLockTTL(ttl time.Duration) *Service {
	s.lockTTL = ttl
	return s
}

var _ servicesports.SweepService = (*Service)(nil)

// sweep is the state of one run
type sweep struct {
	now    time.Time
	result *servicesports.SweepResult
	plans  map[string]*domain.MealPlan
}

func (sw *sweep) fail(pass, subscriptionID string, err error) {
	sw.result.Errors = append(sw.result.Errors, servicesports.SweepError{
		Pass:           pass,
		SubscriptionID: subscriptionID,
		Error:          err.Error(),
	})
}

// RunDailySweep runs the reminder, renewal and next-day order passes in that
// order. Item failures are collected in the result; only lock errors abort.
func (s *Service) RunDailySweep(ctx context.Context, now time.Time) (*servicesports.SweepResult, error) {
	now = timeutil.ToUTC(now)

	lease, ok, err := s.locker.TryAcquire(ctx, SweepLockName, s.lockTTL)
	if err != nil {
		observability.RecordSweep("lock_error", 0, 0, 0, 0)
		return nil, domain.WrapError(domain.ErrorCodeLockUnavailable, "acquire sweep lock", err)
	}
	if !ok {
		observability.RecordSweep("skipped", 0, 0, 0, 0)
		s.logger.Warn("daily sweep already in progress", ports.Time("as_of", now))
		return nil, domain.ErrSweepInProgress()
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to release sweep lock", ports.Err(err))
		}
	}()

	started := time.Now()
	sw := &sweep{
		now:    now,
		result: &servicesports.SweepResult{AsOf: now},
		plans:  make(map[string]*domain.MealPlan),
	}

	s.logger.Info("daily sweep started", ports.Time("as_of", now))

	s.reminderPass(ctx, sw)
	s.renewalPass(ctx, sw)
	s.orderPass(ctx, sw)

	res := sw.result
	status := "success"
	if len(res.Errors) > 0 {
		status = "partial"
	}
	elapsed := time.Since(started)
	observability.RecordSweep(status, res.RemindersSent, res.SubscriptionsRenewed, res.OrdersCreated, elapsed.Seconds())

	s.logger.Info("daily sweep completed",
		ports.Time("as_of", now),
		ports.Int("reminders_sent", res.RemindersSent),
		ports.Int("subscriptions_renewed", res.SubscriptionsRenewed),
		ports.Int("orders_created", res.OrdersCreated),
		ports.Int("errors", len(res.Errors)),
		ports.Duration("elapsed", elapsed))

	return res, nil
}

// reminderPass reminds subscribers whose renewal falls within the next
// ReminderLeadDays calendar days. The reminder is claimed before it is sent,
// so a failed send is not retried for the same renewal date.
func (s *Service) reminderPass(ctx context.Context, sw *sweep) {
	from := timeutil.StartOfDay(sw.now)
	to := timeutil.EndOfDay(timeutil.AddDays(sw.now, domain.ReminderLeadDays))

	subs, err := s.subs.ListActiveRenewingBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("reminder pass: list subscriptions failed", ports.Err(err))
		sw.fail(PassReminders, "", fmt.Errorf("list renewing subscriptions: %w", err))
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			sw.fail(PassReminders, "", ctx.Err())
			return
		}

		plan, err := s.plan(ctx, sw, sub.MealPlanID)
		if err != nil {
			sw.fail(PassReminders, sub.ID, err)
			continue
		}

		claimed, err := s.subs.MarkReminderSent(ctx, sub.ID, sub.RenewalDate, sw.now)
		if err != nil {
			s.logger.Error("failed to record reminder",
				ports.String("subscription_id", sub.ID),
				ports.Err(err))
			sw.fail(PassReminders, sub.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		sw.result.RemindersSent++

		subID := sub.ID
		s.notify(ctx, sw, PassReminders, &domain.Notification{
			RecipientID:           sub.UserID,
			Type:                  domain.NotificationSubscriptionReminder,
			Title:                 "Subscription Renewal Reminder",
			Message:               fmt.Sprintf("Your subscription to %s will renew on %s.", plan.Name, sub.RenewalDate.Format("2006-01-02")),
			RelatedSubscriptionID: &subID,
		})
		s.sendEmail(ctx, sw, PassReminders, sub, plan, s.emailReminder)
	}
}

// renewalPass rolls every due subscription forward in place
func (s *Service) renewalPass(ctx context.Context, sw *sweep) {
	subs, err := s.subs.ListActiveDueForRenewal(ctx, sw.now)
	if err != nil {
		s.logger.Error("renewal pass: list subscriptions failed", ports.Err(err))
		sw.fail(PassRenewals, "", fmt.Errorf("list due subscriptions: %w", err))
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			sw.fail(PassRenewals, "", ctx.Err())
			return
		}

		plan, err := s.plan(ctx, sw, sub.MealPlanID)
		if err != nil {
			sw.fail(PassRenewals, sub.ID, err)
			continue
		}

		// one period per sweep; a subscription several periods behind
		// is picked up again by the following sweeps
		start, end := sub.NextPeriod(plan.Duration)

		applied, err := s.subs.Renew(ctx, sub.ID, sub.RenewalDate, start, end, sw.now)
		if err != nil {
			s.logger.Error("failed to renew subscription",
				ports.String("subscription_id", sub.ID),
				ports.Err(err))
			sw.fail(PassRenewals, sub.ID, err)
			continue
		}
		if !applied {
			// cancelled or renewed by someone else since the listing
			s.logger.Debug("renewal skipped, subscription changed",
				ports.String("subscription_id", sub.ID))
			continue
		}

		sw.result.SubscriptionsRenewed++
		observability.RecordSubscriptionEvent("renewed")

		renewed := *sub
		renewed.StartDate, renewed.EndDate, renewed.RenewalDate = start, end, end
		renewed.UpdatedAt = sw.now

		s.logger.Info("subscription renewed",
			ports.String("subscription_id", sub.ID),
			ports.Time("start_date", start),
			ports.Time("renewal_date", end))

		subID := sub.ID
		s.notify(ctx, sw, PassRenewals, &domain.Notification{
			RecipientID:           sub.UserID,
			Type:                  domain.NotificationSubscriptionRenewed,
			Title:                 "Subscription Renewed",
			Message:               fmt.Sprintf("Your subscription to %s has been renewed until %s.", plan.Name, end.Format("2006-01-02")),
			RelatedSubscriptionID: &subID,
		})
		s.sendEmail(ctx, sw, PassRenewals, &renewed, plan, s.emailRenewed)
	}
}

// orderPass materializes tomorrow's orders for every running subscription
func (s *Service) orderPass(ctx context.Context, sw *sweep) {
	tomorrow := timeutil.AddDays(timeutil.StartOfDay(sw.now), 1)
	if domain.WeekdayOf(tomorrow) == "" {
		s.logger.Info("no deliveries tomorrow, skipping order pass", ports.Time("date", tomorrow))
		return
	}

	subs, err := s.subs.ListActiveEndingOnOrAfter(ctx, sw.now)
	if err != nil {
		s.logger.Error("order pass: list subscriptions failed", ports.Err(err))
		sw.fail(PassOrders, "", fmt.Errorf("list running subscriptions: %w", err))
		return
	}

	for _, listed := range subs {
		if ctx.Err() != nil {
			sw.fail(PassOrders, "", ctx.Err())
			return
		}
		if !listed.HasStartedBy(tomorrow) {
			continue
		}

		// re-check right before writing; a cancel may have landed mid-sweep
		sub, err := s.subs.GetByID(ctx, listed.ID)
		if err != nil {
			sw.fail(PassOrders, listed.ID, err)
			continue
		}
		if !sub.IsActive() {
			continue
		}

		plan, err := s.plan(ctx, sw, sub.MealPlanID)
		if err != nil {
			sw.fail(PassOrders, sub.ID, err)
			continue
		}

		res, err := s.materializer.ExpandForDay(ctx, sub, plan, tomorrow)
		if err != nil {
			sw.fail(PassOrders, sub.ID, err)
			continue
		}
		sw.result.OrdersCreated += len(res.Created)
		for _, f := range res.Failures {
			sw.fail(PassOrders, sub.ID, fmt.Errorf("%s %s: %w", f.Date.Format("2006-01-02"), f.MealTime, f.Err))
		}
		for _, w := range res.Warnings {
			sw.fail(PassOrders, sub.ID, w)
		}
	}
}

func (s *Service) plan(ctx context.Context, sw *sweep, id string) (*domain.MealPlan, error) {
	if p, ok := sw.plans[id]; ok {
		return p, nil
	}
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sw.plans[id] = p
	return p, nil
}

func (s *Service) notify(ctx context.Context, sw *sweep, pass string, n *domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		err = domain.AsDependency(domain.ErrorCodeNotificationFailed, "send "+string(n.Type), err)
		s.logger.Warn("sweep notification failed",
			ports.String("pass", pass),
			ports.String("recipient_id", n.RecipientID),
			ports.Err(err))
		sw.fail(pass, derefString(n.RelatedSubscriptionID), err)
	}
}

type emailFunc func(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error

func (s *Service) emailReminder(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error {
	return s.email.SendReminder(ctx, to, sub, plan)
}

func (s *Service) emailRenewed(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error {
	return s.email.SendRenewed(ctx, to, sub, plan)
}

func (s *Service) sendEmail(ctx context.Context, sw *sweep, pass string, sub *domain.Subscription, plan *domain.MealPlan, send emailFunc) {
	if s.email == nil || s.customers == nil {
		return
	}
	customer, err := s.customers.GetCustomer(ctx, sub.UserID)
	if err != nil {
		err = domain.AsDependency(domain.ErrorCodeEmailFailed, "resolve customer", err)
		sw.fail(pass, sub.ID, err)
		return
	}
	if customer.Email == "" {
		return
	}
	if err := send(ctx, customer, sub, plan); err != nil {
		err = domain.AsDependency(domain.ErrorCodeEmailFailed, "send e-mail", err)
		s.logger.Warn("sweep e-mail failed",
			ports.String("pass", pass),
			ports.String("subscription_id", sub.ID),
			ports.Err(err))
		sw.fail(pass, sub.ID, err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
