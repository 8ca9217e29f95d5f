package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/observability"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Service implements servicesports.SubscriptionService
type Service struct {
	plans        ports.MealPlanRepository
	subRepo      ports.SubscriptionRepository
	orders       ports.OrderRepository
	materializer servicesports.Materializer
	notifier     ports.NotificationSink
	clock        timeutil.Clock
	logger       ports.Logger
}

// NewService creates a new subscription service
func NewService(
	plans ports.MealPlanRepository,
	subRepo ports.SubscriptionRepository,
	orders ports.OrderRepository,
	materializer servicesports.Materializer,
	notifier ports.NotificationSink,
	clock timeutil.Clock,
	logger ports.Logger,
) *Service {
	return &Service{
		plans:        plans,
		subRepo:      subRepo,
		orders:       orders,
		materializer: materializer,
		notifier:     notifier,
		clock:        clock,
		logger:       logger,
	}
}

var _ servicesports.SubscriptionService = (*Service)(nil)

// CreateSubscription subscribes a user to a meal plan and materializes the first window
func (s *Service) CreateSubscription(ctx context.Context, req *servicesports.CreateSubscriptionRequest) (*servicesports.SubscriptionResult, error) {
	now := s.clock.Now()
	if err := validateCreate(req, now); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetByID(ctx, req.MealPlanID)
	if err != nil {
		return nil, err
	}
	if err := checkPlanAvailable(plan, req.UserID); err != nil {
		return nil, err
	}

	reserved, err := s.plans.ReserveSubscriberSlot(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("reserve subscriber slot: %w", err)
	}
	if !reserved {
		return nil, s.reservationRejected(ctx, plan)
	}

	start := now
	if req.StartDate != nil {
		start = timeutil.ToUTC(*req.StartDate)
	}

	sub := &domain.Subscription{
		ID:                   uuid.New().String(),
		UserID:               req.UserID,
		MealPlanID:           plan.ID,
		SelectedDietType:     req.DietType,
		SelectedMealTimes:    append([]domain.MealTimeOption(nil), req.MealTimes...),
		Status:               domain.SubscriptionStatusActive,
		PaymentMethod:        req.PaymentMethod,
		PaymentStatus:        domain.PaymentStatusPending,
		TotalAmount:          plan.Price,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryInstructions: req.DeliveryInstructions,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	sub.SetPeriod(start, plan.Duration)

	if err := s.subRepo.Create(ctx, sub); err != nil {
		if relErr := s.plans.ReleaseSubscriberSlot(ctx, plan.ID); relErr != nil {
			s.logger.Error("failed to release subscriber slot after create failure",
				ports.String("meal_plan_id", plan.ID),
				ports.Err(relErr))
		}
		s.logger.Error("create subscription failed",
			ports.String("user_id", req.UserID),
			ports.String("meal_plan_id", plan.ID),
			ports.Err(err))
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	observability.RecordSubscriptionEvent("created")

	result := &servicesports.SubscriptionResult{Subscription: sub}

	reference := sub.StartDate
	if now.After(reference) {
		reference = now
	}
	expansion, err := s.materializer.ExpandForWindow(ctx, sub, plan, reference)
	if err != nil {
		s.logger.Error("initial order materialization failed",
			ports.String("subscription_id", sub.ID),
			ports.Err(err))
		result.Warnings = append(result.Warnings, err)
	} else {
		result.Orders = expansion.Created
		result.Warnings = append(result.Warnings, expansion.Warnings...)
		for _, f := range expansion.Failures {
			result.Warnings = append(result.Warnings, f.Err)
		}
	}

	if err := s.scheduleReminder(ctx, sub, plan); err != nil {
		result.Warnings = append(result.Warnings, err)
	}

	s.logger.Info("subscription created",
		ports.String("subscription_id", sub.ID),
		ports.String("user_id", sub.UserID),
		ports.String("meal_plan_id", plan.ID),
		ports.String("renewal_date", sub.RenewalDate.Format(time.RFC3339)),
		ports.Int("orders_created", len(result.Orders)),
		ports.Int("warnings", len(result.Warnings)))

	return result, nil
}

// reservationRejected explains a failed reservation from the plan's current
// state: deactivated since the first read, or the last slot went to another caller.
func (s *Service) reservationRejected(ctx context.Context, plan *domain.MealPlan) error {
	current, err := s.plans.GetByID(ctx, plan.ID)
	if err == nil && !current.IsActive {
		return domain.NewDomainError(domain.ErrorCodePlanInactive, "this meal plan is no longer active").
			WithDetail("meal_plan_id", plan.ID)
	}
	return domain.NewDomainError(domain.ErrorCodePlanFull, "meal plan has reached its maximum subscribers").
		WithDetail("meal_plan_id", plan.ID)
}

// scheduleReminder stores the renewal reminder, hidden until three days before renewal
func (s *Service) scheduleReminder(ctx context.Context, sub *domain.Subscription, plan *domain.MealPlan) error {
	if s.notifier == nil {
		return nil
	}
	deliverAfter := sub.ReminderAt()
	subID := sub.ID
	err := s.notifier.Send(ctx, &domain.Notification{
		RecipientID:           sub.UserID,
		Type:                  domain.NotificationSubscriptionReminder,
		Title:                 "Subscription Renewal Reminder",
		Message:               fmt.Sprintf("Your subscription to %s will renew on %s. Please ensure your payment method is up to date.", plan.Name, sub.RenewalDate.Format("2006-01-02")),
		RelatedSubscriptionID: &subID,
		DeliverAfter:          &deliverAfter,
	})
	if err != nil {
		s.logger.Warn("failed to schedule renewal reminder",
			ports.String("subscription_id", sub.ID),
			ports.Err(err))
		return domain.AsDependency(domain.ErrorCodeNotificationFailed, "schedule renewal reminder", err)
	}
	return nil
}

// CancelSubscription cancels a subscription and its not-yet-prepared orders
func (s *Service) CancelSubscription(ctx context.Context, subscriptionID, actingUserID string) (*servicesports.CancelResult, error) {
	if subscriptionID == "" {
		return nil, domain.ErrMissingField("subscription_id")
	}

	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.OwnedBy(actingUserID) {
		return nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to cancel this subscription").
			WithDetail("subscription_id", subscriptionID)
	}
	if sub.IsCancelled() {
		return nil, alreadyCancelled(subscriptionID)
	}

	now := s.clock.Now()
	applied, err := s.subRepo.MarkCancelled(ctx, sub.ID, now)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	if !applied {
		// a concurrent cancel won
		return nil, alreadyCancelled(subscriptionID)
	}
	observability.RecordSubscriptionEvent("cancelled")

	sub.Status = domain.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.UpdatedAt = now
	result := &servicesports.CancelResult{Subscription: sub}

	if err := s.plans.ReleaseSubscriberSlot(ctx, sub.MealPlanID); err != nil {
		s.logger.Error("failed to release subscriber slot",
			ports.String("subscription_id", sub.ID),
			ports.String("meal_plan_id", sub.MealPlanID),
			ports.Err(err))
		result.Warnings = append(result.Warnings, fmt.Errorf("release subscriber slot: %w", err))
	}

	n, err := s.orders.CancelBySubscription(ctx, sub.ID, domain.CancellableBySubscription, domain.SubscriptionCancelReason, now)
	if err != nil {
		s.logger.Error("failed to cancel subscription orders",
			ports.String("subscription_id", sub.ID),
			ports.Err(err))
		result.Warnings = append(result.Warnings, fmt.Errorf("cancel subscription orders: %w", err))
	}
	result.OrdersCancelled = n

	if s.notifier != nil {
		subID := sub.ID
		err := s.notifier.Send(ctx, &domain.Notification{
			RecipientID:           sub.UserID,
			Type:                  domain.NotificationSubscriptionCancelled,
			Title:                 "Subscription Cancelled",
			Message:               fmt.Sprintf("Your subscription was cancelled. %d upcoming orders were cancelled.", n),
			RelatedSubscriptionID: &subID,
		})
		if err != nil {
			s.logger.Warn("failed to notify cancellation",
				ports.String("subscription_id", sub.ID),
				ports.Err(err))
			result.Warnings = append(result.Warnings, domain.AsDependency(domain.ErrorCodeNotificationFailed, "notify cancellation", err))
		}
	}

	s.logger.Info("subscription cancelled",
		ports.String("subscription_id", sub.ID),
		ports.String("user_id", actingUserID),
		ports.Int("orders_cancelled", n))

	return result, nil
}

// UpdateSubscription edits the delivery details of a subscription owned by the caller
func (s *Service) UpdateSubscription(ctx context.Context, req *servicesports.UpdateSubscriptionRequest) (*domain.Subscription, error) {
	if req == nil {
		return nil, domain.ErrValidation("request is required")
	}
	if req.SubscriptionID == "" {
		return nil, domain.ErrMissingField("subscription_id")
	}
	if err := req.Changes.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.subRepo.GetByID(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.OwnedBy(req.ActingUserID) {
		return nil, domain.NewDomainError(domain.ErrorCodeNotOwner, "not authorized to update this subscription").
			WithDetail("subscription_id", req.SubscriptionID)
	}
	if sub.IsCancelled() {
		return nil, alreadyCancelled(req.SubscriptionID)
	}

	now := s.clock.Now()
	req.Changes.ApplyTo(sub)
	applied, err := s.subRepo.UpdateDetails(ctx, sub, now)
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	if !applied {
		// cancelled between read and write
		return nil, alreadyCancelled(req.SubscriptionID)
	}
	sub.UpdatedAt = now

	s.logger.Info("subscription updated",
		ports.String("subscription_id", sub.ID),
		ports.String("user_id", sub.UserID))
	return sub, nil
}

// GetSubscription returns a subscription owned by actingUserID
func (s *Service) GetSubscription(ctx context.Context, subscriptionID, actingUserID string) (*domain.Subscription, error) {
	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.OwnedBy(actingUserID) {
		// do not reveal other users' subscriptions
		return nil, domain.ErrSubscriptionNotFound(subscriptionID)
	}
	return sub, nil
}

// ListSubscriptions lists a user's subscriptions, newest first
func (s *Service) ListSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrMissingField("user_id")
	}
	return s.subRepo.ListByUser(ctx, userID)
}

func validateCreate(req *servicesports.CreateSubscriptionRequest, now time.Time) error {
	if req == nil {
		return domain.ErrValidation("request is required")
	}
	if req.UserID == "" {
		return domain.ErrMissingField("user_id")
	}
	if req.MealPlanID == "" {
		return domain.ErrMissingField("meal_plan_id")
	}
	if !req.DietType.IsValid() {
		return domain.ErrValidation("invalid diet type, must be vegetarian, vegan, or non-vegetarian").
			WithDetail("diet_type", string(req.DietType))
	}
	if err := domain.ValidateMealTimes(req.MealTimes); err != nil {
		return err
	}
	if !req.PaymentMethod.IsValid() {
		return domain.ErrValidation("invalid payment method").
			WithDetail("payment_method", string(req.PaymentMethod))
	}
	if err := req.DeliveryAddress.Validate(); err != nil {
		return err
	}
	if len(req.DeliveryInstructions) > domain.MaxDeliveryInstructions {
		return domain.ErrValidation("delivery instructions cannot exceed 500 characters")
	}
	if req.StartDate != nil && timeutil.StartOfDay(*req.StartDate).Before(timeutil.StartOfDay(now)) {
		return domain.NewDomainError(domain.ErrorCodeValidationStartDate, "start date cannot be in the past")
	}
	return nil
}

func checkPlanAvailable(plan *domain.MealPlan, userID string) error {
	if !plan.IsActive {
		return domain.NewDomainError(domain.ErrorCodePlanInactive, "this meal plan is no longer active").
			WithDetail("meal_plan_id", plan.ID)
	}
	if !plan.ReservedFor(userID) {
		return domain.NewDomainError(domain.ErrorCodePlanOwnerMismatch, "not authorized to subscribe to this custom meal plan").
			WithDetail("meal_plan_id", plan.ID)
	}
	if !plan.HasCapacity() {
		return domain.NewDomainError(domain.ErrorCodePlanFull, "meal plan has reached its maximum subscribers").
			WithDetail("meal_plan_id", plan.ID)
	}
	return nil
}

func alreadyCancelled(id string) error {
	return domain.NewDomainError(domain.ErrorCodeAlreadyCancelled, "subscription is already cancelled").
		WithDetail("subscription_id", id)
}
