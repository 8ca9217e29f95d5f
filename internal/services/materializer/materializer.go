package materializer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/observability"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

const (
	triggerWindow = "window"
	triggerDay    = "day"
)

// Service implements servicesports.Materializer
type Service struct {
	orders      ports.OrderRepository
	restaurants ports.RestaurantDirectory
	notifier    ports.NotificationSink
	clock       timeutil.Clock
	logger      ports.Logger
}

// NewService creates a new order materializer
func NewService(
	orders ports.OrderRepository,
	restaurants ports.RestaurantDirectory,
	notifier ports.NotificationSink,
	clock timeutil.Clock,
	logger ports.Logger,
) *Service {
	return &Service{
		orders:      orders,
		restaurants: restaurants,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
	}
}

var _ servicesports.Materializer = (*Service)(nil)

// ExpandForWindow materializes the next occurrence of each menu day on or after referenceDate
func (s *Service) ExpandForWindow(ctx context.Context, sub *domain.Subscription, plan *domain.MealPlan, referenceDate time.Time) (*servicesports.MaterializeResult, error) {
	if err := checkInputs(sub, plan); err != nil {
		return nil, err
	}

	run := s.newRun(sub, plan)
	for _, day := range plan.WeeklyMenu {
		wd, ok := day.Day.TimeWeekday()
		if !ok {
			continue
		}
		s.expandDay(ctx, run, day, timeutil.NextWeekday(referenceDate, wd))
	}

	s.finish(run, triggerWindow)
	return run.result, nil
}

// ExpandForDay materializes exactly one calendar day. Saturday and days without
// a menu entry produce an empty result.
func (s *Service) ExpandForDay(ctx context.Context, sub *domain.Subscription, plan *domain.MealPlan, date time.Time) (*servicesports.MaterializeResult, error) {
	if err := checkInputs(sub, plan); err != nil {
		return nil, err
	}

	run := s.newRun(sub, plan)
	if day, ok := plan.DayMenuFor(domain.WeekdayOf(date)); ok {
		s.expandDay(ctx, run, day, timeutil.StartOfDay(date))
	}

	s.finish(run, triggerDay)
	return run.result, nil
}

// run carries per-call state; the restaurant is looked up at most once
type run struct {
	sub        *domain.Subscription
	plan       *domain.MealPlan
	result     *servicesports.MaterializeResult
	restaurant *domain.Restaurant
	looked     bool
}

func (s *Service) newRun(sub *domain.Subscription, plan *domain.MealPlan) *run {
	return &run{sub: sub, plan: plan, result: &servicesports.MaterializeResult{}}
}

func (s *Service) expandDay(ctx context.Context, r *run, day domain.DayMenu, date time.Time) {
	if date.Before(timeutil.StartOfDay(r.sub.StartDate)) {
		return
	}

	items := day.ItemsFor(r.sub.SelectedDietType)
	if len(items) == 0 {
		s.logger.Debug("no items for diet, skipping day",
			ports.String("subscription_id", r.sub.ID),
			ports.String("day", string(day.Day)),
			ports.String("diet_type", string(r.sub.SelectedDietType)))
		return
	}

	for _, mt := range domain.ExpandMealTimes(r.sub.SelectedMealTimes) {
		slot := domain.OrderSlot{
			SubscriptionID: r.sub.ID,
			DayOfWeek:      day.Day,
			MealTime:       mt,
			ScheduledFor:   date,
		}

		created, err := s.materializeSlot(ctx, r, slot, items)
		switch {
		case err != nil:
			s.logger.Error("failed to materialize order",
				ports.String("subscription_id", r.sub.ID),
				ports.String("day", string(day.Day)),
				ports.String("meal_time", string(mt)),
				ports.Err(err))
			r.result.Failures = append(r.result.Failures, servicesports.UnitFailure{Date: date, MealTime: mt, Err: err})
		case created == nil:
			r.result.Skipped++
		default:
			r.result.Created = append(r.result.Created, created)
			s.notifyCreated(ctx, r, created)
		}
	}
}

// materializeSlot returns nil, nil when the slot already holds an order
func (s *Service) materializeSlot(ctx context.Context, r *run, slot domain.OrderSlot, items []domain.MenuItem) (*domain.Order, error) {
	exists, err := s.orders.ExistsForSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("check existing order: %w", err)
	}
	if exists {
		return nil, nil
	}

	now := s.clock.Now()
	subID := r.sub.ID
	lines := domain.SnapshotItems(items)
	order := &domain.Order{
		ID:                   uuid.New().String(),
		UserID:               r.sub.UserID,
		RestaurantID:         r.plan.RestaurantID,
		SubscriptionID:       &subID,
		Items:                lines,
		TotalAmount:          domain.SumItems(lines),
		Status:               domain.OrderStatusConfirmed,
		ScheduledFor:         slot.ScheduledFor,
		DayOfWeek:            slot.DayOfWeek,
		MealTime:             slot.MealTime,
		DietType:             r.sub.SelectedDietType,
		DeliveryAddress:      r.sub.DeliveryAddress,
		DeliveryInstructions: r.sub.DeliveryInstructions,
		PaymentMethod:        r.sub.PaymentMethod,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// lost a race with a concurrent expansion of the same slot
		if domain.IsDomainError(err, domain.ErrorCodeDuplicateOrderSlot) {
			return nil, nil
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *Service) notifyCreated(ctx context.Context, r *run, order *domain.Order) {
	when := fmt.Sprintf("%s %s", titleCase(string(order.DayOfWeek)), order.ScheduledFor.Format("2006-01-02"))
	orderID := order.ID
	subID := r.sub.ID

	s.send(ctx, r, &domain.Notification{
		RecipientID:           order.UserID,
		Type:                  domain.NotificationSubscriptionOrder,
		Title:                 "Subscription meal scheduled",
		Message:               fmt.Sprintf("Your %s meal from %s is scheduled for %s.", order.MealTime, r.plan.Name, when),
		RelatedOrderID:        &orderID,
		RelatedSubscriptionID: &subID,
	})

	owner, err := s.restaurantOwner(ctx, r)
	if err != nil {
		s.warn(r, domain.AsDependency(domain.ErrorCodeNotificationFailed, "resolve restaurant owner", err))
		return
	}
	s.send(ctx, r, &domain.Notification{
		RecipientID:           owner,
		Type:                  domain.NotificationSubscriptionOrder,
		Title:                 "New subscription order",
		Message:               fmt.Sprintf("A %s %s order for %s is scheduled for %s.", order.DietType, order.MealTime, r.plan.Name, when),
		RelatedOrderID:        &orderID,
		RelatedSubscriptionID: &subID,
	})
}

func (s *Service) send(ctx context.Context, r *run, n *domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.warn(r, domain.AsDependency(domain.ErrorCodeNotificationFailed, "notify order created", err))
	}
}

func (s *Service) warn(r *run, err error) {
	s.logger.Warn("order notification failed",
		ports.String("subscription_id", r.sub.ID),
		ports.Err(err))
	r.result.Warnings = append(r.result.Warnings, err)
}

func (s *Service) restaurantOwner(ctx context.Context, r *run) (string, error) {
	if !r.looked {
		r.looked = true
		rest, err := s.restaurants.GetRestaurant(ctx, r.plan.RestaurantID)
		if err != nil {
			return "", err
		}
		r.restaurant = rest
	}
	if r.restaurant == nil {
		return "", domain.ErrRestaurantNotFound(r.plan.RestaurantID)
	}
	return r.restaurant.OwnerID, nil
}

func (s *Service) finish(r *run, trigger string) {
	res := r.result
	observability.RecordMaterializedOrders(trigger, len(res.Created), res.Skipped, len(res.Failures))
	if len(res.Created) > 0 || len(res.Failures) > 0 {
		s.logger.Info("orders materialized",
			ports.String("subscription_id", r.sub.ID),
			ports.String("trigger", trigger),
			ports.Int("created", len(res.Created)),
			ports.Int("skipped", res.Skipped),
			ports.Int("failed", len(res.Failures)))
	}
}

func checkInputs(sub *domain.Subscription, plan *domain.MealPlan) error {
	if sub == nil {
		return domain.ErrMissingField("subscription")
	}
	if plan == nil {
		return domain.ErrMissingField("meal_plan")
	}
	if plan.ID != sub.MealPlanID {
		return domain.ErrValidation("meal plan does not belong to subscription").
			WithDetail("meal_plan_id", plan.ID)
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
