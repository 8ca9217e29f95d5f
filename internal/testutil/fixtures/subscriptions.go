package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// SubscriptionBuilder provides fluent API for building test subscriptions.
type SubscriptionBuilder struct {
	sub      *domain.Subscription
	duration domain.PlanDuration
}

// NewSubscription creates an active weekly vegetarian subscription with both
// meal times. Call Starting to set the period.
func NewSubscription(plan *domain.MealPlan) *SubscriptionBuilder {
	now := time.Now().UTC()
	b := &SubscriptionBuilder{
		sub: &domain.Subscription{
			ID:                uuid.New().String(),
			UserID:            "user-1",
			MealPlanID:        plan.ID,
			SelectedDietType:  domain.DietVegetarian,
			SelectedMealTimes: []domain.MealTimeOption{domain.MealTimeOptionBoth},
			Status:            domain.SubscriptionStatusActive,
			PaymentMethod:     domain.PaymentMethodCreditCard,
			PaymentStatus:     domain.PaymentStatusCompleted,
			TotalAmount:       plan.Price,
			DeliveryAddress:   DefaultAddress(),
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		duration: plan.Duration,
	}
	b.sub.SetPeriod(now, plan.Duration)
	return b
}

// DefaultAddress is a complete delivery address
func DefaultAddress() domain.Address {
	return domain.Address{Street: "12 MG Road", City: "Pune", State: "MH", ZipCode: "411001"}
}

func (b *SubscriptionBuilder) WithID(id string) *SubscriptionBuilder {
	b.sub.ID = id
	return b
}

func (b *SubscriptionBuilder) WithUserID(userID string) *SubscriptionBuilder {
	b.sub.UserID = userID
	return b
}

func (b *SubscriptionBuilder) WithDiet(diet domain.DietType) *SubscriptionBuilder {
	b.sub.SelectedDietType = diet
	return b
}

func (b *SubscriptionBuilder) WithMealTimes(options ...domain.MealTimeOption) *SubscriptionBuilder {
	b.sub.SelectedMealTimes = options
	return b
}

func (b *SubscriptionBuilder) WithStatus(status domain.SubscriptionStatus) *SubscriptionBuilder {
	b.sub.Status = status
	return b
}

func (b *SubscriptionBuilder) WithAmount(amount decimal.Decimal) *SubscriptionBuilder {
	b.sub.TotalAmount = amount
	return b
}

// Starting sets the period to [start, start+duration)
func (b *SubscriptionBuilder) Starting(start time.Time) *SubscriptionBuilder {
	b.sub.SetPeriod(start, b.duration)
	return b
}

func (b *SubscriptionBuilder) Build() *domain.Subscription {
	return b.sub
}
