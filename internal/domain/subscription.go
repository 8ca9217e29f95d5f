package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// SubscriptionStatus represents the subscription state
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
)

// PaymentMethod is how the customer pays for the plan
type PaymentMethod string

const (
	PaymentMethodCreditCard    PaymentMethod = "credit card"
	PaymentMethodDebitCard     PaymentMethod = "debit card"
	PaymentMethodOnlinePayment PaymentMethod = "online payment"
)

// IsValid reports whether m is an accepted payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodOnlinePayment:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of the subscription charge
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Address is a delivery destination
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// Validate requires every address line
func (a Address) Validate() error {
	switch {
	case a.Street == "":
		return ErrMissingField("delivery_address.street")
	case a.City == "":
		return ErrMissingField("delivery_address.city")
	case a.State == "":
		return ErrMissingField("delivery_address.state")
	case a.ZipCode == "":
		return ErrMissingField("delivery_address.zip_code")
	}
	return nil
}

// Subscription is a customer's recurring purchase of a meal plan
type Subscription struct {
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`
	RenewalDate          time.Time          `json:"renewal_date"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	CancelledAt          *time.Time         `json:"cancelled_at,omitempty"`
	LastReminderFor      *time.Time         `json:"last_reminder_for,omitempty"`
	LastRemindedAt       *time.Time         `json:"last_reminded_at,omitempty"`
	TotalAmount          decimal.Decimal    `json:"total_amount"`
	DeliveryAddress      Address            `json:"delivery_address"`
	ID                   string             `json:"id"`
	UserID               string             `json:"user_id"`
	MealPlanID           string             `json:"meal_plan_id"`
	DeliveryInstructions string             `json:"delivery_instructions,omitempty"`
	SelectedDietType     DietType           `json:"selected_diet_type"`
	Status               SubscriptionStatus `json:"status"`
	PaymentMethod        PaymentMethod      `json:"payment_method"`
	PaymentStatus        PaymentStatus      `json:"payment_status"`
	SelectedMealTimes    []MealTimeOption   `json:"selected_meal_times"`
}

// MaxDeliveryInstructions is the longest accepted delivery instruction text
const MaxDeliveryInstructions = 500

// SubscriptionChanges holds the fields a customer may edit on a subscription.
// Nil fields are left as they are.
type SubscriptionChanges struct {
	DeliveryAddress      *Address
	DeliveryInstructions *string
	MealTimes            []MealTimeOption
}

// IsEmpty reports whether no field is set
func (c SubscriptionChanges) IsEmpty() bool {
	return c.DeliveryAddress == nil && c.DeliveryInstructions == nil && c.MealTimes == nil
}

// Validate checks every field that is set
func (c SubscriptionChanges) Validate() error {
	if c.IsEmpty() {
		return ErrValidation("no fields to update")
	}
	if c.DeliveryAddress != nil {
		if err := c.DeliveryAddress.Validate(); err != nil {
			return err
		}
	}
	if c.DeliveryInstructions != nil && len(*c.DeliveryInstructions) > MaxDeliveryInstructions {
		return ErrValidation("delivery instructions cannot exceed 500 characters")
	}
	if c.MealTimes != nil {
		if err := ValidateMealTimes(c.MealTimes); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTo copies the set fields onto s
func (c SubscriptionChanges) ApplyTo(s *Subscription) {
	if c.DeliveryAddress != nil {
		s.DeliveryAddress = *c.DeliveryAddress
	}
	if c.DeliveryInstructions != nil {
		s.DeliveryInstructions = *c.DeliveryInstructions
	}
	if c.MealTimes != nil {
		s.SelectedMealTimes = append([]MealTimeOption(nil), c.MealTimes...)
	}
}

// IsActive returns true if the subscription is currently active
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsCancelled returns true if the subscription has been cancelled
func (s *Subscription) IsCancelled() bool {
	return s.Status == SubscriptionStatusCancelled || s.CancelledAt != nil
}

// OwnedBy reports whether userID owns the subscription
func (s *Subscription) OwnedBy(userID string) bool {
	return s.UserID == userID
}

// SetPeriod sets the current period from start; RenewalDate always equals EndDate
func (s *Subscription) SetPeriod(start time.Time, duration PlanDuration) {
	s.StartDate = timeutil.ToUTC(start)
	s.EndDate = duration.AddTo(s.StartDate)
	s.RenewalDate = s.EndDate
}

// NextPeriod returns the period that follows the current one.
// The new start is the old renewal date.
func (s *Subscription) NextPeriod(duration PlanDuration) (start, end time.Time) {
	start = s.RenewalDate
	end = duration.AddTo(start)
	return start, end
}

// ReminderAt is when the renewal reminder for the current period becomes due
func (s *Subscription) ReminderAt() time.Time {
	return s.RenewalDate.AddDate(0, 0, -ReminderLeadDays)
}

// RemindedForCurrentPeriod reports whether a reminder was already sent for RenewalDate
func (s *Subscription) RemindedForCurrentPeriod() bool {
	return s.LastReminderFor != nil && s.LastReminderFor.Equal(s.RenewalDate)
}

// HasStartedBy reports whether deliveries may be scheduled on day
func (s *Subscription) HasStartedBy(day time.Time) bool {
	return !timeutil.StartOfDay(day).Before(timeutil.StartOfDay(s.StartDate))
}

// ReminderLeadDays is how far ahead of renewal the customer is reminded
const ReminderLeadDays = 3
