package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %s: %w", v, err)
	}
	return d, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

type menuItemDoc struct {
	ItemID      string               `bson:"item_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
}

type dayMenuDoc struct {
	Day         string        `bson:"day"`
	VegItems    []menuItemDoc `bson:"veg_items"`
	VeganItems  []menuItemDoc `bson:"vegan_items"`
	NonVegItems []menuItemDoc `bson:"non_veg_items"`
}

type mealPlanDoc struct {
	ID                 string               `bson:"_id"`
	RestaurantID       string               `bson:"restaurant_id"`
	Name               string               `bson:"name"`
	Description        string               `bson:"description"`
	Tier               string               `bson:"tier"`
	Duration           string               `bson:"duration"`
	Price              primitive.Decimal128 `bson:"price"`
	WeeklyMenu         []dayMenuDoc         `bson:"weekly_menu"`
	MaxSubscribers     *int                 `bson:"max_subscribers"`
	CurrentSubscribers int                  `bson:"current_subscribers"`
	CustomFor          *string              `bson:"custom_for,omitempty"`
	IsActive           bool                 `bson:"is_active"`
	IsCustom           bool                 `bson:"is_custom"`
	CreatedAt          time.Time            `bson:"created_at"`
	UpdatedAt          time.Time            `bson:"updated_at"`
}

func itemsToDocs(items []domain.MenuItem) ([]menuItemDoc, error) {
	out := make([]menuItemDoc, len(items))
	for i, it := range items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		out[i] = menuItemDoc{ItemID: it.ItemID, Name: it.Name, Description: it.Description, Price: price}
	}
	return out, nil
}

func itemsFromDocs(docs []menuItemDoc) ([]domain.MenuItem, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]domain.MenuItem, len(docs))
	for i, d := range docs {
		price, err := fromDecimal128(d.Price)
		if err != nil {
			return nil, err
		}
		out[i] = domain.MenuItem{ItemID: d.ItemID, Name: d.Name, Description: d.Description, Price: price}
	}
	return out, nil
}

func newMealPlanDoc(p *domain.MealPlan) (*mealPlanDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	menu := make([]dayMenuDoc, len(p.WeeklyMenu))
	for i, d := range p.WeeklyMenu {
		doc := dayMenuDoc{Day: string(d.Day)}
		if doc.VegItems, err = itemsToDocs(d.VegItems); err != nil {
			return nil, err
		}
		if doc.VeganItems, err = itemsToDocs(d.VeganItems); err != nil {
			return nil, err
		}
		if doc.NonVegItems, err = itemsToDocs(d.NonVegItems); err != nil {
			return nil, err
		}
		menu[i] = doc
	}
	return &mealPlanDoc{
		ID:                 p.ID,
		RestaurantID:       p.RestaurantID,
		Name:               p.Name,
		Description:        p.Description,
		Tier:               string(p.Tier),
		Duration:           string(p.Duration),
		Price:              price,
		WeeklyMenu:         menu,
		MaxSubscribers:     p.MaxSubscribers,
		CurrentSubscribers: p.CurrentSubscribers,
		CustomFor:          p.CustomFor,
		IsActive:           p.IsActive,
		IsCustom:           p.IsCustom,
		CreatedAt:          p.CreatedAt.UTC(),
		UpdatedAt:          p.UpdatedAt.UTC(),
	}, nil
}

func (d *mealPlanDoc) toDomain() (*domain.MealPlan, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	menu := make([]domain.DayMenu, len(d.WeeklyMenu))
	for i, dm := range d.WeeklyMenu {
		day := domain.DayMenu{Day: domain.Weekday(dm.Day)}
		if day.VegItems, err = itemsFromDocs(dm.VegItems); err != nil {
			return nil, err
		}
		if day.VeganItems, err = itemsFromDocs(dm.VeganItems); err != nil {
			return nil, err
		}
		if day.NonVegItems, err = itemsFromDocs(dm.NonVegItems); err != nil {
			return nil, err
		}
		menu[i] = day
	}
	return &domain.MealPlan{
		ID:                 d.ID,
		RestaurantID:       d.RestaurantID,
		Name:               d.Name,
		Description:        d.Description,
		Tier:               domain.PlanTier(d.Tier),
		Duration:           domain.PlanDuration(d.Duration),
		Price:              price,
		WeeklyMenu:         menu,
		MaxSubscribers:     d.MaxSubscribers,
		CurrentSubscribers: d.CurrentSubscribers,
		CustomFor:          d.CustomFor,
		IsActive:           d.IsActive,
		IsCustom:           d.IsCustom,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}, nil
}

type addressDoc struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state"`
	ZipCode string `bson:"zip_code"`
}

type subscriptionDoc struct {
	ID                   string               `bson:"_id"`
	UserID               string               `bson:"user_id"`
	MealPlanID           string               `bson:"meal_plan_id"`
	SelectedDietType     string               `bson:"selected_diet_type"`
	SelectedMealTimes    []string             `bson:"selected_meal_times"`
	DeliveryAddress      addressDoc           `bson:"delivery_address"`
	DeliveryInstructions string               `bson:"delivery_instructions,omitempty"`
	PaymentMethod        string               `bson:"payment_method"`
	PaymentStatus        string               `bson:"payment_status"`
	Status               string               `bson:"status"`
	TotalAmount          primitive.Decimal128 `bson:"total_amount"`
	StartDate            time.Time            `bson:"start_date"`
	EndDate              time.Time            `bson:"end_date"`
	RenewalDate          time.Time            `bson:"renewal_date"`
	LastReminderFor      *time.Time           `bson:"last_reminder_for"`
	LastRemindedAt       *time.Time           `bson:"last_reminded_at"`
	CancelledAt          *time.Time           `bson:"cancelled_at"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
}

func newSubscriptionDoc(s *domain.Subscription) (*subscriptionDoc, error) {
	amount, err := toDecimal128(s.TotalAmount)
	if err != nil {
		return nil, err
	}
	mealTimes := make([]string, len(s.SelectedMealTimes))
	for i, mt := range s.SelectedMealTimes {
		mealTimes[i] = string(mt)
	}
	return &subscriptionDoc{
		ID:                   s.ID,
		UserID:               s.UserID,
		MealPlanID:           s.MealPlanID,
		SelectedDietType:     string(s.SelectedDietType),
		SelectedMealTimes:    mealTimes,
		DeliveryAddress:      addressDoc(s.DeliveryAddress),
		DeliveryInstructions: s.DeliveryInstructions,
		PaymentMethod:        string(s.PaymentMethod),
		PaymentStatus:        string(s.PaymentStatus),
		Status:               string(s.Status),
		TotalAmount:          amount,
		StartDate:            s.StartDate.UTC(),
		EndDate:              s.EndDate.UTC(),
		RenewalDate:          s.RenewalDate.UTC(),
		LastReminderFor:      utcPtr(s.LastReminderFor),
		LastRemindedAt:       utcPtr(s.LastRemindedAt),
		CancelledAt:          utcPtr(s.CancelledAt),
		CreatedAt:            s.CreatedAt.UTC(),
		UpdatedAt:            s.UpdatedAt.UTC(),
	}, nil
}

func (d *subscriptionDoc) toDomain() (*domain.Subscription, error) {
	amount, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	mealTimes := make([]domain.MealTimeOption, len(d.SelectedMealTimes))
	for i, mt := range d.SelectedMealTimes {
		mealTimes[i] = domain.MealTimeOption(mt)
	}
	return &domain.Subscription{
		ID:                   d.ID,
		UserID:               d.UserID,
		MealPlanID:           d.MealPlanID,
		SelectedDietType:     domain.DietType(d.SelectedDietType),
		SelectedMealTimes:    mealTimes,
		DeliveryAddress:      domain.Address(d.DeliveryAddress),
		DeliveryInstructions: d.DeliveryInstructions,
		PaymentMethod:        domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:        domain.PaymentStatus(d.PaymentStatus),
		Status:               domain.SubscriptionStatus(d.Status),
		TotalAmount:          amount,
		StartDate:            d.StartDate.UTC(),
		EndDate:              d.EndDate.UTC(),
		RenewalDate:          d.RenewalDate.UTC(),
		LastReminderFor:      utcPtr(d.LastReminderFor),
		LastRemindedAt:       utcPtr(d.LastRemindedAt),
		CancelledAt:          utcPtr(d.CancelledAt),
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}, nil
}

type orderItemDoc struct {
	ItemID   string               `bson:"item_id"`
	Name     string               `bson:"name"`
	Price    primitive.Decimal128 `bson:"price"`
	Quantity int                  `bson:"quantity"`
}

type orderDoc struct {
	ID                   string               `bson:"_id"`
	UserID               string               `bson:"user_id"`
	RestaurantID         string               `bson:"restaurant_id"`
	SubscriptionID       *string              `bson:"subscription_id,omitempty"`
	Items                []orderItemDoc       `bson:"items"`
	TotalAmount          primitive.Decimal128 `bson:"total_amount"`
	DeliveryAddress      addressDoc           `bson:"delivery_address"`
	DeliveryInstructions string               `bson:"delivery_instructions,omitempty"`
	PaymentMethod        string               `bson:"payment_method"`
	Status               string               `bson:"status"`
	DayOfWeek            string               `bson:"day_of_week,omitempty"`
	MealTime             string               `bson:"meal_time,omitempty"`
	DietType             string               `bson:"diet_type,omitempty"`
	ScheduledFor         time.Time            `bson:"scheduled_for"`
	ScheduledDay         time.Time            `bson:"scheduled_day"`
	CancellationReason   string               `bson:"cancellation_reason,omitempty"`
	CancelledAt          *time.Time           `bson:"cancelled_at,omitempty"`
	DeliveredAt          *time.Time           `bson:"delivered_at,omitempty"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
}

func newOrderDoc(o *domain.Order) (*orderDoc, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return nil, err
	}
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		items[i] = orderItemDoc{ItemID: it.ItemID, Name: it.Name, Price: price, Quantity: it.Quantity}
	}
	return &orderDoc{
		ID:                   o.ID,
		UserID:               o.UserID,
		RestaurantID:         o.RestaurantID,
		SubscriptionID:       o.SubscriptionID,
		Items:                items,
		TotalAmount:          total,
		DeliveryAddress:      addressDoc(o.DeliveryAddress),
		DeliveryInstructions: o.DeliveryInstructions,
		PaymentMethod:        string(o.PaymentMethod),
		Status:               string(o.Status),
		DayOfWeek:            string(o.DayOfWeek),
		MealTime:             string(o.MealTime),
		DietType:             string(o.DietType),
		ScheduledFor:         o.ScheduledFor.UTC(),
		ScheduledDay:         timeutil.StartOfDay(o.ScheduledFor),
		CancellationReason:   o.CancellationReason,
		CancelledAt:          utcPtr(o.CancelledAt),
		DeliveredAt:          utcPtr(o.DeliveredAt),
		CreatedAt:            o.CreatedAt.UTC(),
		UpdatedAt:            o.UpdatedAt.UTC(),
	}, nil
}

func (d *orderDoc) toDomain() (*domain.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, len(d.Items))
	for i, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		items[i] = domain.OrderItem{ItemID: it.ItemID, Name: it.Name, Price: price, Quantity: it.Quantity}
	}
	return &domain.Order{
		ID:                   d.ID,
		UserID:               d.UserID,
		RestaurantID:         d.RestaurantID,
		SubscriptionID:       d.SubscriptionID,
		Items:                items,
		TotalAmount:          total,
		DeliveryAddress:      domain.Address(d.DeliveryAddress),
		DeliveryInstructions: d.DeliveryInstructions,
		PaymentMethod:        domain.PaymentMethod(d.PaymentMethod),
		Status:               domain.OrderStatus(d.Status),
		DayOfWeek:            domain.Weekday(d.DayOfWeek),
		MealTime:             domain.MealTime(d.MealTime),
		DietType:             domain.DietType(d.DietType),
		ScheduledFor:         d.ScheduledFor.UTC(),
		CancellationReason:   d.CancellationReason,
		CancelledAt:          utcPtr(d.CancelledAt),
		DeliveredAt:          utcPtr(d.DeliveredAt),
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}, nil
}

type notificationDoc struct {
	ID                    string     `bson:"_id"`
	RecipientID           string     `bson:"recipient_id"`
	Type                  string     `bson:"type"`
	Title                 string     `bson:"title"`
	Message               string     `bson:"message"`
	RelatedOrderID        *string    `bson:"related_order_id,omitempty"`
	RelatedSubscriptionID *string    `bson:"related_subscription_id,omitempty"`
	IsRead                bool       `bson:"is_read"`
	DeliverAfter          *time.Time `bson:"deliver_after"`
	CreatedAt             time.Time  `bson:"created_at"`
}

func newNotificationDoc(n *domain.Notification) *notificationDoc {
	return &notificationDoc{
		ID:                    n.ID,
		RecipientID:           n.RecipientID,
		Type:                  string(n.Type),
		Title:                 n.Title,
		Message:               n.Message,
		RelatedOrderID:        n.RelatedOrderID,
		RelatedSubscriptionID: n.RelatedSubscriptionID,
		IsRead:                n.IsRead,
		DeliverAfter:          utcPtr(n.DeliverAfter),
		CreatedAt:             n.CreatedAt.UTC(),
	}
}

func (d *notificationDoc) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:                    d.ID,
		RecipientID:           d.RecipientID,
		Type:                  domain.NotificationType(d.Type),
		Title:                 d.Title,
		Message:               d.Message,
		RelatedOrderID:        d.RelatedOrderID,
		RelatedSubscriptionID: d.RelatedSubscriptionID,
		IsRead:                d.IsRead,
		DeliverAfter:          utcPtr(d.DeliverAfter),
		CreatedAt:             d.CreatedAt.UTC(),
	}
}

type restaurantDoc struct {
	ID      string `bson:"_id"`
	Name    string `bson:"name"`
	OwnerID string `bson:"owner_id"`
}

type customerDoc struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}
