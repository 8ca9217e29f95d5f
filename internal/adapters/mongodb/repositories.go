package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// MealPlanRepository implements ports.MealPlanRepository
type MealPlanRepository struct {
	coll *mongo.Collection
}

func (r *MealPlanRepository) Create(ctx context.Context, plan *domain.MealPlan) error {
	doc, err := newMealPlanDoc(plan)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert meal plan: %w", err)
	}
	return nil
}

func (r *MealPlanRepository) GetByID(ctx context.Context, id string) (*domain.MealPlan, error) {
	var doc mealPlanDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrMealPlanNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find meal plan: %w", err)
	}
	return doc.toDomain()
}

func (r *MealPlanRepository) ListActive(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error) {
	filter := bson.M{"is_active": true}
	if restaurantID != "" {
		filter["restaurant_id"] = restaurantID
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}
	var docs []mealPlanDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode meal plans: %w", err)
	}

	out := make([]*domain.MealPlan, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ReserveSubscriberSlot is a single $inc guarded by the capacity filter
func (r *MealPlanRepository) ReserveSubscriberSlot(ctx context.Context, id string) (bool, error) {
	filter := bson.M{
		"_id":       id,
		"is_active": true,
		"$or": bson.A{
			bson.M{"max_subscribers": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$current_subscribers", "$max_subscribers"}}},
		},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"current_subscribers": 1},
		"$set": bson.M{"updated_at": timeutil.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("reserve subscriber slot: %w", err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	if err := exists(ctx, r.coll, id, domain.ErrMealPlanNotFound(id)); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MealPlanRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": at.UTC()}})
	if err != nil {
		return fmt.Errorf("set meal plan active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMealPlanNotFound(id)
	}
	return nil
}

func (r *MealPlanRepository) ReleaseSubscriberSlot(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "current_subscribers": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"current_subscribers": -1},
			"$set": bson.M{"updated_at": timeutil.Now()},
		})
	if err != nil {
		return fmt.Errorf("release subscriber slot: %w", err)
	}
	if res.MatchedCount == 0 {
		return exists(ctx, r.coll, id, domain.ErrMealPlanNotFound(id))
	}
	return nil
}

// SubscriptionRepository implements ports.SubscriptionRepository
type SubscriptionRepository struct {
	coll *mongo.Collection
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	doc, err := newSubscriptionDoc(sub)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	var doc subscriptionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrSubscriptionNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return doc.toDomain()
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	return r.find(ctx, bson.M{"user_id": userID}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *SubscriptionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.conditional(ctx, id,
		bson.M{"_id": id, "status": bson.M{"$ne": string(domain.SubscriptionStatusCancelled)}},
		bson.M{"$set": bson.M{
			"status":       string(domain.SubscriptionStatusCancelled),
			"cancelled_at": at.UTC(),
			"updated_at":   at.UTC(),
		}})
}

func (r *SubscriptionRepository) UpdateDetails(ctx context.Context, sub *domain.Subscription, at time.Time) (bool, error) {
	mealTimes := make([]string, len(sub.SelectedMealTimes))
	for i, mt := range sub.SelectedMealTimes {
		mealTimes[i] = string(mt)
	}
	return r.conditional(ctx, sub.ID,
		bson.M{"_id": sub.ID, "status": bson.M{"$ne": string(domain.SubscriptionStatusCancelled)}},
		bson.M{"$set": bson.M{
			"delivery_address":      addressDoc(sub.DeliveryAddress),
			"delivery_instructions": sub.DeliveryInstructions,
			"selected_meal_times":   mealTimes,
			"updated_at":            at.UTC(),
		}})
}

func (r *SubscriptionRepository) ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":       string(domain.SubscriptionStatusActive),
		"renewal_date": bson.M{"$gte": from.UTC(), "$lte": to.UTC()},
	}, byRenewal)
}

func (r *SubscriptionRepository) ListActiveDueForRenewal(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":       string(domain.SubscriptionStatusActive),
		"renewal_date": bson.M{"$lte": asOf.UTC()},
	}, byRenewal)
}

func (r *SubscriptionRepository) ListActiveEndingOnOrAfter(ctx context.Context, t time.Time) ([]*domain.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":   string(domain.SubscriptionStatusActive),
		"end_date": bson.M{"$gte": t.UTC()},
	}, byRenewal)
}

func (r *SubscriptionRepository) Renew(ctx context.Context, id string, expectedRenewal, start, end, at time.Time) (bool, error) {
	return r.conditional(ctx, id,
		bson.M{
			"_id":          id,
			"status":       string(domain.SubscriptionStatusActive),
			"renewal_date": expectedRenewal.UTC(),
		},
		bson.M{"$set": bson.M{
			"start_date":   start.UTC(),
			"end_date":     end.UTC(),
			"renewal_date": end.UTC(),
			"updated_at":   at.UTC(),
		}})
}

func (r *SubscriptionRepository) MarkReminderSent(ctx context.Context, id string, renewalDate, at time.Time) (bool, error) {
	return r.conditional(ctx, id,
		bson.M{
			"_id":               id,
			"status":            string(domain.SubscriptionStatusActive),
			"last_reminder_for": bson.M{"$ne": renewalDate.UTC()},
		},
		bson.M{"$set": bson.M{
			"last_reminder_for": renewalDate.UTC(),
			"last_reminded_at":  at.UTC(),
		}})
}

var byRenewal = bson.D{{Key: "renewal_date", Value: 1}, {Key: "_id", Value: 1}}

func (r *SubscriptionRepository) conditional(ctx context.Context, id string, filter, update bson.M) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("update subscription: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	if err := exists(ctx, r.coll, id, domain.ErrSubscriptionNotFound(id)); err != nil {
		return false, err
	}
	return false, nil
}

func (r *SubscriptionRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.Subscription, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	var docs []subscriptionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}

	out := make([]*domain.Subscription, 0, len(docs))
	for i := range docs {
		sub, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// OrderRepository implements ports.OrderRepository. The unique_subscription_slot
// index turns a racing duplicate insert into CONFLICT_DUPLICATE_ORDER_SLOT.
type OrderRepository struct {
	coll *mongo.Collection
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	doc, err := newOrderDoc(order)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) && order.SubscriptionID != nil {
		return domain.ErrDuplicateOrderSlot()
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain()
}

func (r *OrderRepository) ExistsForSlot(ctx context.Context, slot domain.OrderSlot) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"subscription_id": slot.SubscriptionID,
		"day_of_week":     string(slot.DayOfWeek),
		"meal_time":       string(slot.MealTime),
		"scheduled_day":   timeutil.StartOfDay(slot.ScheduledFor),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check order slot: %w", err)
	}
	return n > 0, nil
}

func (r *OrderRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*domain.Order, error) {
	cur, err := r.coll.Find(ctx, bson.M{"subscription_id": subscriptionID},
		options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}, {Key: "meal_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepository) CancelBySubscription(ctx context.Context, subscriptionID string, statuses []domain.OrderStatus, reason string, at time.Time) (int, error) {
	match := make(bson.A, len(statuses))
	for i, st := range statuses {
		match[i] = string(st)
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"subscription_id": subscriptionID, "status": bson.M{"$in": match}},
		bson.M{"$set": bson.M{
			"status":              string(domain.OrderStatusCancelled),
			"cancellation_reason": reason,
			"cancelled_at":        at.UTC(),
			"updated_at":          at.UTC(),
		}})
	if err != nil {
		return 0, fmt.Errorf("cancel subscription orders: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func (r *OrderRepository) Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{
			"status":              string(domain.OrderStatusCancelled),
			"cancellation_reason": reason,
			"cancelled_at":        at.UTC(),
			"updated_at":          at.UTC(),
		}})
	if err != nil {
		return false, fmt.Errorf("cancel order: %w", err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	if err := exists(ctx, r.coll, id, domain.ErrOrderNotFound(id)); err != nil {
		return false, err
	}
	return false, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	set := bson.M{"status": string(to), "updated_at": at.UTC()}
	switch to {
	case domain.OrderStatusDelivered:
		set["delivered_at"] = at.UTC()
	case domain.OrderStatusCancelled:
		set["cancelled_at"] = at.UTC()
	}

	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		if err := exists(ctx, r.coll, id, domain.ErrOrderNotFound(id)); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return true, nil
}

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	coll *mongo.Collection
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if _, err := r.coll.InsertOne(ctx, newNotificationDoc(n)); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, visibleAt time.Time, limit int) ([]*domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{
		"recipient_id": recipientID,
		"$or": bson.A{
			bson.M{"deliver_after": nil},
			bson.M{"deliver_after": bson.M{"$lte": visibleAt.UTC()}},
		},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	out := make([]*domain.Notification, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound(id)
	}
	return nil
}

// Directory implements ports.RestaurantDirectory and ports.CustomerDirectory
type Directory struct {
	restaurants *mongo.Collection
	customers   *mongo.Collection
}

func (d *Directory) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	var doc restaurantDoc
	err := d.restaurants.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRestaurantNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find restaurant: %w", err)
	}
	return &domain.Restaurant{ID: doc.ID, Name: doc.Name, OwnerID: doc.OwnerID}, nil
}

func (d *Directory) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var doc customerDoc
	err := d.customers.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCustomerNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &domain.Customer{ID: doc.ID, Name: doc.Name, Email: doc.Email}, nil
}

// PutRestaurant upserts a restaurant
func (d *Directory) PutRestaurant(ctx context.Context, r domain.Restaurant) error {
	_, err := d.restaurants.ReplaceOne(ctx, bson.M{"_id": r.ID},
		restaurantDoc{ID: r.ID, Name: r.Name, OwnerID: r.OwnerID},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert restaurant: %w", err)
	}
	return nil
}

// PutCustomer upserts a customer
func (d *Directory) PutCustomer(ctx context.Context, c domain.Customer) error {
	_, err := d.customers.ReplaceOne(ctx, bson.M{"_id": c.ID},
		customerDoc{ID: c.ID, Name: c.Name, Email: c.Email},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// exists returns notFound when no document has id
func exists(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
