// Package mongodb implements the repository ports on MongoDB.
// Conditional updates carry their guard in the filter, so a zero match means
// the precondition failed (or the document is missing).
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collMealPlans     = "meal_plans"
	collSubscriptions = "subscriptions"
	collOrders        = "orders"
	collNotifications = "notifications"
	collRestaurants   = "restaurants"
	collCustomers     = "customers"
)

// Config selects the deployment and database
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Store holds the client and hands out repositories
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials MongoDB and verifies the connection
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("MongoDB store initialized", zap.String("database", cfg.Database))
	return &Store{client: client, db: client.Database(cfg.Database), logger: logger}, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping implements observability.Pinger
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the lookup indexes and the unique order slot index
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collMealPlans: {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "is_active", Value: 1}}, Options: options.Index().SetName("restaurant_active")},
		},
		collSubscriptions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("user_created")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "renewal_date", Value: 1}}, Options: options.Index().SetName("status_renewal")},
		},
		collOrders: {
			{
				Keys: bson.D{
					{Key: "subscription_id", Value: 1},
					{Key: "day_of_week", Value: 1},
					{Key: "meal_time", Value: 1},
					{Key: "scheduled_day", Value: 1},
				},
				Options: options.Index().SetName("unique_subscription_slot").SetUnique(true).
					SetPartialFilterExpression(bson.M{"subscription_id": bson.M{"$type": "string"}}),
			},
		},
		collNotifications: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("recipient_created")},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// MealPlans returns the meal plan repository
func (s *Store) MealPlans() *MealPlanRepository {
	return &MealPlanRepository{coll: s.db.Collection(collMealPlans)}
}

// Subscriptions returns the subscription repository
func (s *Store) Subscriptions() *SubscriptionRepository {
	return &SubscriptionRepository{coll: s.db.Collection(collSubscriptions)}
}

// Orders returns the order repository
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{coll: s.db.Collection(collOrders)}
}

// Notifications returns the notification repository
func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{coll: s.db.Collection(collNotifications)}
}

// Directory returns the restaurant and customer lookup
func (s *Store) Directory() *Directory {
	return &Directory{
		restaurants: s.db.Collection(collRestaurants),
		customers:   s.db.Collection(collCustomers),
	}
}
