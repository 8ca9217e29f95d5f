package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/config"
	"github.com/kevin07696/mealplan-service/internal/domain"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/internal/testutil/fixtures"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

func TestOpenStorage_UnknownBackend(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.StorageConfig{Backend: "sqlite"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestOpenLocker_DefaultsToInProcess(t *testing.T) {
	ctx := context.Background()
	l, err := OpenLocker(ctx, config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer l.Close()

	lease, ok, err := l.TryAcquire(ctx, "daily-sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NoError(t, l.Ping(ctx))
	assert.NoError(t, lease.Release(ctx))
}

func TestNewEmailSink(t *testing.T) {
	logger := zap.NewNop()
	for _, transport := range []string{"log", "smtp", "http"} {
		sink, err := NewEmailSink(config.EmailConfig{Transport: transport, SMTPHost: "localhost", RelayURL: "http://relay.local"}, logger)
		require.NoError(t, err, transport)
		assert.NotNil(t, sink)
	}

	_, err := NewEmailSink(config.EmailConfig{Transport: "pigeon"}, logger)
	assert.Error(t, err)
}

func TestSeedDemo_Idempotent(t *testing.T) {
	ctx := context.Background()
	storage, err := OpenStorage(ctx, config.StorageConfig{Backend: config.BackendMemory}, zap.NewNop())
	require.NoError(t, err)
	now := fixtures.Date(2025, 3, 3)

	require.NoError(t, SeedDemo(ctx, storage.Repositories, now, zap.NewNop()))
	require.NoError(t, SeedDemo(ctx, storage.Repositories, now.Add(time.Hour), zap.NewNop()))

	plan, err := storage.MealPlans.GetByID(ctx, DemoMealPlanID)
	require.NoError(t, err)
	assert.Equal(t, now, plan.CreatedAt)

	r, err := storage.Restaurants.GetRestaurant(ctx, DemoRestaurantID)
	require.NoError(t, err)
	assert.Equal(t, DemoVendorID, r.OwnerID)

	c, err := storage.Customers.GetCustomer(ctx, DemoCustomerID)
	require.NoError(t, err)
	assert.Equal(t, "customer@mealplan.local", c.Email)
}

// TestBuildServices_EndToEnd subscribes to the demo plan on memory storage and
// runs a sweep over it
func TestBuildServices_EndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	// Monday
	clock := timeutil.NewFixedClock(time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC))

	storage, err := OpenStorage(ctx, config.StorageConfig{Backend: config.BackendMemory}, logger)
	require.NoError(t, err)
	locker, err := OpenLocker(ctx, config.RedisConfig{}, logger)
	require.NoError(t, err)
	require.NoError(t, SeedDemo(ctx, storage.Repositories, clock.Now(), logger))

	svc := BuildServices(Deps{Repos: storage.Repositories, Locker: locker, Clock: clock}, logger)

	res, err := svc.Subscriptions.CreateSubscription(ctx, &servicesports.CreateSubscriptionRequest{
		UserID:          DemoCustomerID,
		MealPlanID:      DemoMealPlanID,
		DietType:        domain.DietNonVegetarian,
		MealTimes:       []domain.MealTimeOption{domain.MealTimeOptionBoth},
		PaymentMethod:   domain.PaymentMethodCreditCard,
		DeliveryAddress: fixtures.DefaultAddress(),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	// six menu days, two meal times each
	assert.Len(t, res.Orders, 12)

	vendorInbox, err := svc.Notifications.ListNotifications(ctx, DemoVendorID, 50)
	require.NoError(t, err)
	assert.Len(t, vendorInbox, 12)

	sweep, err := svc.Sweep.RunDailySweep(ctx, clock.Now().AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, sweep.Errors)
	assert.Equal(t, 0, sweep.SubscriptionsRenewed)
	// tomorrow's slots already exist from the first window
	assert.Equal(t, 0, sweep.OrdersCreated)
}
