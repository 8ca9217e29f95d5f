package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/adapters/email"
	"github.com/kevin07696/mealplan-service/internal/config"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	"github.com/kevin07696/mealplan-service/internal/services/catalog"
	"github.com/kevin07696/mealplan-service/internal/services/materializer"
	"github.com/kevin07696/mealplan-service/internal/services/notification"
	"github.com/kevin07696/mealplan-service/internal/services/orders"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/internal/services/renewal"
	"github.com/kevin07696/mealplan-service/internal/services/subscription"
	"github.com/kevin07696/mealplan-service/pkg/logging"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Services is the assembled service layer
type Services struct {
	Catalog       servicesports.CatalogService
	Subscriptions servicesports.SubscriptionService
	Orders        servicesports.OrderService
	Notifications servicesports.NotificationService
	Sweep         servicesports.SweepService
}

// Deps are the adapters the services run on. Push and Email may be nil.
type Deps struct {
	Repos  Repositories
	Locker ports.SweepLocker
	Push   ports.PushSink
	Email  ports.EmailSink
	Clock  timeutil.Clock
}

// BuildServices assembles the service graph. The notification service is the
// single sink every other service writes through.
func BuildServices(d Deps, logger *zap.Logger) *Services {
	log := logging.NewZapLogger(logger)
	clock := d.Clock
	if clock == nil {
		clock = timeutil.SystemClock{}
	}

	notifications := notification.NewService(d.Repos.Notifications, d.Push, clock, log)
	mat := materializer.NewService(d.Repos.Orders, d.Repos.Restaurants, notifications, clock, log)

	return &Services{
		Catalog:       catalog.NewService(d.Repos.MealPlans, d.Repos.Restaurants, clock, log),
		Subscriptions: subscription.NewService(d.Repos.MealPlans, d.Repos.Subscriptions, d.Repos.Orders, mat, notifications, clock, log),
		Orders:        orders.NewService(d.Repos.Orders, d.Repos.Subscriptions, d.Repos.Restaurants, notifications, clock, log),
		Notifications: notifications,
		Sweep: renewal.NewService(
			d.Repos.Subscriptions,
			d.Repos.MealPlans,
			d.Repos.Customers,
			mat,
			notifications,
			d.Email,
			d.Locker,
			log,
		),
	}
}

// NewEmailSink builds the sender for the configured transport
func NewEmailSink(cfg config.EmailConfig, logger *zap.Logger) (ports.EmailSink, error) {
	var transport email.Transport
	switch cfg.Transport {
	case "smtp":
		transport = email.NewSMTPTransport(email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			From:        cfg.From,
			DialTimeout: 10 * time.Second,
		})
	case "http":
		transport = email.NewHTTPTransport(cfg.RelayURL, cfg.RelayAPIKey, cfg.From)
	case "log", "":
		transport = email.NewLogTransport(logger)
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}

	logger.Info("Email transport configured", zap.String("transport", cfg.Transport))
	return email.NewSender(transport, logger), nil
}
