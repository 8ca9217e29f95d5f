package renewal

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	servicesports "github.com/kevin07696/mealplan-service/internal/services/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Scheduler triggers the daily sweep once a day at a fixed UTC hour.
// The cron endpoint is the external alternative; both share the sweep lock.
type Scheduler struct {
	sweep    servicesports.SweepService
	clock    timeutil.Clock
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
	spec     string
	schedule cron.Schedule
}

// NewScheduler creates a scheduler firing at hourUTC (0-23)
func NewScheduler(sweep servicesports.SweepService, clock timeutil.Clock, hourUTC int, logger ports.Logger) *Scheduler {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 0
	}
	spec := fmt.Sprintf("0 %d * * *", hourUTC)
	// a minute-zero daily spec with an in-range hour always parses
	schedule, _ := cron.ParseStandard(spec)

	return &Scheduler{
		sweep:    sweep,
		clock:    clock,
		logger:   logger,
		timeouts: resilience.DefaultTimeoutConfig(),
		spec:     spec,
		schedule: schedule,
	}
}

// Spec returns the five-field cron expression the scheduler runs on
func (s *Scheduler) Spec() string {
	return s.spec
}

// NextRun returns the first trigger time strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	return s.schedule.Next(now.UTC())
}

// Run blocks until ctx is cancelled, sweeping at every trigger time. A sweep
// still running at the next trigger makes that trigger a no-op.
func (s *Scheduler) Run(ctx context.Context) {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		s.logger.Error("invalid sweep schedule", ports.String("spec", s.spec), ports.Err(err))
		return
	}

	c.Start()
	s.logger.Info("next daily sweep scheduled", ports.Time("at", s.NextRun(s.clock.Now())))

	<-ctx.Done()
	<-c.Stop().Done()
}

// RunOnce sweeps as of the clock's current time and logs the outcome
func (s *Scheduler) RunOnce(ctx context.Context) {
	sweepCtx, cancel := s.timeouts.SweepContext(ctx)
	defer cancel()

	res, err := s.sweep.RunDailySweep(sweepCtx, s.clock.Now())
	switch {
	case domain.IsDomainError(err, domain.ErrorCodeSweepInProgress):
		s.logger.Info("scheduled sweep skipped, another sweep holds the lock")
	case err != nil:
		s.logger.Error("scheduled sweep failed", ports.Err(err))
	default:
		s.logger.Info("scheduled sweep finished",
			ports.Int("reminders_sent", res.RemindersSent),
			ports.Int("subscriptions_renewed", res.SubscriptionsRenewed),
			ports.Int("orders_created", res.OrdersCreated),
			ports.Int("errors", len(res.Errors)))
	}
}

// cronLogger adapts ports.Logger to cron.Logger. cron's chatty Info lines
// (wake, schedule, run) go to debug.
type cronLogger struct {
	logger ports.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, cronFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(cronFields(keysAndValues), ports.Err(err))...)
}

func cronFields(keysAndValues []interface{}) []ports.Field {
	fields := make([]ports.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, ports.Field{Key: fmt.Sprint(keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
