package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/app"
	"github.com/kevin07696/mealplan-service/internal/config"
	"github.com/kevin07696/mealplan-service/pkg/logging"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

// Runs one daily sweep and exits; non-zero when the sweep could not run or
// finished with per-subscription errors.
func main() {
	asOf := flag.String("as-of", "", "sweep date as YYYY-MM-DD (midnight UTC); defaults to now")
	envFile := flag.String("env-file", ".env", "optional env file")
	flag.Parse()

	logger, err := logging.New(getEnv("ENVIRONMENT", "development"), getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	now := time.Now().UTC()
	if *asOf != "" {
		now, err = timeutil.ParseDate("2006-01-02", *asOf)
		if err != nil {
			logger.Fatal("Invalid -as-of", zap.String("value", *asOf), zap.Error(err))
		}
	}

	ctx, cancel := resilience.DefaultTimeoutConfig().SweepContext(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx, logger, *envFile)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	storage, err := app.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer storage.Close(context.Background())

	locker, err := app.OpenLocker(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to open sweep lock", zap.Error(err))
	}
	defer locker.Close()

	emailSink, err := app.NewEmailSink(cfg.Email, logger)
	if err != nil {
		logger.Fatal("Failed to configure email", zap.Error(err))
	}

	// no realtime push from a one-shot process; notifications are stored only
	services := app.BuildServices(app.Deps{
		Repos:  storage.Repositories,
		Locker: locker,
		Email:  emailSink,
	}, logger)

	res, err := services.Sweep.RunDailySweep(ctx, now)
	if err != nil {
		logger.Error("Daily sweep failed", zap.Time("as_of", now), zap.Error(err))
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))

	if len(res.Errors) > 0 {
		logger.Warn("Daily sweep finished with errors", zap.Int("errors", len(res.Errors)))
		os.Exit(2)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
