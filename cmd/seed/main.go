package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/app"
	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/config"
	"github.com/kevin07696/mealplan-service/pkg/logging"
)

// Seeds the demo restaurant, customer and plan into STORAGE_BACKEND and
// prints bearer tokens for the demo customer and vendor.
func main() {
	envFile := flag.String("env-file", ".env", "optional env file")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed tokens")
	flag.Parse()

	logger, err := logging.New(getEnv("ENVIRONMENT", "development"), getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := config.Load(ctx, logger, *envFile)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Storage.Backend == config.BackendMemory {
		logger.Fatal("Seeding the memory backend has no effect; the server seeds itself in development")
	}

	storage, err := app.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer storage.Close(context.Background())

	if err := storage.Migrate(ctx); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	if err := app.SeedDemo(ctx, storage.Repositories, time.Now(), logger); err != nil {
		logger.Fatal("Seed failed", zap.Error(err))
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, *tokenTTL)
	if err != nil {
		logger.Fatal("Failed to configure tokens", zap.Error(err))
	}
	customerToken, err := tokens.GenerateToken(app.DemoCustomerID, auth.RoleCustomer)
	if err != nil {
		logger.Fatal("Failed to sign customer token", zap.Error(err))
	}
	vendorToken, err := tokens.GenerateToken(app.DemoVendorID, auth.RoleVendor)
	if err != nil {
		logger.Fatal("Failed to sign vendor token", zap.Error(err))
	}

	fmt.Printf("meal_plan_id:   %s\n", app.DemoMealPlanID)
	fmt.Printf("customer token: %s\n", customerToken)
	fmt.Printf("vendor token:   %s\n", vendorToken)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
