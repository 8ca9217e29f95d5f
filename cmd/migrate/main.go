package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/app"
	"github.com/kevin07696/mealplan-service/internal/config"
	"github.com/kevin07696/mealplan-service/pkg/logging"
)

var (
	flags   = flag.NewFlagSet("migrate", flag.ExitOnError)
	envFile = flags.String("env-file", ".env", "optional env file")
	timeout = flags.Duration("timeout", 2*time.Minute, "overall migration timeout")
)

func main() {
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	logger, err := logging.New(getEnv("ENVIRONMENT", "development"), getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
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

	if err := storage.Migrate(ctx); err != nil {
		logger.Fatal("Migration failed", zap.String("backend", storage.Backend), zap.Error(err))
	}
	logger.Info("Migration complete", zap.String("backend", storage.Backend))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func usage() {
	fmt.Print(`Usage: migrate [-env-file FILE] [-timeout DURATION]

Applies the schema for STORAGE_BACKEND:
    postgres   creates tables and indexes (idempotent)
    mongo      creates collection indexes (idempotent)
    memory     nothing to do
`)
}
