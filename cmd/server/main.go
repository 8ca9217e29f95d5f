package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/adapters/realtime"
	grpcapi "github.com/kevin07696/mealplan-service/internal/api/grpc"
	"github.com/kevin07696/mealplan-service/internal/app"
	"github.com/kevin07696/mealplan-service/internal/auth"
	"github.com/kevin07696/mealplan-service/internal/config"
	cronHandler "github.com/kevin07696/mealplan-service/internal/handlers/cron"
	mealplanHandler "github.com/kevin07696/mealplan-service/internal/handlers/mealplan"
	notificationHandler "github.com/kevin07696/mealplan-service/internal/handlers/notification"
	orderHandler "github.com/kevin07696/mealplan-service/internal/handlers/order"
	subscriptionHandler "github.com/kevin07696/mealplan-service/internal/handlers/subscription"
	"github.com/kevin07696/mealplan-service/internal/middleware"
	"github.com/kevin07696/mealplan-service/internal/services/renewal"
	"github.com/kevin07696/mealplan-service/pkg/logging"
	pkgmiddleware "github.com/kevin07696/mealplan-service/pkg/middleware"
	"github.com/kevin07696/mealplan-service/pkg/observability"
	"github.com/kevin07696/mealplan-service/pkg/resourcemgmt"
	"github.com/kevin07696/mealplan-service/pkg/shutdown"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

const version = "0.1.0"

func main() {
	logger, err := logging.New(getEnv("ENVIRONMENT", "development"), getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting meal plan service", zap.String("version", version))

	ctx := context.Background()
	cfg, err := config.Load(ctx, logger, ".env")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("sweep_scheduler", cfg.Cron.SchedulerEnabled),
	)

	sm := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	storage, err := app.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	sm.Register("storage", storage.Close)

	if storage.Backend == config.BackendMemory && !cfg.IsProduction() {
		if err := app.SeedDemo(ctx, storage.Repositories, time.Now(), logger); err != nil {
			logger.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	locker, err := app.OpenLocker(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to open sweep lock", zap.Error(err))
	}
	sm.RegisterCloser("sweep-lock", locker)

	emailSink, err := app.NewEmailSink(cfg.Email, logger)
	if err != nil {
		logger.Fatal("Failed to configure email", zap.Error(err))
	}

	hub := realtime.NewHub(logger)
	go hub.Run()
	sm.RegisterNoErr("realtime-hub", hub.Stop)

	clock := timeutil.SystemClock{}
	services := app.BuildServices(app.Deps{
		Repos:  storage.Repositories,
		Locker: locker,
		Push:   hub,
		Email:  emailSink,
		Clock:  clock,
	}, logger)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, 24*time.Hour)
	if err != nil {
		logger.Fatal("Failed to configure token validation", zap.Error(err))
	}
	authn := middleware.NewAuthenticator(tokens, logger)
	requireVendor := func(next httprouter.Handle) httprouter.Handle {
		return authn.RequireRole(next, auth.RoleVendor)
	}

	router := httprouter.New()
	mealplanHandler.NewHandler(services.Catalog, logger).Register(router, requireVendor)
	subscriptionHandler.NewHandler(services.Subscriptions, services.Orders, logger).Register(router, authn.RequireUser)
	orderHandler.NewHandler(services.Orders, logger).Register(router, authn.RequireUser, requireVendor)
	notificationHandler.NewHandler(services.Notifications, logger).Register(router, authn.RequireUser)
	cronHandler.NewSweepHandler(services.Sweep, clock, logger, cfg.Cron.Secret).Register(router)

	tracker := resourcemgmt.NewTracker(logger, resourcemgmt.DefaultConfig())
	trackerWorker := shutdown.NewBackgroundWorker("goroutine-monitor", logger)
	trackerWorker.Start(tracker.Monitor)
	sm.Register("goroutine-monitor", trackerWorker.Shutdown)

	ws := realtime.NewHandler(hub, func(r *http.Request) string { return auth.UserID(r.Context()) }, originChecker(cfg.Server.AllowedOrigins), logger).
		WithTracker(tracker)
	router.GET("/ws/notifications", authn.RequireUserOrQueryToken(ws.Serve))

	rateLimiter := pkgmiddleware.NewRateLimiter(logger, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, cfg.Server.TrustForwarded)
	sm.RegisterCloser("rate-limiter", rateLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Cron-Secret"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	var handler http.Handler = router
	handler = pkgmiddleware.Gzip(pkgmiddleware.DefaultGzipConfig(), logger)(handler)
	handler = observability.InstrumentHandler("api", handler)
	handler = middleware.NewSecurityHeaders(!cfg.IsProduction()).Middleware(handler)
	handler = rateLimiter.Middleware(handler)
	handler = corsHandler.Handler(handler)
	handler = pkgmiddleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = pkgmiddleware.Recovery(logger)(handler)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	health := observability.NewHealthChecker().
		Add("storage", storage).
		Add("sweep_lock", locker)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), health, logger)

	if cfg.Server.GRPCHealthPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCHealthPort))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC health", zap.Error(err))
		}
		grpcHealth := grpcapi.NewHealthServer(health, 10*time.Second, logger)
		probeCtx, stopProbes := context.WithCancel(ctx)
		go func() {
			if err := grpcHealth.Serve(probeCtx, lis); err != nil {
				logger.Error("gRPC health server stopped", zap.Error(err))
			}
		}()
		sm.Register("grpc-health", func(ctx context.Context) error {
			stopProbes()
			return grpcHealth.Shutdown(ctx)
		})
	}

	if cfg.Cron.SchedulerEnabled {
		scheduler := renewal.NewScheduler(services.Sweep, clock, cfg.Cron.HourUTC, logging.NewZapLogger(logger))
		worker := shutdown.NewBackgroundWorker("daily-sweep", logger)
		worker.Start(scheduler.Run)
		sm.Register("daily-sweep", worker.Shutdown)
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// registered last so they stop first
	sm.RegisterHTTPServer("metrics", metricsServer)
	sm.RegisterHTTPServer("http", httpServer)

	sm.WaitForShutdown()
	logger.Info("Server stopped")
}

// originChecker mirrors the CORS allow-list for websocket upgrades. A "*"
// entry keeps gorilla's same-origin default.
func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
