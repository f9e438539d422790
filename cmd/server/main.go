// Package main is the entry point of the settlement service.
// It initializes all dependencies, starts the retry worker and the
// notification dispatcher, and serves the admin API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"borewell/internal/config"
	"borewell/internal/handlers"
	"borewell/internal/logger"
	"borewell/internal/middleware"
	"borewell/internal/repositories"
	"borewell/internal/repositories/cache"
	"borewell/internal/routes"
	"borewell/internal/services/fee"
	"borewell/internal/services/ledger"
	"borewell/internal/services/notification"
	"borewell/internal/services/payout"
	"borewell/internal/services/retry"
	"borewell/internal/services/settlement"
	"borewell/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	settings := config.Load()

	zlog, err := logger.New(config.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	os.Exit(logger.ExitCode(zlog, "server stopped", run(settings, zlog)))
}

func run(settings config.Settings, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(settings.DB, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			zlog.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	rdb := cache.NewRedisClient(settings.Redis)
	cacheService := cache.NewCacheService(rdb, settings.Redis.CacheTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			zlog.Warn("failed to close redis connection", zap.Error(err))
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		zlog.Warn("redis unavailable, balances will not be cached", zap.Error(err))
	}

	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(db)
	withdrawalRepo := repositories.NewWithdrawalRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	retryRepo := repositories.NewRetryJobRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)

	// Notifications
	notifiers := notification.Multi{
		notification.NewRedisPublisher(rdb, settings.Notifications.Channel, zlog),
	}
	if settings.Notifications.FCMCredentials != "" {
		fcm, err := notification.NewFCMClient(ctx, settings.Notifications.FCMCredentials)
		if err != nil {
			zlog.Warn("push notifications disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, notification.NewPushNotifier(fcm, deviceRepo, zlog))
		}
	}
	dispatcher := notification.NewDispatcher(notifiers, settings.Notifications.QueueSize, zlog)
	dispatcher.Start()

	// Payouts
	var gateway payout.Gateway = payout.NoopGateway{}
	if settings.Payout.StripeKey != "" {
		gateway = payout.NewStripeGateway(settings.Payout.StripeKey, settings.Payout.Currency, zlog)
	} else {
		zlog.Info("no stripe key configured, payouts are recorded manually")
	}

	// Services
	ledgerService := ledger.NewService(ledgerRepo, cacheService, ledger.Config{}, nil, zlog)
	withdrawalService := withdrawal.NewService(withdrawalRepo, ledgerService, gateway, dispatcher, withdrawal.Config{
		Minimum:  settings.WithdrawalMinimum,
		Currency: settings.Payout.Currency,
	}, zlog)
	retryService := retry.NewService(retryRepo, ledgerService, retry.Config{
		Delay:       settings.Retry.Delay,
		MaxAttempts: settings.Retry.MaxAttempts,
		Lease:       settings.Retry.Lease,
	}, zlog)
	feeCalculator := fee.NewCalculator(fee.Config{
		GSTRate:         settings.Fees.GSTRate,
		PlatformFeeRate: settings.Fees.PlatformFeeRate,
	})
	settlementService := settlement.NewService(bookingRepo, ledgerService, feeCalculator, dispatcher, retryService, zlog)
	retryService.AddListener(settlementService)

	worker := retry.NewWorker(retryService, retry.WorkerConfig{
		Interval:   settings.Retry.PollInterval,
		RatePerSec: settings.Retry.RatePerSec,
		BatchSize:  settings.Retry.BatchSize,
	}, zlog)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	app := fiber.New(fiber.Config{
		AppName:      "borewell-settlement",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     settings.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/parties", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Auth:        middleware.NewAuthMiddleware(settings.JWTSecret, zlog),
		Ledger:      ledgerService,
		Withdrawals: withdrawalService,
		Settlement:  settlementService,
		Retries:     retryService,
		Devices:     deviceRepo,
		HealthChecks: map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": cacheService.HealthCheck,
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("http server listening", zap.String("port", settings.Port))
		serverErr <- app.Listen(":" + settings.Port)
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		zlog.Warn("notification queue not drained", zap.Error(err))
	}
	return nil
}
