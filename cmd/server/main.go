// Package main is the entry point for the admissions API.
// It loads configuration, connects PostgreSQL and Redis, wires the
// services and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/config"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/gateway"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/handlers"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/logger"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/middleware"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/routes"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/admin"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/application"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/contact"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/payment"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const (
	identityCacheTTL = 15 * time.Minute
	lockTTL          = 10 * time.Second
	lockWait         = 5 * time.Second
	bodyLimit        = 12 * 1024 * 1024
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zl.Sync() //nolint:errcheck

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()

	db, err := repositories.InitDB(cfg.Database, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			zl.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	redisClient := cache.NewRedisClient(cfg.Redis)
	cacheService := cache.NewCacheService(redisClient, identityCacheTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			zl.Warn("failed to close redis connection", zap.Error(err))
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		zl.Warn("redis unavailable, identity cache and locks degraded", zap.Error(err))
	}
	locker := cache.NewRedisLocker(redisClient, lockTTL, lockWait)

	files, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var gw gateway.Gateway
	if cfg.Gateway.Enabled() {
		gw = gateway.NewStripeGateway(cfg.Gateway.StripeSecretKey, cfg.Gateway.StripePublishableKey, cfg.Gateway.SigningSecret)
	} else {
		zl.Info("payment gateway not configured, only bank transfers are accepted")
	}

	fee, err := cfg.Fees.Amount()
	if err != nil {
		return fmt.Errorf("invalid application fee %q: %w", cfg.Fees.ApplicationFee, err)
	}

	store := repositories.NewStore(db)
	students := repositories.NewStudentRepository(db)
	admins := repositories.NewAdminRepository(db)
	contacts := repositories.NewContactRepository(db)

	engine := workflow.New(workflow.Config{IDPrefix: cfg.Fees.IDPrefix})
	collector := metrics.Prometheus{}
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.StudentTokenTTL, cfg.Auth.AdminTokenTTL)

	authService := auth.NewService(students, admins, tokens, cacheService, zl, collector, auth.Options{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     cfg.Auth.LockDuration,
	})
	applicationService := application.NewService(engine, store.Applicants, store.Payments, students, files, locker, zl, collector)
	paymentService := payment.NewService(engine, store, store.Applicants, store.Payments, gw, files, locker, zl, collector,
		payment.Options{Fee: fee, Currency: cfg.Fees.Currency})
	adminService := admin.NewService(admin.Deps{
		Engine:     engine,
		Store:      store,
		Applicants: store.Applicants,
		Payments:   store.Payments,
		Admins:     admins,
		Contacts:   contacts,
		Storage:    files,
		Locker:     locker,
		Identities: cacheService,
		Log:        zl,
		Metrics:    collector,
	})
	contactService := contact.NewService(contacts, zl)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.IsProduction(), zl),
		Application: handlers.NewApplicationHandler(applicationService, zl),
		Payment:     handlers.NewPaymentHandler(paymentService, zl),
		Admin:       handlers.NewAdminHandler(adminService, zl),
		Contact:     handlers.NewContactHandler(contactService, zl),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": handlers.PingFunc(sqlDB.PingContext),
			"redis":    cacheService,
		}),
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	if local, ok := files.(*storage.LocalStorage); ok {
		app.Static("/uploads", local.Dir())
	}

	routes.SetupRoutes(app, h, middleware.NewAuthMiddleware(tokens, authService, zl))

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		return storage.NewS3Storage(ctx, cfg.AWSRegion, cfg.S3Bucket)
	case "", "local":
		return storage.NewLocalStorage(cfg.UploadDir, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
