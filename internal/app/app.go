// Package app wires configuration, storage, locking, messaging and the HTTP
// handlers into one Fiber application.
package app

import (
	"context"
	"fmt"
	"time"

	"nutriregistry/internal/config"
	"nutriregistry/internal/database"
	"nutriregistry/internal/handlers"
	"nutriregistry/internal/keylock"
	"nutriregistry/internal/middleware"
	"nutriregistry/internal/models"
	"nutriregistry/internal/repositories"
	"nutriregistry/internal/services"
	"nutriregistry/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// App is the assembled registry service.
type App struct {
	Fiber      *fiber.App
	Identities *services.IdentityService
	Products   *services.ProductRegistry
	Profiles   *services.UserProfileRegistry
	Scans      *services.ScanHistoryRegistry

	closers []func() error
	log     *zap.Logger
}

// DemoProductID is the product seeded into an empty registry.
const DemoProductID = "P100"

// New builds the application described by cfg.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{log: log}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return nil, err
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	store := repositories.NewGORMStore(db)
	if err := store.AutoMigrate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	opts := services.Options{
		Logger:               log,
		LockTimeout:          cfg.LockTimeout,
		PreserveDeactivation: !cfg.ReactivateOnUpdate,
	}

	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		opts.Locker = keylock.NewRedis(client, "nutriregistry:lock:", cfg.LockTTL)
		log.Info("using redis key locks", zap.String("addr", cfg.RedisAddr))
	} else {
		opts.Locker = keylock.NewLocal()
	}

	if cfg.RabbitMQEnabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		opts.Events = mq

		// Consuming acks events off the shared queue; leave it to downstream
		// services unless explicitly asked for.
		if cfg.ConsumeEvents {
			err = mq.ConsumeEvents(func(msg amqp.Delivery) error {
				log.Info("registry event received",
					zap.String("type", msg.Type),
					zap.ByteString("body", msg.Body))
				return nil
			})
			if err != nil {
				log.Warn("failed to start event consumer", zap.Error(err))
			}
		}
	}

	a.Identities = services.NewIdentityService(cfg.JWTSecret, cfg.TokenTTL)
	a.Products = services.NewProductRegistry(store, models.Identity(cfg.RegistryOwner), opts)
	a.Profiles = services.NewUserProfileRegistry(store, opts)
	a.Scans = services.NewScanHistoryRegistry(store, opts)

	if cfg.SeedDemoProduct {
		if err := a.seed(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Fiber = fiber.New()
	a.Fiber.Use(logger.New())

	a.Fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := a.Fiber.Group("/api/v1")
	handlers.NewStatsHandler(a.Products, a.Profiles, a.Scans, log).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.CallerRequired(a.Identities, log))
	handlers.NewProductHandler(a.Products, log).RegisterRoutes(protected)
	handlers.NewProfileHandler(a.Profiles, log).RegisterRoutes(protected)
	handlers.NewScanHandler(a.Scans, log).RegisterRoutes(protected)

	return a, nil
}

// seed adds the demo product when the catalog is empty.
func (a *App) seed(ctx context.Context) error {
	total, err := a.Products.TotalProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if total > 0 {
		return nil
	}

	added, err := a.Products.AddProduct(ctx, a.Products.Owner(), services.ProductInput{
		ID:           DemoProductID,
		Name:         "Demo Product",
		Ingredients:  "water, sugar",
		Region:       "EU",
		Manufacturer: "Demo Foods",
		Category:     "Beverages",
		NutriScore:   "B",
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo product: %w", err)
	}
	if added {
		a.log.Info("seeded demo product", zap.String("product_id", DemoProductID))
	}
	return nil
}

// Close releases every connection opened by New, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("error during close", zap.Error(err))
		}
	}
	a.closers = nil
}
