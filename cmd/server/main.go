// Package main is the entry point for the card manager API. It loads the
// configuration, connects Postgres and Redis, wires the service graph,
// schedules the card expiry sweep and starts the HTTP server.
package main

import (
	"context"
	"time"

	"cardman/internal/config"
	"cardman/internal/repositories"
	"cardman/internal/repositories/cache"
	"cardman/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()
	log.Info("connected to database")

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cacheService := cache.NewCacheService(redisClient, 10*time.Minute)
	defer cacheService.Close()

	app := fiber.New(fiber.Config{
		AppName: "cardman",
	})

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/auth/register"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        5,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		}))
	}

	cardService, err := routes.SetupRoutes(app, db, cacheService, cfg, log)
	if err != nil {
		log.Fatalf("route setup failed: %v", err)
	}

	// Flip cards past their expiration date once a day.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@daily", func() {
		ctx, cancel := newSweepContext()
		defer cancel()
		if _, err := cardService.MarkExpired(ctx, time.Now()); err != nil {
			log.Errorf("card expiry sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("scheduler setup failed: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Infof("listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

func newSweepContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Minute)
}
