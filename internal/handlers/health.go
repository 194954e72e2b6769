package handlers

import (
	"context"

	"cardman/internal/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CachePinger is the slice of the cache the health check needs.
type CachePinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db    *gorm.DB
	cache CachePinger
}

func NewHealthHandler(db *gorm.DB, cache CachePinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check reports the liveness of the service and its backing stores.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok"}

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Context())
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		} else {
			status["database"] = "up"
		}
	}

	if h.cache != nil {
		if err := h.cache.HealthCheck(c.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
		} else {
			status["cache"] = "up"
		}
	}

	if status["status"] != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return utils.Success(c, status)
}
