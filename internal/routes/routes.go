// Package routes defines the API routing configuration. It wires the
// repositories, services and handlers together and groups the routes by
// functionality, applying authentication and role checks where required.
package routes

import (
	"context"

	"cardman/internal/config"
	"cardman/internal/handlers"
	"cardman/internal/middleware"
	"cardman/internal/models"
	"cardman/internal/repositories"
	"cardman/internal/repositories/cache"
	"cardman/internal/services/auth"
	cardsvc "cardman/internal/services/card"
	limitsvc "cardman/internal/services/limit"
	txnsvc "cardman/internal/services/transaction"
	usersvc "cardman/internal/services/user"
	"cardman/internal/services/vault"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// cardRegistryRef defers the user service's view of the card registry until
// the card service exists; the two services reference each other.
type cardRegistryRef struct {
	svc cardsvc.Service
}

func (r *cardRegistryRef) DeleteByUser(ctx context.Context, userID uint) error {
	return r.svc.DeleteByUser(ctx, userID)
}

// SetupRoutes wires the whole service graph and mounts it on the app. It
// returns the card service so the caller can schedule the expiry sweep.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheService *cache.CacheService, cfg *config.Config, log *logrus.Logger) (cardsvc.Service, error) {
	userRepo := repositories.NewUserRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	vaultService, err := vault.NewService([]byte(cfg.CardCipherKey))
	if err != nil {
		return nil, err
	}

	registry := &cardRegistryRef{}
	userService := usersvc.NewService(userRepo, registry, cacheService, log)
	cardService := cardsvc.NewService(cardRepo, txnRepo, userService, vaultService, log)
	registry.svc = cardService

	limitService := limitsvc.NewService(cardRepo, log)
	txnService := txnsvc.NewService(txnRepo, cardRepo, log)
	authService := auth.NewService(userService, log)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	cardHandler := handlers.NewCardHandler(cardService)
	limitHandler := handlers.NewLimitHandler(limitService)
	txnHandler := handlers.NewTransactionHandler(txnService)
	healthHandler := handlers.NewHealthHandler(db, cacheService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	// Public endpoints
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh/:token", authHandler.Refresh)

	// Everything below requires a valid token
	protected := api.Use(middleware.Auth())

	admin := middleware.RequireRole(models.RoleAdmin)

	cards := protected.Group("/cards")
	cards.Get("/my", cardHandler.FindMine)
	cards.Get("/user/:userId", admin, cardHandler.FindByUser)
	cards.Get("/:id", cardHandler.FindByID)
	cards.Post("/", admin, cardHandler.Create)
	cards.Get("/", admin, cardHandler.List)
	cards.Post("/:id/block", admin, cardHandler.Block)
	cards.Post("/:id/activate", admin, cardHandler.Activate)
	cards.Get("/:id/number", admin, cardHandler.RevealNumber)
	cards.Delete("/:id", admin, cardHandler.Delete)

	limits := protected.Group("/limits", admin)
	limits.Put("/:cardId", limitHandler.Set)
	limits.Delete("/:cardId/:limitId", limitHandler.Delete)

	txns := protected.Group("/transactions")
	txns.Post("/transfer", txnHandler.Transfer)
	txns.Post("/withdraw", txnHandler.Withdraw)
	txns.Get("/card/:cardId", txnHandler.FindByCard)
	txns.Get("/:id", admin, txnHandler.FindByID)

	users := protected.Group("/users")
	users.Get("/me", userHandler.Me)
	users.Get("/", admin, userHandler.List)
	users.Get("/:id", admin, userHandler.FindByID)
	users.Delete("/:id", admin, userHandler.Delete)

	return cardService, nil
}
