package handlers

import (
	"errors"

	"cardman/internal/models"
	"cardman/internal/repositories"
	"cardman/internal/services/auth"
	"cardman/internal/services/card"
	"cardman/internal/services/limit"
	"cardman/internal/services/transaction"
	"cardman/internal/services/user"
	"cardman/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service error kinds onto distinct status classes so that
// clients can branch on them. Validation and lookup messages pass through
// untranslated; internal faults never leak their cause.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrCardNotFound),
		errors.Is(err, repositories.ErrLimitNotFound),
		errors.Is(err, repositories.ErrTransactionNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, utils.ErrInvalidToken):
		return utils.Unauthorized(c, err.Error())
	case transaction.IsValidation(err),
		errors.Is(err, card.ErrUnknownStatus),
		errors.Is(err, card.ErrInvalidCardNumber),
		errors.Is(err, limit.ErrNegativeLimit):
		return utils.BadRequest(c, err.Error())
	default:
		return utils.InternalError(c, "Something went wrong.")
	}
}

// currentClaims returns the claims stored by the auth middleware. Handlers
// behind the middleware can rely on them being present.
func currentClaims(c *fiber.Ctx) *models.UserClaims {
	claims, _ := c.Locals("claims").(*models.UserClaims)
	if claims == nil {
		return &models.UserClaims{}
	}
	return claims
}
