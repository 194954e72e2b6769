// Package middleware provides HTTP middleware for the fiber app:
// bearer-token authentication and role-based access checks.
package middleware

import (
	"strings"

	"cardman/internal/models"
	"cardman/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// Auth validates the Bearer token and stores the claims in the request
// context. A missing, malformed, expired or badly signed token fails the
// request immediately; there is no fallback to anonymous.
func Auth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.Unauthorized(c, "missing authorization header")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utils.Unauthorized(c, "invalid authorization format")
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return utils.Unauthorized(c, "invalid token")
		}

		c.Locals("claims", claims)
		c.Locals("email", claims.Email())
		return c.Next()
	}
}

// RequireRole allows the request through only when the token carries the
// given role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return utils.Unauthorized(c, "invalid claims")
		}
		if !claims.HasRole(role) {
			return utils.Forbidden(c, "insufficient permissions")
		}
		return c.Next()
	}
}
