package handlers

import (
	"cardman/internal/services/auth"
	"cardman/internal/utils"
	"cardman/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *credentialsInput) validate() *validation.Validator {
	v := validation.New()
	v.Required("email", in.Email)
	if in.Email != "" {
		v.Email("email", in.Email)
	}
	v.Required("password", in.Password)
	if in.Password != "" {
		v.MinLength("password", in.Password, 8)
	}
	return v
}

// Register creates a new account and returns a token pair.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if v := input.validate(); !v.Valid() {
		return utils.FailedValidation(c, v.FieldMessages())
	}

	user, access, refresh, err := h.authService.Register(c.Context(), input.Email, input.Password)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"roles": user.Roles,
		},
	})
}

// Login authenticates and returns a token pair.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "Email and password are required")
	}

	user, access, refresh, err := h.authService.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"roles": user.Roles,
		},
	})
}

// Refresh reissues a token pair from a still-valid refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return utils.Unauthorized(c, "refresh token not provided")
	}

	_, access, refresh, err := h.authService.Refresh(c.Context(), token)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}
