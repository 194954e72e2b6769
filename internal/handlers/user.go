package handlers

import (
	"strconv"

	"cardman/internal/utils"

	usersvc "cardman/internal/services/user"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService usersvc.Service
}

func NewUserHandler(userService usersvc.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the caller's own account.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.userService.FindByEmail(c.Context(), currentClaims(c).Email())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, user)
}

// List returns a page of accounts ordered by id. Admin only.
func (h *UserHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 20)
	sortDir := c.Query("direction", "asc")

	users, err := h.userService.List(c.Context(), page, size, sortDir)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"users": users,
		"page":  page,
		"size":  size,
	})
}

// FindByID returns one account. Admin only.
func (h *UserHandler) FindByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.FindByID(c.Context(), uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, user)
}

// Delete removes an account and everything it owns. Admin only.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Delete(c.Context(), uint(id)); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "User deleted"})
}
