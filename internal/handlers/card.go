package handlers

import (
	"strconv"

	"cardman/internal/models"
	"cardman/internal/utils"
	"cardman/internal/utils/validation"

	cardsvc "cardman/internal/services/card"

	"github.com/gofiber/fiber/v2"
)

type CardHandler struct {
	cardService cardsvc.Service
}

func NewCardHandler(cardService cardsvc.Service) *CardHandler {
	return &CardHandler{cardService: cardService}
}

type createCardInput struct {
	OwnerEmail string `json:"owner_email"`
	CardNumber string `json:"card_number"`
}

// Create registers a card for the named owner. Admin only.
func (h *CardHandler) Create(c *fiber.Ctx) error {
	var input createCardInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	v.Required("owner_email", input.OwnerEmail)
	if input.OwnerEmail != "" {
		v.Email("owner_email", input.OwnerEmail)
	}
	v.Required("card_number", input.CardNumber)
	if input.CardNumber != "" {
		v.CardNumber("card_number", input.CardNumber)
	}
	if !v.Valid() {
		return utils.FailedValidation(c, v.FieldMessages())
	}

	card, err := h.cardService.Create(c.Context(), input.OwnerEmail, input.CardNumber)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, card)
}

// List returns a sorted page of all cards. Admin only.
func (h *CardHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 20)
	sortField := c.Query("sort_by", "id")
	sortDir := c.Query("direction", "asc")

	cards, err := h.cardService.List(c.Context(), sortField, sortDir, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"cards": cards,
		"page":  page,
		"size":  size,
	})
}

// FindByID returns one card. Owners see only their own cards, admins any.
func (h *CardHandler) FindByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}

	claims := currentClaims(c)
	if claims.HasRole(models.RoleAdmin) {
		card, err := h.cardService.FindByID(c.Context(), uint(id))
		if err != nil {
			return respondError(c, err)
		}
		return utils.Success(c, card)
	}

	card, err := h.cardService.FindByIDAndOwner(c.Context(), uint(id), claims.Email())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, card)
}

// FindByUser returns all cards owned by the given user. Admin only.
func (h *CardHandler) FindByUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	cards, err := h.cardService.FindByUser(c.Context(), uint(userID))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, cards)
}

// FindMine returns the caller's cards.
func (h *CardHandler) FindMine(c *fiber.Ctx) error {
	claims := currentClaims(c)

	cards, err := h.cardService.FindByOwnerEmail(c.Context(), claims.Email())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, cards)
}

// Block sets a card to BLOCKED. Admin only.
func (h *CardHandler) Block(c *fiber.Ctx) error {
	return h.setStatus(c, models.CardStatusBlocked)
}

// Activate sets a card back to ACTIVE. Admin only.
func (h *CardHandler) Activate(c *fiber.Ctx) error {
	return h.setStatus(c, models.CardStatusActive)
}

func (h *CardHandler) setStatus(c *fiber.Ctx, status string) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}

	card, err := h.cardService.SetStatus(c.Context(), uint(id), status)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, card)
}

// Delete removes a card along with its limit and history. Admin only.
func (h *CardHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}

	if err := h.cardService.Delete(c.Context(), uint(id)); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "Card deleted"})
}

// RevealNumber decrypts the full card number. Admin only.
func (h *CardHandler) RevealNumber(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}

	number, err := h.cardService.RevealNumber(c.Context(), uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"card_number": number})
}
