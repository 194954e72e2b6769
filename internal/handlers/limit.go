package handlers

import (
	"strconv"

	"cardman/internal/utils"
	"cardman/internal/utils/validation"

	limitsvc "cardman/internal/services/limit"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type LimitHandler struct {
	limitService limitsvc.Service
}

func NewLimitHandler(limitService limitsvc.Service) *LimitHandler {
	return &LimitHandler{limitService: limitService}
}

type setLimitInput struct {
	DailyLimit   decimal.Decimal `json:"daily_limit"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
}

// Set creates or replaces the limit of a card. Admin only.
func (h *LimitHandler) Set(c *fiber.Ctx) error {
	cardID, err := strconv.ParseUint(c.Params("cardId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}

	var input setLimitInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	v.NonNegative("daily_limit", input.DailyLimit)
	v.NonNegative("monthly_limit", input.MonthlyLimit)
	if !v.Valid() {
		return utils.FailedValidation(c, v.FieldMessages())
	}

	card, err := h.limitService.SetLimit(c.Context(), uint(cardID), input.DailyLimit, input.MonthlyLimit)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, card)
}

// Delete removes the limit from a card. Admin only.
func (h *LimitHandler) Delete(c *fiber.Ctx) error {
	cardID, err := strconv.ParseUint(c.Params("cardId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}
	limitID, err := strconv.ParseUint(c.Params("limitId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid limit ID")
	}

	if err := h.limitService.DeleteLimit(c.Context(), uint(cardID), uint(limitID)); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "Limit deleted"})
}
