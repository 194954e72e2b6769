package handlers

import (
	"strconv"

	"cardman/internal/utils"
	"cardman/internal/utils/validation"

	txnsvc "cardman/internal/services/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	txnService txnsvc.Service
}

func NewTransactionHandler(txnService txnsvc.Service) *TransactionHandler {
	return &TransactionHandler{txnService: txnService}
}

type transferInput struct {
	FromCardID uint            `json:"from_card_id"`
	ToCardID   uint            `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// Transfer moves funds between two of the caller's cards.
func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	var input transferInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	if input.FromCardID == 0 {
		v.AddError("from_card_id", "is required")
	}
	if input.ToCardID == 0 {
		v.AddError("to_card_id", "is required")
	}
	v.Positive("amount", input.Amount)
	if !v.Valid() {
		return utils.FailedValidation(c, v.FieldMessages())
	}

	txn, err := h.txnService.Transfer(c.Context(), input.FromCardID, input.ToCardID, input.Amount, currentClaims(c).Email())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, txn)
}

type withdrawInput struct {
	CardID uint            `json:"card_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Withdraw debits one of the caller's cards, counting toward its limits.
func (h *TransactionHandler) Withdraw(c *fiber.Ctx) error {
	var input withdrawInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	if input.CardID == 0 {
		v.AddError("card_id", "is required")
	}
	v.Positive("amount", input.Amount)
	if !v.Valid() {
		return utils.FailedValidation(c, v.FieldMessages())
	}

	txn, err := h.txnService.Withdraw(c.Context(), input.CardID, input.Amount, currentClaims(c).Email())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, txn)
}

// FindByCard lists the history of one of the caller's cards, oldest first.
func (h *TransactionHandler) FindByCard(c *fiber.Ctx) error {
	cardID, err := strconv.ParseUint(c.Params("cardId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid card ID")
	}

	txns, err := h.txnService.FindByCard(c.Context(), uint(cardID), currentClaims(c).Email())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, txns)
}

// FindByID returns one transaction record. Admin only.
func (h *TransactionHandler) FindByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "Invalid transaction ID")
	}

	txn, err := h.txnService.FindByID(c.Context(), uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, txn)
}
