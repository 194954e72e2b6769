package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypeTransfer   = "TRANSFER"
)

// Transaction is an append-only audit record attributed to the debited card.
// Records are never updated or deleted by the engine.
type Transaction struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Reference   string          `gorm:"uniqueIndex;not null" json:"reference"`
	CardID      uint            `gorm:"not null;index" json:"card_id"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Type        string          `gorm:"not null" json:"type"`
	Timestamp   time.Time       `gorm:"not null;index" json:"timestamp"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"-"`
}
