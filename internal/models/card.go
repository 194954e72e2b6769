package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Card statuses
const (
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
	CardStatusExpired = "EXPIRED"
)

// Card holds an encrypted card number; the plaintext only exists while the
// card is being created. MaskedNumber is derived once at that point and never
// changes afterwards.
type Card struct {
	gorm.Model
	CardNumber     []byte          `gorm:"uniqueIndex;not null" json:"-"`
	MaskedNumber   string          `gorm:"not null" json:"masked_number"`
	CardHolderName string          `gorm:"not null;index" json:"card_holder_name"`
	ExpirationDate time.Time       `gorm:"not null" json:"expiration_date"`
	Status         string          `gorm:"not null;default:'ACTIVE'" json:"status"`
	Balance        decimal.Decimal `gorm:"type:numeric;not null" json:"balance"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	Limit          *CardLimit      `gorm:"foreignKey:CardID" json:"limit,omitempty"`
}

// CardLimit caps cumulative withdrawal amounts per calendar day and month.
// Its lifecycle is independent of the card: set, replaced and deleted through
// explicit operations.
type CardLimit struct {
	gorm.Model
	CardID       uint            `gorm:"uniqueIndex;not null" json:"card_id"`
	DailyLimit   decimal.Decimal `gorm:"type:numeric;not null" json:"daily_limit"`
	MonthlyLimit decimal.Decimal `gorm:"type:numeric;not null" json:"monthly_limit"`
}

// ValidCardStatus reports whether s is one of the known card statuses.
func ValidCardStatus(s string) bool {
	switch s {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return true
	}
	return false
}
