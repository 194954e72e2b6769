package repositories

import (
	"time"

	"cardman/internal/models"
)

// Sortable card listing fields. Sort parameters arriving from the outside are
// resolved against this allow-list; anything else falls back to the default.
var CardSortFields = map[string]string{
	"id":              "id",
	"balance":         "balance",
	"expiration_date": "expiration_date",
	"status":          "status",
	"created_at":      "created_at",
}

// CardRepository is the persistence contract for the card registry, including
// the card's optional limit (the limit row is owned by its card).
type CardRepository interface {
	Create(card *models.Card) error
	GetByID(id uint) (*models.Card, error)
	GetByIDAndHolder(id uint, holderEmail string) (*models.Card, error)
	ExistsByIDAndOwnerEmail(id uint, ownerEmail string) (bool, error)
	GetByUserID(userID uint) ([]models.Card, error)
	GetByHolder(holderEmail string) ([]models.Card, error)
	List(sortField, sortDir string, offset, limit int) ([]models.Card, error)
	Update(card *models.Card) error
	Delete(id uint) error
	MarkExpired(now time.Time) (int64, error)

	SaveLimit(limit *models.CardLimit) error
	GetLimitByCardID(cardID uint) (*models.CardLimit, error)
	DeleteLimit(limitID uint) error
}
