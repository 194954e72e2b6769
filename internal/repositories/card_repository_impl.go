package repositories

import (
	"errors"
	"fmt"
	"time"

	"cardman/internal/models"

	"gorm.io/gorm"
)

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(card *models.Card) error {
	return r.db.Create(card).Error
}

func (r *cardRepository) GetByID(id uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.Preload("Limit").First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) GetByIDAndHolder(id uint, holderEmail string) (*models.Card, error) {
	var card models.Card
	err := r.db.Preload("Limit").
		Where("id = ? AND card_holder_name = ?", id, holderEmail).
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) ExistsByIDAndOwnerEmail(id uint, ownerEmail string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Card{}).
		Joins("JOIN users ON users.id = cards.user_id").
		Where("cards.id = ? AND users.email = ?", id, ownerEmail).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *cardRepository) GetByUserID(userID uint) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.Preload("Limit").Where("user_id = ?", userID).Order("id asc").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) GetByHolder(holderEmail string) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Preload("Limit").
		Where("card_holder_name = ?", holderEmail).
		Order("id asc").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// List sorts by an allow-listed column only; raw sort text never reaches SQL.
func (r *cardRepository) List(sortField, sortDir string, offset, limit int) ([]models.Card, error) {
	column, ok := CardSortFields[sortField]
	if !ok {
		column = "id"
	}
	dir := "asc"
	if sortDir == "desc" {
		dir = "desc"
	}

	var cards []models.Card
	err := r.db.Preload("Limit").
		Order(fmt.Sprintf("%s %s", column, dir)).
		Offset(offset).Limit(limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) Update(card *models.Card) error {
	return r.db.Save(card).Error
}

func (r *cardRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Card{}, id).Error
}

func (r *cardRepository) MarkExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.Card{}).
		Where("expiration_date < ? AND status <> ?", now, models.CardStatusExpired).
		Update("status", models.CardStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *cardRepository) SaveLimit(limit *models.CardLimit) error {
	return r.db.Save(limit).Error
}

func (r *cardRepository) GetLimitByCardID(cardID uint) (*models.CardLimit, error) {
	var limit models.CardLimit
	if err := r.db.Where("card_id = ?", cardID).First(&limit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLimitNotFound
		}
		return nil, err
	}
	return &limit, nil
}

func (r *cardRepository) DeleteLimit(limitID uint) error {
	return r.db.Unscoped().Delete(&models.CardLimit{}, limitID).Error
}
