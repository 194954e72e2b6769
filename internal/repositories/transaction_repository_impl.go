package repositories

import (
	"errors"
	"time"

	"cardman/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ExecuteInTransaction(fn func(tx TransactionRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&transactionRepository{db: tx})
	})
}

// LockCard takes a row lock (SELECT ... FOR UPDATE) held until the surrounding
// unit of work commits or aborts. Ownership is part of the predicate: a card
// that exists but belongs to someone else reports not-found.
func (r *transactionRepository) LockCard(id uint, holderEmail string) (*models.Card, error) {
	var card models.Card
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
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

func (r *transactionRepository) UpdateCardBalance(card *models.Card) error {
	return r.db.Model(&models.Card{}).
		Where("id = ?", card.ID).
		Update("balance", card.Balance).Error
}

func (r *transactionRepository) CreateTransaction(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

func (r *transactionRepository) GetTransactionByID(id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) ListByCard(cardID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.Where("card_id = ?", cardID).Order("id asc").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// SumWithdrawals totals WITHDRAWAL amounts recorded in [from, to). Only
// withdrawals count toward spent totals, transfers never do.
func (r *transactionRepository) SumWithdrawals(cardID uint, from, to time.Time) (decimal.Decimal, error) {
	row := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("card_id = ? AND type = ? AND timestamp >= ? AND timestamp < ?",
			cardID, models.TransactionTypeWithdrawal, from, to).
		Row()

	var sum decimal.Decimal
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *transactionRepository) GetLimit(cardID uint) (*models.CardLimit, error) {
	var limit models.CardLimit
	if err := r.db.Where("card_id = ?", cardID).First(&limit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLimitNotFound
		}
		return nil, err
	}
	return &limit, nil
}

// DeleteByCard removes a card's audit records. The engine never calls this;
// it exists for the explicit delete cascade in the card registry.
func (r *transactionRepository) DeleteByCard(cardID uint) error {
	return r.db.Where("card_id = ?", cardID).Delete(&models.Transaction{}).Error
}
