package repositories

import (
	"time"

	"cardman/internal/models"

	"github.com/shopspring/decimal"
)

// TransactionRepository is the store the transaction engine runs against.
//
// ExecuteInTransaction runs fn inside a single atomic unit of work: every
// mutation made through the tx argument is committed together or not at all.
// LockCard acquires exclusive access to one card row for the remainder of the
// unit of work; callers lock cards in ascending id order so that opposite
// direction transfers cannot deadlock.
type TransactionRepository interface {
	ExecuteInTransaction(fn func(tx TransactionRepository) error) error
	LockCard(id uint, holderEmail string) (*models.Card, error)
	UpdateCardBalance(card *models.Card) error
	CreateTransaction(txn *models.Transaction) error
	GetTransactionByID(id uint) (*models.Transaction, error)
	ListByCard(cardID uint) ([]models.Transaction, error)
	SumWithdrawals(cardID uint, from, to time.Time) (decimal.Decimal, error)
	GetLimit(cardID uint) (*models.CardLimit, error)
	DeleteByCard(cardID uint) error
}
