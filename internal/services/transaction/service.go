// Package transaction implements the transaction engine: it is the only
// component that mutates card balances, and every mutation is paired with an
// append-only audit record inside a single atomic unit of work.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardman/internal/models"
	"cardman/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Transfer(ctx context.Context, fromCardID, toCardID uint, amount decimal.Decimal, callerEmail string) (*models.Transaction, error)
	Withdraw(ctx context.Context, cardID uint, amount decimal.Decimal, callerEmail string) (*models.Transaction, error)
	FindByCard(ctx context.Context, cardID uint, callerEmail string) ([]models.Transaction, error)
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
}

// CardLookup is the slice of the card registry the engine needs for the
// history ownership check.
type CardLookup interface {
	ExistsByIDAndOwnerEmail(id uint, ownerEmail string) (bool, error)
}

type service struct {
	repo  repositories.TransactionRepository
	cards CardLookup
	clock monotonicClock
	log   *logrus.Logger
}

func NewService(repo repositories.TransactionRepository, cards CardLookup, log *logrus.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cards == nil {
		panic("card lookup is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &service{repo: repo, cards: cards, log: log}
}

// Transfer debits the source card, credits the destination and appends one
// TRANSFER record attributed to the source, all in one unit of work. The
// caller must own both cards; a card owned by someone else reports not-found
// rather than forbidden, so card existence never leaks.
func (s *service) Transfer(ctx context.Context, fromCardID, toCardID uint, amount decimal.Decimal, callerEmail string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if fromCardID == toCardID {
		return nil, ErrSameCard
	}

	var record *models.Transaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.TransactionRepository) error {
		// Lock both rows in ascending id order so two opposite-direction
		// transfers cannot deadlock.
		locked := make(map[uint]*models.Card, 2)
		for _, id := range ascending(fromCardID, toCardID) {
			card, err := tx.LockCard(id, callerEmail)
			if err != nil {
				if errors.Is(err, repositories.ErrCardNotFound) {
					return fmt.Errorf("card with holder '%s' and cardId %d was not found: %w",
						callerEmail, id, repositories.ErrCardNotFound)
				}
				return err
			}
			locked[id] = card
		}
		from, to := locked[fromCardID], locked[toCardID]

		now := s.clock.Now()
		if err := s.validate(tx, from, amount, now); err != nil {
			return err
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)
		if err := tx.UpdateCardBalance(from); err != nil {
			return err
		}
		if err := tx.UpdateCardBalance(to); err != nil {
			return err
		}

		record = &models.Transaction{
			Reference:   uuid.NewString(),
			CardID:      from.ID,
			Amount:      amount,
			Type:        models.TransactionTypeTransfer,
			Timestamp:   now,
			Description: fmt.Sprintf("transfer from card %d to card %d", from.ID, to.ID),
		}
		return tx.CreateTransaction(record)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("transfer of %s from card %d to card %d", amount, fromCardID, toCardID)
	return record, nil
}

// Withdraw debits the card and appends one WITHDRAWAL record in one unit of
// work.
func (s *service) Withdraw(ctx context.Context, cardID uint, amount decimal.Decimal, callerEmail string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var record *models.Transaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.TransactionRepository) error {
		card, err := tx.LockCard(cardID, callerEmail)
		if err != nil {
			if errors.Is(err, repositories.ErrCardNotFound) {
				return fmt.Errorf("card with holder '%s' and cardId %d was not found: %w",
					callerEmail, cardID, repositories.ErrCardNotFound)
			}
			return err
		}

		now := s.clock.Now()
		if err := s.validate(tx, card, amount, now); err != nil {
			return err
		}

		card.Balance = card.Balance.Sub(amount)
		if err := tx.UpdateCardBalance(card); err != nil {
			return err
		}

		record = &models.Transaction{
			Reference:   uuid.NewString(),
			CardID:      card.ID,
			Amount:      amount,
			Type:        models.TransactionTypeWithdrawal,
			Timestamp:   now,
			Description: fmt.Sprintf("withdrawal from card %d", card.ID),
		}
		return tx.CreateTransaction(record)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("withdrawal of %s from card %d", amount, cardID)
	return record, nil
}

// FindByCard returns the card's records in insertion order, oldest first.
// The ownership check runs first and fails not-found, like the engine ops.
func (s *service) FindByCard(ctx context.Context, cardID uint, callerEmail string) ([]models.Transaction, error) {
	owned, err := s.cards.ExistsByIDAndOwnerEmail(cardID, callerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check card ownership: %w", err)
	}
	if !owned {
		return nil, fmt.Errorf("card with holder '%s' and cardId %d was not found: %w",
			callerEmail, cardID, repositories.ErrCardNotFound)
	}
	return s.repo.ListByCard(cardID)
}

func (s *service) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	txn, err := s.repo.GetTransactionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, fmt.Errorf("transaction with id %d was not found: %w", id, repositories.ErrTransactionNotFound)
		}
		return nil, err
	}
	return txn, nil
}

// validate applies the fixed rule order to the debited card. The first
// failing rule wins and nothing has been mutated yet. Only WITHDRAWAL
// amounts count toward the daily and monthly spent totals, including when a
// transfer is being validated.
func (s *service) validate(tx repositories.TransactionRepository, card *models.Card, amount decimal.Decimal, now time.Time) error {
	if card.Status != models.CardStatusActive {
		return ErrCardNotActive
	}
	if card.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	cardLimit, err := tx.GetLimit(card.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrLimitNotFound) {
			// Fail closed: a card without a limit cannot spend.
			return ErrNoLimitConfigured
		}
		return err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dailySpent, err := tx.SumWithdrawals(card.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if dailySpent.Add(amount).GreaterThan(cardLimit.DailyLimit) {
		return ErrDailyLimitExceeded
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthlySpent, err := tx.SumWithdrawals(card.ID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return err
	}
	if monthlySpent.Add(amount).GreaterThan(cardLimit.MonthlyLimit) {
		return ErrMonthlyLimitExceeded
	}

	return nil
}

func ascending(a, b uint) []uint {
	if a < b {
		return []uint{a, b}
	}
	return []uint{b, a}
}
