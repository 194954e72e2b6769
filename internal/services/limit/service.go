// Package limit manages per-card daily and monthly withdrawal caps. Limits
// live independently of the card lifecycle and are re-read by the transaction
// engine on every validation, never cached.
package limit

import (
	"context"
	"errors"
	"fmt"

	"cardman/internal/models"
	"cardman/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrNegativeLimit = errors.New("limit values must not be negative")

type Service interface {
	SetLimit(ctx context.Context, cardID uint, daily, monthly decimal.Decimal) (*models.Card, error)
	DeleteLimit(ctx context.Context, cardID, limitID uint) error
}

type service struct {
	repo repositories.CardRepository
	log  *logrus.Logger
}

func NewService(repo repositories.CardRepository, log *logrus.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &service{repo: repo, log: log}
}

// SetLimit creates the card's limit or replaces the existing one. Values have
// no upper bound.
func (s *service) SetLimit(ctx context.Context, cardID uint, daily, monthly decimal.Decimal) (*models.Card, error) {
	if daily.IsNegative() || monthly.IsNegative() {
		return nil, ErrNegativeLimit
	}

	if _, err := s.repo.GetByID(cardID); err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return nil, fmt.Errorf("card with id %d was not found: %w", cardID, repositories.ErrCardNotFound)
		}
		return nil, err
	}

	cardLimit, err := s.repo.GetLimitByCardID(cardID)
	switch {
	case err == nil:
		cardLimit.DailyLimit = daily
		cardLimit.MonthlyLimit = monthly
	case errors.Is(err, repositories.ErrLimitNotFound):
		cardLimit = &models.CardLimit{
			CardID:       cardID,
			DailyLimit:   daily,
			MonthlyLimit: monthly,
		}
	default:
		return nil, err
	}

	if err := s.repo.SaveLimit(cardLimit); err != nil {
		return nil, fmt.Errorf("failed to save limit: %w", err)
	}

	s.log.Infof("limit set on card %d: daily=%s monthly=%s", cardID, daily, monthly)
	return s.repo.GetByID(cardID)
}

// DeleteLimit detaches and removes the card's limit. Once gone, withdraw and
// transfer on the card fail closed until a new limit is set.
func (s *service) DeleteLimit(ctx context.Context, cardID, limitID uint) error {
	cardLimit, err := s.repo.GetLimitByCardID(cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrLimitNotFound) {
			return fmt.Errorf("card limit with id %d was not found: %w", limitID, repositories.ErrLimitNotFound)
		}
		return err
	}
	if cardLimit.ID != limitID {
		return fmt.Errorf("card limit with id %d was not found: %w", limitID, repositories.ErrLimitNotFound)
	}

	if err := s.repo.DeleteLimit(cardLimit.ID); err != nil {
		return fmt.Errorf("failed to delete limit: %w", err)
	}

	s.log.Infof("limit %d deleted from card %d", limitID, cardID)
	return nil
}
