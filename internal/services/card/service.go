// Package card implements the card registry: lifecycle, status transitions,
// balance storage and lookups. Card numbers are encrypted on the way in and
// the plaintext is dropped immediately after masking.
package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardman/internal/models"
	"cardman/internal/repositories"
	"cardman/internal/services/vault"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Cards are valid for 5 years from creation.
const cardValidity = 5

var (
	ErrUnknownStatus     = errors.New("unknown card status")
	ErrInvalidCardNumber = errors.New("invalid card number")

	// ErrBusiness marks internal faults (for example an encryption failure)
	// whose cause must not leak to the caller.
	ErrBusiness = errors.New("unexpected internal error")
)

// UserDirectory resolves owners at card creation.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service interface {
	Create(ctx context.Context, ownerEmail, cardNumber string) (*models.Card, error)
	FindByID(ctx context.Context, id uint) (*models.Card, error)
	FindByIDAndOwner(ctx context.Context, id uint, ownerEmail string) (*models.Card, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Card, error)
	FindByOwnerEmail(ctx context.Context, ownerEmail string) ([]models.Card, error)
	List(ctx context.Context, sortField, sortDir string, page, size int) ([]models.Card, error)
	SetStatus(ctx context.Context, id uint, status string) (*models.Card, error)
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	RevealNumber(ctx context.Context, id uint) (string, error)
}

type service struct {
	repo  repositories.CardRepository
	txns  repositories.TransactionRepository
	users UserDirectory
	vault vault.Service
	log   *logrus.Logger
}

func NewService(
	repo repositories.CardRepository,
	txns repositories.TransactionRepository,
	users UserDirectory,
	v vault.Service,
	log *logrus.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if txns == nil {
		panic("transaction repo is required")
	}
	if users == nil {
		panic("user directory is required")
	}
	if v == nil {
		panic("vault is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &service{repo: repo, txns: txns, users: users, vault: v, log: log}
}

// Create encrypts and masks the card number, attaches the owner resolved by
// email, and opens the card ACTIVE with a zero balance and a 5 year expiry.
// No limit is attached; limit-bearing operations fail closed until one is set.
func (s *service) Create(ctx context.Context, ownerEmail, cardNumber string) (*models.Card, error) {
	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return nil, fmt.Errorf("%w: must be 13 to 19 digits", ErrInvalidCardNumber)
	}

	owner, err := s.users.FindByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.vault.Encrypt(cardNumber)
	if err != nil {
		s.log.Errorf("card number encryption failed: %v", err)
		return nil, fmt.Errorf("%w: card creation failed", ErrBusiness)
	}

	card := &models.Card{
		CardNumber:     encrypted,
		MaskedNumber:   s.vault.Mask(cardNumber),
		CardHolderName: owner.Email,
		ExpirationDate: time.Now().AddDate(cardValidity, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        decimal.Zero,
		UserID:         owner.ID,
	}
	if err := s.repo.Create(card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	s.log.Infof("card created: %s for %s", card.MaskedNumber, owner.Email)
	return card, nil
}

func (s *service) FindByID(ctx context.Context, id uint) (*models.Card, error) {
	card, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return nil, fmt.Errorf("card with id %d was not found: %w", id, repositories.ErrCardNotFound)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (s *service) FindByIDAndOwner(ctx context.Context, id uint, ownerEmail string) (*models.Card, error) {
	card, err := s.repo.GetByIDAndHolder(id, ownerEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return nil, fmt.Errorf("card with id %d and holder '%s' was not found: %w",
				id, ownerEmail, repositories.ErrCardNotFound)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (s *service) FindByUser(ctx context.Context, userID uint) ([]models.Card, error) {
	return s.repo.GetByUserID(userID)
}

func (s *service) FindByOwnerEmail(ctx context.Context, ownerEmail string) ([]models.Card, error) {
	return s.repo.GetByHolder(ownerEmail)
}

func (s *service) List(ctx context.Context, sortField, sortDir string, page, size int) ([]models.Card, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 5
	}
	return s.repo.List(sortField, sortDir, (page-1)*size, size)
}

func (s *service) SetStatus(ctx context.Context, id uint, status string) (*models.Card, error) {
	if !models.ValidCardStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}

	card, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	card.Status = status
	if err := s.repo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	s.log.Infof("card %d status set to %s", id, status)
	return card, nil
}

// Delete removes the card after explicitly detaching what it owns: first the
// audit records, then the limit, then the card row itself.
func (s *service) Delete(ctx context.Context, id uint) error {
	card, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.txns.DeleteByCard(card.ID); err != nil {
		return fmt.Errorf("failed to delete transactions for card %d: %w", id, err)
	}
	if limit, err := s.repo.GetLimitByCardID(card.ID); err == nil {
		if err := s.repo.DeleteLimit(limit.ID); err != nil {
			return fmt.Errorf("failed to delete limit for card %d: %w", id, err)
		}
	} else if !errors.Is(err, repositories.ErrLimitNotFound) {
		return err
	}
	if err := s.repo.Delete(card.ID); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	s.log.Infof("card deleted: %d", id)
	return nil
}

func (s *service) DeleteByUser(ctx context.Context, userID uint) error {
	cards, err := s.repo.GetByUserID(userID)
	if err != nil {
		return err
	}
	for _, card := range cards {
		if err := s.Delete(ctx, card.ID); err != nil {
			return err
		}
	}
	return nil
}

// MarkExpired flips cards past their expiration date to EXPIRED. Run daily.
func (s *service) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.MarkExpired(now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired cards: %w", err)
	}
	if n > 0 {
		s.log.Infof("marked %d cards expired", n)
	}
	return n, nil
}

// RevealNumber decrypts the stored card number. Admin-only at the boundary.
func (s *service) RevealNumber(ctx context.Context, id uint) (string, error) {
	card, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	number, err := s.vault.Decrypt(card.CardNumber)
	if err != nil {
		s.log.Errorf("card number decryption failed: %v", err)
		return "", fmt.Errorf("%w: card lookup failed", ErrBusiness)
	}
	return number, nil
}
