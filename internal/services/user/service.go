// Package user implements the user directory: identity lookup, creation with
// the default role, and deletion with an explicit cascade through the card
// registry. Reads by email are hot and go through the cache.
package user

import (
	"context"
	"errors"
	"fmt"

	"cardman/internal/models"
	"cardman/internal/repositories"

	"github.com/sirupsen/logrus"
)

var ErrEmailTaken = errors.New("user with this email already exists")

// CardRegistry is the slice of the card service the directory needs for the
// delete cascade.
type CardRegistry interface {
	DeleteByUser(ctx context.Context, userID uint) error
}

// UserCache is the read-path cache; implementations may be nil-safe no-ops.
type UserCache interface {
	CacheUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, email string) (*models.User, bool, error)
	InvalidateUser(ctx context.Context, email string) error
}

type Service interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, page, size int, sortDir string) ([]models.User, error)
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo  repositories.UserRepository
	cards CardRegistry
	cache UserCache
	log   *logrus.Logger
}

func NewService(repo repositories.UserRepository, cards CardRegistry, cache UserCache, log *logrus.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cards == nil {
		panic("card registry is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &service{
		repo:  repo,
		cards: cards,
		cache: cache,
		log:   log,
	}
}

func (s *service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.cache != nil {
		if user, found, err := s.cache.GetUser(ctx, email); err == nil && found {
			return user, nil
		}
	}

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("user with email '%s' was not found: %w", email, repositories.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.CacheUser(ctx, user); err != nil {
			s.log.Warnf("failed to cache user %s: %v", email, err)
		}
	}
	return user, nil
}

func (s *service) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("user with id %d was not found: %w", id, repositories.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *service) List(ctx context.Context, page, size int, sortDir string) ([]models.User, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return s.repo.List((page-1)*size, size, sortDir)
}

// Create persists a new user with the default role. passwordHash must already
// be a one-way hash; the directory never sees raw passwords.
func (s *service) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	taken, err := s.repo.ExistsByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("user with email '%s' already exists: %w", email, ErrEmailTaken)
	}

	user := &models.User{
		Email:    email,
		Password: passwordHash,
		Roles:    []string{models.RoleUser},
	}
	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Infof("user created: %s", user.Email)
	return user, nil
}

// Delete removes the user and, explicitly and in order, every card the user
// owns (each card in turn detaches its limit and transactions).
func (s *service) Delete(ctx context.Context, id uint) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.cards.DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete cards for user %d: %w", id, err)
	}
	if err := s.repo.Delete(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, user.Email); err != nil {
			s.log.Warnf("failed to invalidate user cache for %s: %v", user.Email, err)
		}
	}

	s.log.Infof("user deleted: %s", user.Email)
	return nil
}
