// Package auth verifies credentials and issues stateless token pairs. Every
// request's identity is established from the token alone; there is no
// server-side session state.
package auth

import (
	"context"
	"errors"
	"fmt"

	"cardman/internal/models"
	"cardman/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserDirectory is the slice of the user service auth needs.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
}

type Service interface {
	Register(ctx context.Context, email, password string) (*models.User, string, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (*models.User, string, string, error)
}

type service struct {
	users UserDirectory
	log   *logrus.Logger
}

func NewService(users UserDirectory, log *logrus.Logger) Service {
	if users == nil {
		panic("user directory is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &service{users: users, log: log}
}

// Register hashes the password, persists the user with the default role and
// returns a fresh token pair. Duplicate emails surface as already-exists.
func (s *service) Register(ctx context.Context, email, password string) (*models.User, string, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hashed))
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := utils.GenerateTokens(user)
	if err != nil {
		s.log.Errorf("token generation failed for %s: %v", email, err)
		return nil, "", "", fmt.Errorf("error generating tokens: %w", err)
	}

	s.log.Infof("user registered: %s", email)
	return user, access, refresh, nil
}

// Login verifies the password against the stored hash. A missing user and a
// wrong password are distinct error kinds; the boundary may still collapse
// them into one status.
func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Warnf("login failed: incorrect password for %s", email)
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := utils.GenerateTokens(user)
	if err != nil {
		s.log.Errorf("token generation failed for %s: %v", email, err)
		return nil, "", "", fmt.Errorf("error generating tokens: %w", err)
	}

	s.log.Infof("user logged in: %s", email)
	return user, access, refresh, nil
}

// Refresh validates the presented token, re-resolves the subject against the
// directory and reissues a pair.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return nil, "", "", ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, claims.Email())
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := utils.GenerateTokens(user)
	if err != nil {
		return nil, "", "", fmt.Errorf("error generating tokens: %w", err)
	}

	s.log.Infof("tokens refreshed for %s", user.Email)
	return user, access, refresh, nil
}
