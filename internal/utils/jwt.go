package utils

import (
	"errors"
	"time"

	"cardman/internal/config"
	"cardman/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateTokens generates an access token and a refresh token for the given
// user. Both carry subject = email and the user's role list; the JWT secret is
// expected to be set in the environment variable JWT_SECRET.
func GenerateTokens(user *models.User) (accessToken string, refreshToken string, err error) {
	accessToken, err = GenerateToken(user, config.GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute))
	if err != nil {
		return "", "", err
	}
	refreshToken, err = GenerateToken(user, config.GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour))
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GenerateToken signs a single HS256 token for the user with the given lifetime.
func GenerateToken(user *models.User, ttl time.Duration) (string, error) {
	jwtSecret := config.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return "", errors.New("JWT_SECRET not configured")
	}

	now := time.Now()
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "cardman-api",
			Subject:   user.Email,
		},
		Roles: user.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ParseToken parses and validates a JWT token string. Malformed, expired or
// badly signed tokens all come back as ErrInvalidToken.
func ParseToken(tokenStr string) (*models.UserClaims, error) {
	jwtSecret := config.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
