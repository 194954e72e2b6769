package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// Config is the typed snapshot handed to main at startup.
type Config struct {
	Port            string
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	LogLevel        string
	JWTSecret       string
	CardCipherKey   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// New loads configuration from environment variables. The card cipher key must
// be a valid AES key size since every card creation goes through it.
func New() (*Config, error) {
	cfg := &Config{
		Port:            GetEnv("PORT", "3000"),
		DBHost:          GetEnv("DB_HOST", "localhost"),
		DBUser:          GetEnv("DB_USER", "postgres"),
		DBPassword:      GetEnv("DB_PASSWORD", "postgres"),
		DBName:          GetEnv("DB_NAME", "cardman"),
		RedisHost:       GetEnv("REDIS_HOST", "localhost"),
		RedisPort:       GetEnv("REDIS_PORT", "6379"),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         GetIntEnv("REDIS_DB", 0),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		JWTSecret:       GetEnv("JWT_SECRET", ""),
		CardCipherKey:   GetEnv("CARD_CIPHER_KEY", ""),
		AccessTokenTTL:  GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch len(cfg.CardCipherKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("CARD_CIPHER_KEY must be 16, 24, or 32 bytes, got %d", len(cfg.CardCipherKey))
	}

	return cfg, nil
}
