// Package cache wraps Redis behind a small service used for the hot user
// read path. Cache failures degrade to the database and never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cardman/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// Get reports whether the key was present; a miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// User caching

// cachedUser carries the password hash explicitly; the model's json:"-" tag
// would otherwise drop it on the way into Redis and break cache-hit logins.
type cachedUser struct {
	models.User
	Password string `json:"password"`
}

func (s *CacheService) CacheUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return nil
	}
	return s.Set(ctx, userKey(user.Email), cachedUser{User: *user, Password: user.Password})
}

func (s *CacheService) GetUser(ctx context.Context, email string) (*models.User, bool, error) {
	var cached cachedUser
	found, err := s.Get(ctx, userKey(email), &cached)
	if err != nil || !found {
		return nil, false, err
	}
	user := cached.User
	user.Password = cached.Password
	return &user, true, nil
}

func (s *CacheService) InvalidateUser(ctx context.Context, email string) error {
	return s.Delete(ctx, userKey(email))
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

func userKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}
