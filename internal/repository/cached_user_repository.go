package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"metachat/notification-service/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

// CachedUserRepository serves device-token registries from Redis and falls
// back to the wrapped repository on a miss. Redis failures never fail a read.
type CachedUserRepository struct {
	next   UserRepository
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedUserRepository(next UserRepository, client *redis.Client, prefix string, ttl time.Duration, logger *logrus.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedUserRepository) BuildKey(userID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}

func (c *CachedUserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	key := c.BuildKey(id)

	user, err := c.get(ctx, key)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.WithError(err).WithField("user_id", id).Warn("Device token cache read failed")
	}

	user, err = c.next.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.set(ctx, key, user); err != nil {
		c.logger.WithError(err).WithField("user_id", id).Warn("Device token cache write failed")
	}

	return user, nil
}

func (c *CachedUserRepository) get(ctx context.Context, key string) (*models.User, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &user, nil
}

func (c *CachedUserRepository) set(ctx context.Context, key string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}
