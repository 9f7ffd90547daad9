package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store defines cart persistence. Backed by Redis in production; tests use an
// in-memory fake.
type Store interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID string) error
}

const cartTTL = 30 * 24 * time.Hour

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a cart store on the given Redis client.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (s *redisStore) Get(ctx context.Context, userID string) (*Cart, error) {
	val, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return &Cart{UserID: userID, Items: []Item{}}, nil
	}
	if err != nil {
		return nil, err
	}

	c := &Cart{}
	if err := json.Unmarshal([]byte(val), c); err != nil {
		return nil, fmt.Errorf("corrupt cart payload: %w", err)
	}
	return c, nil
}

func (s *redisStore) Save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now()
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(c.UserID), b, cartTTL).Err()
}

func (s *redisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}
