package wishlist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store persists per-user wishlists as Redis sets.
type Store interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]string, error)
	Contains(ctx context.Context, userID, productID string) (bool, error)
}

type redisStore struct{ client *redis.Client }

func NewRedisStore(client *redis.Client) Store { return &redisStore{client: client} }

func key(userID string) string { return fmt.Sprintf("wishlist:%s", userID) }

func (s *redisStore) Add(ctx context.Context, userID, productID string) error {
	return s.client.SAdd(ctx, key(userID), productID).Err()
}

func (s *redisStore) Remove(ctx context.Context, userID, productID string) error {
	return s.client.SRem(ctx, key(userID), productID).Err()
}

func (s *redisStore) List(ctx context.Context, userID string) ([]string, error) {
	return s.client.SMembers(ctx, key(userID)).Result()
}

func (s *redisStore) Contains(ctx context.Context, userID, productID string) (bool, error) {
	return s.client.SIsMember(ctx, key(userID), productID).Result()
}
