package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const sessionKey = "marketplace:session:user"

// TokenCodec signs and verifies the stored session.
type TokenCodec interface {
	Encode(u domain.User) (string, error)
	Decode(raw string) (*domain.User, error)
}

// Client is the subset of *redis.Client the session store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// SessionStore keeps the active session under a single Redis key with no
// expiry, so it survives process restarts just like the local store.
type SessionStore struct {
	client Client
	codec  TokenCodec
}

func NewSessionStore(client Client, codec TokenCodec) *SessionStore {
	return &SessionStore{client: client, codec: codec}
}

func (s *SessionStore) Load(ctx context.Context) (*domain.User, error) {
	raw, err := s.client.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session load: %w", err)
	}
	return s.codec.Decode(raw)
}

func (s *SessionStore) Save(ctx context.Context, u domain.User) error {
	token, err := s.codec.Encode(u)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey, token, 0).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
