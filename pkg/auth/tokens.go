package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hotel_management/pkg/apperr"
)

// TokenStore keeps refresh tokens. Consume is single use.
type TokenStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uint, error)
	Revoke(ctx context.Context, token string) error
}

func NewRefreshToken() string {
	return uuid.NewString()
}

var errUnknownToken = fmt.Errorf("%w: unknown or expired refresh token", apperr.ErrUnauthorized)

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "refresh:"}
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+token, strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, token string) (uint, error) {
	value, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, errUnknownToken
	}
	if err != nil {
		return 0, fmt.Errorf("consume refresh token: %w", err)
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errUnknownToken
	}
	return uint(id), nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}

type memoryToken struct {
	userID  uint
	expires time.Time
}

// MemoryStore is used when no redis URL is configured.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, token string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	delete(s.tokens, token)
	if !ok || !s.now().Before(t.expires) {
		return 0, errUnknownToken
	}
	return t.userID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
