package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const keyPrefix = "store:session"

// RedisStore хранит слоты сессий в Redis с TTL на каждый ключ,
// поэтому корзина переживает рестарт и доступна всем репликам.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore оборачивает готовый клиент Redis.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, sessionID, slot string) ([]byte, error) {
	data, err := s.client.Get(ctx, slotKey(sessionID, slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session slot: %w", err)
	}
	return data, nil
}

// Save перезаписывает слот; ttl <= 0 сохраняет ключ без срока.
func (s *RedisStore) Save(ctx context.Context, sessionID, slot string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, slotKey(sessionID, slot), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session slot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID, slot string) error {
	if err := s.client.Del(ctx, slotKey(sessionID, slot)).Err(); err != nil {
		return fmt.Errorf("redis delete session slot: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func slotKey(sessionID, slot string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, slot)
}

var _ domain.SessionStore = (*RedisStore)(nil)
