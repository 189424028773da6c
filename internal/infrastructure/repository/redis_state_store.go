package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

// RedisStateStore keeps OAuth state nonces in Redis with a TTL so that
// several API instances can share them
type RedisStateStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ ports.StateStore = (*RedisStateStore)(nil)

// ConnectRedisStateStore parses a redis:// URL and verifies the connection
func ConnectRedisStateStore(ctx context.Context, redisURL string) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStateStore(client), nil
}

// NewRedisStateStore creates a state store on an existing client
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, now: time.Now}
}

// Save stores the nonce until it expires
func (s *RedisStateStore) Save(ctx context.Context, state *domain.OAuthState) error {
	ttl := state.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("oauth state already expired")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the nonce
func (s *RedisStateStore) Consume(ctx context.Context, state string) (*domain.OAuthState, error) {
	data, err := s.client.GetDel(ctx, stateKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	var result domain.OAuthState
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return &result, nil
}

// Close releases the client
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
