package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

const stateKeyPrefix = "oauth_state:"

// RedisStateStore keeps OAuth state in redis under oauth_state:<session id>.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{
		client: client,
	}
}

func (s *RedisStateStore) Save(ctx context.Context, sessionID string, state *models.OAuthState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return s.client.Set(ctx, stateKeyPrefix+sessionID, data, ttl).Err()
}

func (s *RedisStateStore) Load(ctx context.Context, sessionID string) (*models.OAuthState, error) {
	data, err := s.client.Get(ctx, stateKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	var state models.OAuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// MemoryStateStore is the single-process backend, for development and tests.
type MemoryStateStore struct {
	cache *gocache.Cache
}

func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *MemoryStateStore) Save(_ context.Context, sessionID string, state *models.OAuthState, ttl time.Duration) error {
	stored := *state
	s.cache.Set(sessionID, &stored, ttl)
	return nil
}

func (s *MemoryStateStore) Load(_ context.Context, sessionID string) (*models.OAuthState, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, nil
	}
	stored := *v.(*models.OAuthState)
	return &stored, nil
}
