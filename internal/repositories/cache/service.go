package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewCacheService(client redis.UniversalClient, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

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
	return s.client.Del(ctx, keys...).Err()
}

// IdentityEntry is what the auth gate needs to validate a token without a
// database round trip.
type IdentityEntry struct {
	Identity     models.Identity `json:"identity"`
	TokenVersion int             `json:"token_version"`
	Active       bool            `json:"active"`
}

func identityKey(kind models.IdentityKind, id uint) string {
	entity := EntityStudent
	if kind == models.KindAdmin {
		entity = EntityAdmin
	}
	return GenerateKey(entity, KeyID, id)
}

func (s *CacheService) CacheIdentity(ctx context.Context, entry IdentityEntry) error {
	return s.Set(ctx, identityKey(entry.Identity.Kind, entry.Identity.ID), entry)
}

// GetIdentity returns the cached entry, or nil on a miss.
func (s *CacheService) GetIdentity(ctx context.Context, kind models.IdentityKind, id uint) (*IdentityEntry, error) {
	var entry IdentityEntry
	found, err := s.Get(ctx, identityKey(kind, id), &entry)
	if err != nil || !found {
		return nil, err
	}
	return &entry, nil
}

func (s *CacheService) InvalidateIdentity(ctx context.Context, kind models.IdentityKind, id uint) error {
	return s.Delete(ctx, identityKey(kind, id))
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
