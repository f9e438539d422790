package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"borewell/internal/models"

	"github.com/redis/go-redis/v9"
)

// BalanceSnapshot is the cached view of a wallet account.
type BalanceSnapshot struct {
	Party         models.PartyRef `json:"party"`
	Balance       float64         `json:"balance"`
	TotalCredited float64         `json:"total_credited"`
	TotalDeducted float64         `json:"total_deducted"`
	Version       int64           `json:"version"`
	CachedAt      time.Time       `json:"cached_at"`
}

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

// BalanceKey is the cache key of a party's balance snapshot.
func BalanceKey(party models.PartyRef) string {
	return fmt.Sprintf("wallet:balance:%s:%d", party.Type, party.ID)
}

// Balance caching
func (s *CacheService) CacheBalance(ctx context.Context, snap *BalanceSnapshot) error {
	if snap == nil {
		return errors.New("cannot cache nil balance")
	}
	return s.Set(ctx, BalanceKey(snap.Party), snap)
}

func (s *CacheService) GetBalance(ctx context.Context, party models.PartyRef) (*BalanceSnapshot, bool, error) {
	var snap BalanceSnapshot
	found, err := s.Get(ctx, BalanceKey(party), &snap)
	if err != nil || !found {
		return nil, false, err
	}
	return &snap, true, nil
}

func (s *CacheService) InvalidateBalance(ctx context.Context, party models.PartyRef) error {
	return s.Delete(ctx, BalanceKey(party))
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
