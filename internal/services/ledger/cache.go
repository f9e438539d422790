package ledger

import (
	"context"
	"time"

	"borewell/internal/models"
	"borewell/internal/repositories/cache"

	"go.uber.org/zap"
)

type noopCache struct{}

func (noopCache) GetBalance(context.Context, models.PartyRef) (*cache.BalanceSnapshot, bool, error) {
	return nil, false, nil
}
func (noopCache) CacheBalance(context.Context, *cache.BalanceSnapshot) error { return nil }
func (noopCache) InvalidateBalance(context.Context, models.PartyRef) error   { return nil }

// invalidate drops the cached snapshot. Cache errors only cost a stale read
// until the TTL expires, so they are logged.
func (s *service) invalidate(ctx context.Context, party models.PartyRef) {
	if err := s.cache.InvalidateBalance(ctx, party); err != nil {
		s.logger.Warn("failed to invalidate balance cache",
			zap.Stringer("party", party), zap.Error(err))
	}
}

func (s *service) cachedBalance(ctx context.Context, party models.PartyRef) (*cache.BalanceSnapshot, bool) {
	snap, found, err := s.cache.GetBalance(ctx, party)
	if err != nil {
		s.logger.Warn("failed to read balance cache",
			zap.Stringer("party", party), zap.Error(err))
		return nil, false
	}
	if found {
		s.metrics.RecordCacheHit(opBalance)
		return snap, true
	}
	s.metrics.RecordCacheMiss(opBalance)
	return nil, false
}

func (s *service) storeBalance(ctx context.Context, account *models.WalletAccount) *cache.BalanceSnapshot {
	snap := &cache.BalanceSnapshot{
		Party:         account.Party(),
		Balance:       account.Balance,
		TotalCredited: account.TotalCredited,
		TotalDeducted: account.TotalDeducted,
		Version:       account.Version,
		CachedAt:      time.Now(),
	}
	if err := s.cache.CacheBalance(ctx, snap); err != nil {
		s.logger.Warn("failed to cache balance",
			zap.Stringer("party", account.Party()), zap.Error(err))
	}
	return snap
}
