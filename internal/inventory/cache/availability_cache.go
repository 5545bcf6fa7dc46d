package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
)

// AvailabilityCache keeps hot stock line views in Redis with a short
// TTL. MySQL stays authoritative; every ledger writer invalidates the
// key after commit, so a stale read is bounded by the TTL even if an
// invalidation is lost. Cache failures degrade to misses.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AvailabilityCache {
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func key(ref domain.LineRef) string {
	return "stockline:" + ref.ProductSKU + ":" + ref.VariantSKU
}

func (c *AvailabilityCache) Get(ctx context.Context, ref domain.LineRef) (*dto.StockLineView, bool) {
	data, err := c.client.Get(ctx, key(ref)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", zap.String("ref", ref.String()), zap.Error(err))
		}
		return nil, false
	}

	var view dto.StockLineView
	if err := json.Unmarshal(data, &view); err != nil {
		c.logger.Warn("corrupt cache entry dropped", zap.String("ref", ref.String()), zap.Error(err))
		c.Invalidate(ctx, ref)
		return nil, false
	}

	return &view, true
}

func (c *AvailabilityCache) Set(ctx context.Context, ref domain.LineRef, view *dto.StockLineView) {
	data, err := json.Marshal(view)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key(ref), data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.String("ref", ref.String()), zap.Error(err))
	}
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, ref domain.LineRef) {
	if err := c.client.Del(ctx, key(ref)).Err(); err != nil {
		c.logger.Debug("cache invalidation failed", zap.String("ref", ref.String()), zap.Error(err))
	}
}
