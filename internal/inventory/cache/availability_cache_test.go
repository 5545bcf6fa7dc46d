package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test redis not available: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestAvailabilityCache_SetGetInvalidate(t *testing.T) {
	client := setupTestRedis(t)
	c := New(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	ref := domain.NewLineRef("SKU-1", "VAR-1")

	_, ok := c.Get(ctx, ref)
	assert.False(t, ok)

	c.Set(ctx, ref, &dto.StockLineView{
		ProductSKU: ref.ProductSKU,
		VariantSKU: ref.VariantSKU,
		Available:  12,
		Reserved:   3,
	})

	view, ok := c.Get(ctx, ref)
	require.True(t, ok)
	assert.Equal(t, 12, view.Available)
	assert.Equal(t, 3, view.Reserved)

	c.Invalidate(ctx, ref)

	_, ok = c.Get(ctx, ref)
	assert.False(t, ok)
}

func TestAvailabilityCache_CorruptEntryDropped(t *testing.T) {
	client := setupTestRedis(t)
	c := New(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	ref := domain.NewLineRef("SKU-1", "")

	require.NoError(t, client.Set(ctx, "stockline:SKU-1:", "{not json", time.Minute).Err())

	_, ok := c.Get(ctx, ref)
	assert.False(t, ok)

	// The corrupt entry is gone after the failed read.
	exists, err := client.Exists(ctx, "stockline:SKU-1:").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestAvailabilityCache_EntriesExpire(t *testing.T) {
	client := setupTestRedis(t)
	c := New(client, 50*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	ref := domain.NewLineRef("SKU-1", "")
	c.Set(ctx, ref, &dto.StockLineView{ProductSKU: ref.ProductSKU, Available: 5})

	_, ok := c.Get(ctx, ref)
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)

	_, ok = c.Get(ctx, ref)
	assert.False(t, ok)
}
