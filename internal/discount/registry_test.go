package discount_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/discount"
	"github.com/noah-isme/toko-cart/internal/resilience"
)

func TestMemoryRegistryIsCaseInsensitive(t *testing.T) {
	reg, err := discount.NewMemory(discount.Discount{
		Code:   "20OFF",
		Kind:   discount.KindPercent,
		Amount: decimal.NewFromInt(20),
		Status: discount.StatusActive,
	})
	require.NoError(t, err)

	d, ok, err := reg.FindByCode(context.Background(), "20off")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "20OFF", d.Code)

	_, ok, err = reg.FindByCode(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryRegistryValidates(t *testing.T) {
	reg, err := discount.NewMemory()
	require.NoError(t, err)

	require.ErrorIs(t, reg.Put(discount.Discount{Kind: discount.KindFlat, Status: discount.StatusActive}), discount.ErrInvalidDiscount)
	require.ErrorIs(t, reg.Put(discount.Discount{Code: "X", Kind: "bogus", Status: discount.StatusActive}), discount.ErrInvalidDiscount)
	require.ErrorIs(t, reg.Put(discount.Discount{Code: "X", Kind: discount.KindFlat, Status: discount.StatusActive, Amount: decimal.NewFromInt(-1)}), discount.ErrInvalidDiscount)
	require.ErrorIs(t, reg.Put(discount.Discount{Code: "X", Kind: discount.KindFlat, Status: discount.StatusActive, ProductCondition: discount.ConditionSpecific}), discount.ErrInvalidDiscount)
}

func TestRedisRegistry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	slots := cache.NewJSON(client, 0)
	ctx := context.Background()
	require.NoError(t, slots.Set(ctx, cache.KeyDiscount("SPRING"), discount.Discount{
		Code:   "SPRING",
		Kind:   discount.KindFlat,
		Amount: decimal.RequireFromString("2.50"),
		Status: discount.StatusActive,
	}))

	reg := discount.RedisRegistry{Cache: slots}
	d, ok, err := reg.FindByCode(ctx, "spring")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2.5", d.Amount.String())

	_, ok, err = reg.FindByCode(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
}

type flakyRegistry struct {
	calls int
	err   error
}

func (f *flakyRegistry) FindByCode(context.Context, string) (discount.Discount, bool, error) {
	f.calls++
	return discount.Discount{}, false, f.err
}

func TestGuardedRegistryOpensAfterFailures(t *testing.T) {
	source := &flakyRegistry{err: errors.New("connection refused")}
	reg := discount.Guarded{Registry: source, Breaker: resilience.NewBreaker("discounts", 2, 0.5, time.Minute)}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := reg.FindByCode(ctx, "20OFF")
		require.ErrorIs(t, err, source.err)
	}
	_, _, err := reg.FindByCode(ctx, "20OFF")
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, 2, source.calls)
}

func TestGuardedRegistryWithoutBreaker(t *testing.T) {
	mem, err := discount.NewMemory(discount.Discount{Code: "FIVE", Kind: discount.KindFlat, Amount: decimal.NewFromInt(5), Status: discount.StatusActive})
	require.NoError(t, err)

	d, ok, err := discount.Guarded{Registry: mem}.FindByCode(context.Background(), "five")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "FIVE", d.Code)
}
