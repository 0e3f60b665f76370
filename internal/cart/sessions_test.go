package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/lock"
	"github.com/noah-isme/toko-cart/internal/settings"
)

func newSessions(t *testing.T) (*cart.Sessions, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cat, err := catalog.NewMemory(catalog.Product{ID: "ebook", Name: "Ebook", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)

	return &cart.Sessions{
		Repo:     cart.RedisRepository{Cache: cache.NewJSON(client, time.Hour)},
		Locker:   lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond},
		LockTTL:  time.Second,
		Catalog:  cat,
		Settings: settings.New(),
		Logger:   zerolog.Nop(),
	}, mr
}

func TestSessionsPersistEveryMutation(t *testing.T) {
	sessions, mr := newSessions(t)
	ctx := context.Background()

	_, err := sessions.Mutate(ctx, "s1", func(ctx context.Context, s *cart.Store) error {
		_, err := s.Add(ctx, "ebook", cart.AddOptions{})
		s.SetDiscount("spring")
		return err
	})
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.KeyCart("s1")))
	require.False(t, mr.Exists(cache.KeyCartLock("s1")))

	store, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, store.Count())
	require.Equal(t, []string{"SPRING"}, store.Discounts())

	other, err := sessions.Open(ctx, "s2")
	require.NoError(t, err)
	require.True(t, other.IsEmpty())
}

func TestSessionsDoNotPersistFailedMutations(t *testing.T) {
	sessions, mr := newSessions(t)
	ctx := context.Background()

	_, err := sessions.Mutate(ctx, "s1", func(ctx context.Context, s *cart.Store) error {
		_, err := s.Remove(0)
		return err
	})
	require.ErrorIs(t, err, cart.ErrIndexOutOfRange)
	require.False(t, mr.Exists(cache.KeyCart("s1")))

	boom := errors.New("boom")
	_, err = sessions.Mutate(ctx, "s1", func(ctx context.Context, s *cart.Store) error {
		_, _ = s.Add(ctx, "ebook", cart.AddOptions{})
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists(cache.KeyCart("s1")))
}

func TestSessionsEmptyAndValidation(t *testing.T) {
	sessions, mr := newSessions(t)
	ctx := context.Background()

	_, err := sessions.Mutate(ctx, "s1", func(ctx context.Context, s *cart.Store) error {
		_, err := s.Add(ctx, "ebook", cart.AddOptions{})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, sessions.Empty(ctx, "s1"))
	require.False(t, mr.Exists(cache.KeyCart("s1")))

	_, err = sessions.Open(ctx, " ")
	require.ErrorIs(t, err, cart.ErrSessionRequired)
	require.ErrorIs(t, sessions.Empty(ctx, ""), cart.ErrSessionRequired)
}
