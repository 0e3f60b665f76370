package savedcart_test

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
	"github.com/noah-isme/toko-cart/internal/savedcart"
	"github.com/noah-isme/toko-cart/internal/settings"
)

type harness struct {
	mr       *miniredis.Miniredis
	client   *redis.Client
	settings *settings.Store
	manager  *savedcart.Manager
	catalog  *catalog.Memory
}

func newHarness(t *testing.T) harness {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cat, err := catalog.NewMemory(
		catalog.Product{ID: "ebook", Name: "Ebook", Price: decimal.NewFromInt(10)},
		catalog.Product{ID: "course", Name: "Course", Price: decimal.NewFromInt(50)},
	)
	require.NoError(t, err)

	set := settings.New()
	require.NoError(t, set.Set(settings.CartSavingEnabled, true))
	return harness{
		mr:       mr,
		client:   client,
		settings: set,
		catalog:  cat,
		manager: &savedcart.Manager{
			Store:    savedcart.RedisStore{Cache: cache.NewJSON(client, 24*time.Hour)},
			Settings: set,
			Now:      func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
			Logger:   zerolog.Nop(),
		},
	}
}

func (h harness) cartWith(t *testing.T, ids ...string) *cart.Store {
	t.Helper()
	c := cart.NewStore(h.catalog, h.settings, zerolog.Nop())
	for _, id := range ids {
		_, err := c.Add(context.Background(), id, cart.AddOptions{})
		require.NoError(t, err)
	}
	return c
}

func TestSaveAndRestoreReplacesContents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	saved := h.cartWith(t, "ebook", "course")
	token, err := h.manager.Save(ctx, "user-1", saved.Contents())
	require.NoError(t, err)
	require.Len(t, token, cart.TokenLength)
	require.True(t, h.mr.Exists(cache.KeySavedCart("user-1")))

	has, err := h.manager.HasSavedCart(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, has)

	live := h.cartWith(t, "course")
	ok, err := h.manager.Restore(ctx, "user-1", live)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, saved.Contents(), live.Contents())

	has, err = h.manager.HasSavedCart(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, has, "snapshot stays until discarded")

	require.NoError(t, h.manager.Discard(ctx, "user-1"))
	has, err = h.manager.HasSavedCart(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, h.manager.Discard(ctx, "user-1"))
}

func TestRestoreKeepsSnapshotWhenMutationFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.manager.Save(ctx, "alice", h.cartWith(t, "ebook", "course").Contents())
	require.NoError(t, err)

	sessions := &cart.Sessions{
		Repo:     cart.RedisRepository{Cache: cache.NewJSON(h.client, time.Hour)},
		Catalog:  h.catalog,
		Settings: h.settings,
		Logger:   zerolog.Nop(),
	}
	failure := errors.New("add failed")
	_, err = sessions.Mutate(ctx, "s1", func(ctx context.Context, s *cart.Store) error {
		ok, err := h.manager.Restore(ctx, "alice", s)
		require.NoError(t, err)
		require.True(t, ok)
		return failure
	})
	require.ErrorIs(t, err, failure)

	live, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	require.True(t, live.IsEmpty())
	has, err := h.manager.HasSavedCart(ctx, "alice")
	require.NoError(t, err)
	require.True(t, has)
}

func TestRestoreRequiresCart(t *testing.T) {
	h := newHarness(t)
	ok, err := h.manager.Restore(context.Background(), "user-1", nil)
	require.ErrorIs(t, err, savedcart.ErrCartRequired)
	require.False(t, ok)

	require.ErrorIs(t, h.manager.Discard(context.Background(), " "), savedcart.ErrOwnerRequired)
}

func TestRestoreWithoutSnapshotLeavesCart(t *testing.T) {
	h := newHarness(t)
	live := h.cartWith(t, "ebook")

	ok, err := h.manager.Restore(context.Background(), "nobody", live)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, live.Count())
}

func TestRestoreDisabledIgnoresExistingSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.manager.Save(ctx, "user-1", h.cartWith(t, "ebook", "course").Contents())
	require.NoError(t, err)

	h.settings.Delete(settings.CartSavingEnabled)
	require.False(t, h.manager.IsEnabled())

	live := h.cartWith(t, "ebook")
	ok, err := h.manager.Restore(ctx, "user-1", live)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, live.Count())

	has, err := h.manager.HasSavedCart(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, has)
	require.True(t, h.mr.Exists(cache.KeySavedCart("user-1")))
}

func TestSaveRequiresEnabledAndOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.manager.Save(ctx, "  ", nil)
	require.ErrorIs(t, err, savedcart.ErrOwnerRequired)

	require.NoError(t, h.settings.Set(settings.CartSavingEnabled, "0"))
	_, err = h.manager.Save(ctx, "user-1", nil)
	require.ErrorIs(t, err, savedcart.ErrSavingDisabled)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.manager.Save(ctx, "user-1", h.cartWith(t, "ebook").Contents())
	require.NoError(t, err)
	second, err := h.manager.Save(ctx, "user-1", h.cartWith(t, "course").Contents())
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	live := cart.NewStore(h.catalog, h.settings, zerolog.Nop())
	ok, err := h.manager.Restore(ctx, "user-1", live)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []cart.Entry{{ProductID: "course", Quantity: 1}}, live.Contents())
}
