// Package savedcart keeps one cart snapshot per owner so a cart can be set aside and restored later.
package savedcart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/obs"
	"github.com/noah-isme/toko-cart/internal/settings"
)

var (
	// ErrSavingDisabled is returned by Save when cart saving is switched off.
	ErrSavingDisabled = errors.New("cart saving disabled")
	// ErrOwnerRequired is returned when no owner identity is supplied.
	ErrOwnerRequired = errors.New("saved cart owner required")
	// ErrCartRequired is returned by Restore when there is no cart to restore into.
	ErrCartRequired = errors.New("saved cart restore target required")
)

// Snapshot is the stored copy of a cart.
type Snapshot struct {
	Entries []cart.Entry `json:"entries"`
	Token   string       `json:"token"`
	SavedAt time.Time    `json:"saved_at"`
}

// SnapshotStore holds at most one snapshot per owner.
type SnapshotStore interface {
	Get(ctx context.Context, owner string) (Snapshot, bool, error)
	Put(ctx context.Context, owner string, snap Snapshot) error
	Delete(ctx context.Context, owner string) error
}

// RedisStore keeps snapshots as JSON under cache.KeySavedCart.
type RedisStore struct {
	Cache *cache.JSON
}

// Get implements SnapshotStore.
func (r RedisStore) Get(ctx context.Context, owner string) (Snapshot, bool, error) {
	var snap Snapshot
	ok, err := r.Cache.Get(ctx, cache.KeySavedCart(owner), &snap)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load saved cart %q: %w", owner, err)
	}
	return snap, ok, nil
}

// Put implements SnapshotStore.
func (r RedisStore) Put(ctx context.Context, owner string, snap Snapshot) error {
	if err := r.Cache.Set(ctx, cache.KeySavedCart(owner), snap); err != nil {
		return fmt.Errorf("save cart snapshot %q: %w", owner, err)
	}
	return nil
}

// Delete implements SnapshotStore.
func (r RedisStore) Delete(ctx context.Context, owner string) error {
	if err := r.Cache.Delete(ctx, cache.KeySavedCart(owner)); err != nil {
		return fmt.Errorf("delete saved cart %q: %w", owner, err)
	}
	return nil
}

// Manager saves and restores whole carts.
type Manager struct {
	Store    SnapshotStore
	Settings settings.Provider
	Now      func() time.Time
	Logger   zerolog.Logger
}

// IsEnabled reports whether cart saving is switched on.
func (m *Manager) IsEnabled() bool {
	return m != nil && m.Settings != nil && m.Settings.Bool(settings.CartSavingEnabled)
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

// Save overwrites the owner's snapshot with entries and returns the integrity token stamped on it.
func (m *Manager) Save(ctx context.Context, owner string, entries []cart.Entry) (string, error) {
	if !m.IsEnabled() {
		return "", ErrSavingDisabled
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", ErrOwnerRequired
	}
	snap := Snapshot{
		Entries: append([]cart.Entry(nil), entries...),
		Token:   cart.GenerateToken(),
		SavedAt: m.now(),
	}
	if err := m.Store.Put(ctx, owner, snap); err != nil {
		return "", err
	}
	m.Logger.Debug().Str("owner", owner).Int("lines", len(entries)).Msg("saved_cart_put")
	return snap.Token, nil
}

// HasSavedCart reports whether saving is enabled and the owner has a snapshot.
func (m *Manager) HasSavedCart(ctx context.Context, owner string) (bool, error) {
	owner = strings.TrimSpace(owner)
	if !m.IsEnabled() || owner == "" {
		return false, nil
	}
	_, ok, err := m.Store.Get(ctx, owner)
	return ok, err
}

// Restore replaces the contents of c with the owner's snapshot.
// It reports false, leaving c untouched, when saving is disabled or nothing is saved.
// The snapshot is kept until Discard, so callers discard it once the restored cart is persisted.
func (m *Manager) Restore(ctx context.Context, owner string, c *cart.Store) (bool, error) {
	if c == nil {
		return false, ErrCartRequired
	}
	owner = strings.TrimSpace(owner)
	if !m.IsEnabled() || owner == "" {
		obs.SavedCartRestore("disabled")
		return false, nil
	}
	snap, ok, err := m.Store.Get(ctx, owner)
	if err != nil {
		obs.SavedCartRestore("error")
		return false, err
	}
	if !ok {
		obs.SavedCartRestore("empty")
		return false, nil
	}
	c.Replace(snap.Entries)
	obs.SavedCartRestore("restored")
	m.Logger.Debug().Str("owner", owner).Int("lines", len(snap.Entries)).Msg("saved_cart_restore")
	return true, nil
}

// Discard deletes the owner's snapshot. Missing snapshots are not an error.
func (m *Manager) Discard(ctx context.Context, owner string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return ErrOwnerRequired
	}
	if err := m.Store.Delete(ctx, owner); err != nil {
		return err
	}
	m.Logger.Debug().Str("owner", owner).Msg("saved_cart_discard")
	return nil
}
