package cart

import (
	"context"
	"fmt"

	"github.com/noah-isme/toko-cart/internal/cache"
)

// Snapshot is the persisted form of a live cart.
type Snapshot struct {
	Entries   []Entry  `json:"entries"`
	Discounts []string `json:"discounts,omitempty"`
}

// Snapshot captures the current contents and applied discounts.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Entries: s.Contents(), Discounts: s.Discounts()}
}

// Load replaces the cart state with snap.
func (s *Store) Load(snap Snapshot) {
	s.entries = normalized(snap.Entries)
	s.discounts = nil
	for _, code := range snap.Discounts {
		s.SetDiscount(code)
	}
}

// Repository persists the live cart of each session.
type Repository interface {
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisRepository keeps session carts as JSON slots in Redis.
type RedisRepository struct {
	Cache *cache.JSON
}

// Load returns the stored cart, or an empty one when the session has none.
func (r RedisRepository) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	var snap Snapshot
	if _, err := r.Cache.Get(ctx, cache.KeyCart(sessionID), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("load cart %q: %w", sessionID, err)
	}
	return snap, nil
}

// Save overwrites the stored cart.
func (r RedisRepository) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	if err := r.Cache.Set(ctx, cache.KeyCart(sessionID), snap); err != nil {
		return fmt.Errorf("save cart %q: %w", sessionID, err)
	}
	return nil
}

// Delete drops the stored cart.
func (r RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.Cache.Delete(ctx, cache.KeyCart(sessionID)); err != nil {
		return fmt.Errorf("delete cart %q: %w", sessionID, err)
	}
	return nil
}
