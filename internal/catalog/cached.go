package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-cart/internal/cache"
)

// Cached is a read-through Redis cache in front of another Catalog.
type Cached struct {
	Source Catalog
	Cache  *cache.JSON
	Logger zerolog.Logger
}

// GetProduct implements Catalog.
func (c *Cached) GetProduct(ctx context.Context, id string) (Product, error) {
	key := cache.KeyProduct(id)
	var p Product
	hit, err := c.Cache.Get(ctx, key, &p)
	if err != nil {
		c.Logger.Warn().Err(err).Str("product_id", id).Msg("catalog_cache_get")
	}
	if hit {
		return p, nil
	}
	p, err = c.Source.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := c.Cache.Set(ctx, key, p); err != nil {
		c.Logger.Warn().Err(err).Str("product_id", id).Msg("catalog_cache_set")
	}
	return p, nil
}
