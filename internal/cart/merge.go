package cart

import "github.com/noah-isme/toko-cart/internal/catalog"

// ShouldMerge decides how a repeated add of the same line behaves. When it returns true the existing
// entry's quantity grows; otherwise every add appends a new entry of quantity 1.
func ShouldMerge(itemQuantitiesEnabled bool, p catalog.Product) bool {
	return itemQuantitiesEnabled && !p.QuantitiesDisabled
}
