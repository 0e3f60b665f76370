package cart

import (
	"strings"

	"github.com/noah-isme/toko-cart/internal/discount"
)

// SetDiscount applies code to the cart. Applying a code twice is a no-op.
func (s *Store) SetDiscount(code string) []string {
	code = strings.TrimSpace(code)
	if code != "" && !s.HasDiscount(code) {
		s.discounts = append(s.discounts, strings.ToUpper(code))
	}
	return s.Discounts()
}

// UnsetDiscount removes code from the cart. Removing an absent code is a no-op.
func (s *Store) UnsetDiscount(code string) []string {
	kept := s.discounts[:0:0]
	for _, c := range s.discounts {
		if !discount.SameCode(c, code) {
			kept = append(kept, c)
		}
	}
	s.discounts = kept
	return s.Discounts()
}

// HasDiscount reports whether code is applied.
func (s *Store) HasDiscount(code string) bool {
	for _, c := range s.discounts {
		if discount.SameCode(c, code) {
			return true
		}
	}
	return false
}

// Discounts returns the applied codes in the order they were applied.
func (s *Store) Discounts() []string {
	return append([]string(nil), s.discounts...)
}
