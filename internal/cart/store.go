// Package cart holds the ordered, densely indexed line items of a shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/obs"
	"github.com/noah-isme/toko-cart/internal/settings"
)

var (
	// ErrItemNotFound is returned when no entry has the requested identity.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrIndexOutOfRange is returned when a position is not a current cart key.
	ErrIndexOutOfRange = errors.New("cart index out of range")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidSelector is returned when a selector list cannot be parsed.
	ErrInvalidSelector = errors.New("invalid variant selector")
)

// Store owns the entries of one cart and the discount codes applied to it.
// Positions are always 0..n-1. A Store is not safe for concurrent use.
type Store struct {
	Catalog  catalog.Catalog
	Settings settings.Provider
	Logger   zerolog.Logger

	entries   []Entry
	discounts []string
}

// NewStore returns an empty cart.
func NewStore(cat catalog.Catalog, set settings.Provider, logger zerolog.Logger) *Store {
	return &Store{Catalog: cat, Settings: set, Logger: logger}
}

func (s *Store) quantitiesEnabled() bool {
	return s.Settings != nil && s.Settings.Bool(settings.ItemQuantitiesEnabled)
}

// Add puts one line per requested selector into the cart and returns the position of the last one touched.
// Nothing is added when any selector fails to resolve.
func (s *Store) Add(ctx context.Context, productID string, opts AddOptions) (int, error) {
	index, err := s.add(ctx, productID, opts)
	obs.CartMutation("add", err)
	return index, err
}

func (s *Store) add(ctx context.Context, productID string, opts AddOptions) (int, error) {
	if s.Catalog == nil {
		return -1, errors.New("cart: catalog not configured")
	}
	productID = strings.TrimSpace(productID)
	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return -1, err
	}
	reqs, err := opts.requests()
	if err != nil {
		return -1, err
	}
	for i := range reqs {
		if reqs[i].selector == nil {
			if def, ok := catalog.DefaultSelector(product); ok {
				reqs[i].selector = Selector(def)
			}
		}
		if _, err := catalog.Resolve(product, reqs[i].selector); err != nil {
			return -1, err
		}
	}

	merge := ShouldMerge(s.quantitiesEnabled(), product)
	last := -1
	for _, req := range reqs {
		if merge {
			if i := s.indexOf(productID, req.selector); i >= 0 {
				s.entries[i].Quantity += req.quantity
				last = i
				continue
			}
		} else {
			req.quantity = 1
		}
		entry := Entry{ProductID: productID, Selector: req.selector, Quantity: req.quantity}
		if len(opts.Fees) > 0 {
			entry.Fees = append([]Fee(nil), opts.Fees...)
		}
		s.entries = append(s.entries, entry)
		last = len(s.entries) - 1
	}
	s.Logger.Debug().
		Str("product_id", productID).
		Int("lines", len(reqs)).
		Int("index", last).
		Bool("merge", merge).
		Msg("cart_add")
	return last, nil
}

// QuantityOf returns the quantity of the first entry with the given identity, or 0.
// Duplicate rows are never summed.
func (s *Store) QuantityOf(productID string, selector *int) int {
	if i := s.indexOf(productID, selector); i >= 0 {
		return s.entries[i].Quantity
	}
	return 0
}

// SetQuantity updates the first entry with the given identity.
func (s *Store) SetQuantity(productID string, selector *int, quantity int) error {
	err := s.setQuantity(productID, selector, quantity)
	obs.CartMutation("set_quantity", err)
	return err
}

func (s *Store) setQuantity(productID string, selector *int, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("set quantity %d: %w", quantity, ErrInvalidQuantity)
	}
	i := s.indexOf(productID, selector)
	if i < 0 {
		return fmt.Errorf("product %q: %w", productID, ErrItemNotFound)
	}
	s.entries[i].Quantity = quantity
	return nil
}

// Remove deletes the entry at index, shifts every later entry down by one and returns the new contents.
func (s *Store) Remove(index int) ([]Entry, error) {
	if index < 0 || index >= len(s.entries) {
		err := fmt.Errorf("remove %d: %w", index, ErrIndexOutOfRange)
		obs.CartMutation("remove", err)
		return nil, err
	}
	next := make([]Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:index]...)
	next = append(next, s.entries[index+1:]...)
	s.entries = next
	obs.CartMutation("remove", nil)
	s.Logger.Debug().Int("index", index).Int("remaining", len(next)).Msg("cart_remove")
	return s.Contents(), nil
}

// Contents returns a copy of the entries in position order.
func (s *Store) Contents() []Entry {
	return cloneEntries(s.entries)
}

// Entry returns the entry at index.
func (s *Store) Entry(index int) (Entry, bool) {
	if index < 0 || index >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[index].clone(), true
}

// Replace swaps the whole contents for entries. Quantities below one are raised to one.
func (s *Store) Replace(entries []Entry) {
	s.entries = normalized(entries)
	obs.CartMutation("replace", nil)
}

func normalized(entries []Entry) []Entry {
	next := cloneEntries(entries)
	for i := range next {
		if next[i].Quantity < 1 {
			next[i].Quantity = 1
		}
	}
	return next
}

// Clear empties the cart and drops applied discounts.
func (s *Store) Clear() {
	s.entries = nil
	s.discounts = nil
	obs.CartMutation("clear", nil)
}

// Contains reports whether an entry with the given identity exists.
func (s *Store) Contains(productID string, selector *int) bool {
	return s.indexOf(productID, selector) >= 0
}

// IsEmpty reports whether the cart has no entries.
func (s *Store) IsEmpty() bool { return len(s.entries) == 0 }

// Count returns the number of entries.
func (s *Store) Count() int { return len(s.entries) }

// TotalQuantity sums the quantities of all entries.
func (s *Store) TotalQuantity() int {
	total := 0
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

func (s *Store) indexOf(productID string, selector *int) int {
	for i, e := range s.entries {
		if e.Matches(productID, selector) {
			return i
		}
	}
	return -1
}
