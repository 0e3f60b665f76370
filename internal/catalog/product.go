package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when the catalog has no product with the requested identifier.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned when a product definition is malformed.
	ErrInvalidProduct = errors.New("invalid product")
)

// PriceOption is a named, priced variant of a product. Index is the selector used by cart entries.
type PriceOption struct {
	Index  int             `json:"index" validate:"gte=0"`
	Name   string          `json:"name" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// Product is the catalog view consumed by the cart.
type Product struct {
	ID                 string          `json:"id" validate:"required"`
	Name               string          `json:"name" validate:"required"`
	Price              decimal.Decimal `json:"price"`
	Options            []PriceOption   `json:"options,omitempty" validate:"dive"`
	DefaultOption      *int            `json:"default_option,omitempty"`
	QuantitiesDisabled bool            `json:"quantities_disabled"`
}

// HasVariants reports whether the product is sold through price options.
func (p Product) HasVariants() bool {
	return len(p.Options) > 0
}

// Option returns the price option with the given index.
func (p Product) Option(index int) (PriceOption, bool) {
	for _, opt := range p.Options {
		if opt.Index == index {
			return opt, true
		}
	}
	return PriceOption{}, false
}

// Catalog looks up products by identifier.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}

// Memory is an in-process Catalog.
type Memory struct {
	mu       sync.RWMutex
	products map[string]Product
	validate *validator.Validate
}

// NewMemory returns a Memory catalog holding the given products.
func NewMemory(products ...Product) (*Memory, error) {
	m := &Memory{products: make(map[string]Product, len(products)), validate: validator.New()}
	for _, p := range products {
		if err := m.Put(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Put validates and stores p, replacing any product with the same identifier.
func (m *Memory) Put(p Product) error {
	p.ID = strings.TrimSpace(p.ID)
	if err := m.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidProduct)
	}
	seen := make(map[int]struct{}, len(p.Options))
	for _, opt := range p.Options {
		if opt.Amount.IsNegative() {
			return fmt.Errorf("%w: option %d has a negative amount", ErrInvalidProduct, opt.Index)
		}
		if _, dup := seen[opt.Index]; dup {
			return fmt.Errorf("%w: duplicate option index %d", ErrInvalidProduct, opt.Index)
		}
		seen[opt.Index] = struct{}{}
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return nil
}

// GetProduct implements Catalog.
func (m *Memory) GetProduct(_ context.Context, id string) (Product, error) {
	m.mu.RLock()
	p, ok := m.products[strings.TrimSpace(id)]
	m.mu.RUnlock()
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", id, ErrProductNotFound)
	}
	return p, nil
}
