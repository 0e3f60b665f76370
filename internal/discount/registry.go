package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/resilience"
)

// ErrInvalidDiscount is returned when a discount definition is malformed.
var ErrInvalidDiscount = errors.New("invalid discount")

// Registry looks discounts up by code.
type Registry interface {
	FindByCode(ctx context.Context, code string) (Discount, bool, error)
}

// Memory is an in-process Registry.
type Memory struct {
	mu       sync.RWMutex
	byCode   map[string]Discount
	validate *validator.Validate
}

// NewMemory returns a Memory registry holding ds.
func NewMemory(ds ...Discount) (*Memory, error) {
	m := &Memory{byCode: make(map[string]Discount, len(ds)), validate: validator.New()}
	for _, d := range ds {
		if err := m.Put(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Put validates and stores d under its normalised code.
func (m *Memory) Put(d Discount) error {
	d.Code = strings.TrimSpace(d.Code)
	if err := m.validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	if d.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidDiscount)
	}
	if d.ProductCondition == ConditionSpecific && len(d.ProductIDs) == 0 {
		return fmt.Errorf("%w: specific product condition without products", ErrInvalidDiscount)
	}
	m.mu.Lock()
	m.byCode[normalize(d.Code)] = d
	m.mu.Unlock()
	return nil
}

// FindByCode implements Registry.
func (m *Memory) FindByCode(_ context.Context, code string) (Discount, bool, error) {
	m.mu.RLock()
	d, ok := m.byCode[normalize(code)]
	m.mu.RUnlock()
	return d, ok, nil
}

// RedisRegistry reads discount definitions stored as JSON under cache.KeyDiscount.
type RedisRegistry struct {
	Cache *cache.JSON
}

// FindByCode implements Registry.
func (r RedisRegistry) FindByCode(ctx context.Context, code string) (Discount, bool, error) {
	if normalize(code) == "" {
		return Discount{}, false, nil
	}
	var d Discount
	ok, err := r.Cache.Get(ctx, cache.KeyDiscount(code), &d)
	if err != nil {
		return Discount{}, false, fmt.Errorf("load discount %q: %w", code, err)
	}
	return d, ok, nil
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Guarded fails fast through a circuit breaker while the wrapped registry keeps erroring.
type Guarded struct {
	Registry Registry
	Breaker  *resilience.Breaker
}

// FindByCode implements Registry.
func (g Guarded) FindByCode(ctx context.Context, code string) (Discount, bool, error) {
	if g.Breaker == nil {
		return g.Registry.FindByCode(ctx, code)
	}
	var (
		d  Discount
		ok bool
	)
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		d, ok, err = g.Registry.FindByCode(ctx, code)
		return err
	})
	if err != nil {
		return Discount{}, false, err
	}
	return d, ok, nil
}
