// Package settings exposes the runtime feature switches consulted by the cart engine.
package settings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Setting keys understood by the engine. A missing key means the feature is off or the value is zero.
const (
	ItemQuantitiesEnabled = "item_quantities_enabled"
	TaxEnabled            = "tax_enabled"
	TaxRate               = "tax_rate"
	CartSavingEnabled     = "cart_saving_enabled"
)

// EnvPrefix is stripped from environment variables when seeding settings.
const EnvPrefix = "CART_"

// Provider reads and writes named settings.
type Provider interface {
	Bool(key string) bool
	Decimal(key string) decimal.Decimal
	Set(key string, value any) error
	Delete(key string)
}

// Store is a Provider backed by a koanf instance.
type Store struct {
	mu sync.RWMutex
	k  *koanf.Koanf
}

// New returns an empty Store.
func New() *Store {
	return &Store{k: koanf.New(".")}
}

// FromEnv returns a Store seeded from CART_* environment variables, e.g. CART_TAX_RATE=0.2.
func FromEnv() (*Store, error) {
	s := New()
	cb := func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	}
	if err := s.k.Load(env.Provider(EnvPrefix, ".", cb), nil); err != nil {
		return nil, fmt.Errorf("load settings env: %w", err)
	}
	return s, nil
}

// Bool reports whether key is set to a truthy value.
func (s *Store) Bool(key string) bool {
	s.mu.RLock()
	v := s.k.Get(key)
	s.mu.RUnlock()
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return parseBool(val)
	default:
		return false
	}
}

// Decimal returns the numeric value of key, or zero when it is absent or malformed.
func (s *Store) Decimal(key string) decimal.Decimal {
	s.mu.RLock()
	v := s.k.Get(key)
	s.mu.RUnlock()
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case float64:
		return decimal.NewFromFloat(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Set stores value under key.
func (s *Store) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("settings: key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.k.Set(key, value)
}

// Delete removes key so the feature reverts to its default.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.k.Delete(key)
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
