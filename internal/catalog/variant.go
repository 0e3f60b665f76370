package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownVariant is returned when a selector names no price option of the product.
var ErrUnknownVariant = errors.New("unknown variant")

// Resolve returns the unit price for the product at the given selector.
// A nil selector resolves to the flat price, or to the default option when the product has variants.
func Resolve(p Product, selector *int) (decimal.Decimal, error) {
	if selector == nil {
		def, ok := DefaultSelector(p)
		if !ok {
			return p.Price, nil
		}
		selector = &def
	}
	opt, ok := p.Option(*selector)
	if !ok {
		return decimal.Zero, fmt.Errorf("product %q option %d: %w", p.ID, *selector, ErrUnknownVariant)
	}
	return opt.Amount, nil
}

// DefaultSelector returns the option used when a variant product is added without a selector.
func DefaultSelector(p Product) (int, bool) {
	if !p.HasVariants() {
		return 0, false
	}
	if p.DefaultOption != nil {
		if _, ok := p.Option(*p.DefaultOption); ok {
			return *p.DefaultOption, true
		}
	}
	return p.Options[0].Index, true
}

// OptionName returns the display name of the option at selector, or "" for flat-priced lines.
func OptionName(p Product, selector *int) string {
	if selector == nil {
		return ""
	}
	opt, ok := p.Option(*selector)
	if !ok {
		return ""
	}
	return opt.Name
}
