// Package discount decides whether a discount code applies to a cart line and how much it is worth.
package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind selects how Amount is interpreted.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFlat    Kind = "flat"
)

// Status toggles a discount on or off regardless of its schedule.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Condition scopes a discount to products.
type Condition string

const (
	ConditionAll      Condition = "all"
	ConditionSpecific Condition = "specific"
)

var hundred = decimal.NewFromInt(100)

// Discount is a code that can be applied to a cart.
type Discount struct {
	Code             string           `json:"code" validate:"required"`
	Name             string           `json:"name,omitempty"`
	Kind             Kind             `json:"type" validate:"oneof=percent flat"`
	Amount           decimal.Decimal  `json:"amount"`
	Uses             int              `json:"uses" validate:"gte=0"`
	MaxUses          *int             `json:"max_uses,omitempty"`
	Start            *time.Time       `json:"start,omitempty"`
	Expiration       *time.Time       `json:"expiration,omitempty"`
	MinSubtotal      *decimal.Decimal `json:"min_subtotal,omitempty"`
	Status           Status           `json:"status" validate:"oneof=active inactive"`
	ProductCondition Condition        `json:"product_condition,omitempty" validate:"omitempty,oneof=all specific"`
	ProductIDs       []string         `json:"product_ids,omitempty"`
}

// IsActive reports whether the discount is switched on and now lies inside its inclusive schedule.
func (d Discount) IsActive(now time.Time) bool {
	if d.Status != StatusActive {
		return false
	}
	if d.Start != nil && now.Before(*d.Start) {
		return false
	}
	if d.Expiration != nil && now.After(*d.Expiration) {
		return false
	}
	return true
}

// Exhausted reports whether the usage cap has been reached. A missing or non-positive cap is unlimited.
func (d Discount) Exhausted() bool {
	if d.MaxUses == nil || *d.MaxUses <= 0 {
		return false
	}
	return d.Uses >= *d.MaxUses
}

// AppliesTo reports whether the product condition admits productID.
func (d Discount) AppliesTo(productID string) bool {
	if d.ProductCondition != ConditionSpecific {
		return true
	}
	for _, id := range d.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// MeetsMinimum reports whether cartSubtotal reaches the discount threshold.
func (d Discount) MeetsMinimum(cartSubtotal decimal.Decimal) bool {
	if d.MinSubtotal == nil {
		return true
	}
	return cartSubtotal.GreaterThanOrEqual(*d.MinSubtotal)
}

// SameCode compares discount codes case-insensitively.
func SameCode(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IsEligible reports whether d may reduce the line of productID. Every condition must hold.
func IsEligible(d Discount, productID string, cartSubtotal decimal.Decimal, now time.Time) bool {
	return d.IsActive(now) &&
		!d.Exhausted() &&
		d.AppliesTo(productID) &&
		d.MeetsMinimum(cartSubtotal)
}

// AmountFor returns the reduction d grants on lineSubtotal, never more than lineSubtotal and never negative.
// Eligibility is the caller's concern.
func AmountFor(d Discount, lineSubtotal decimal.Decimal) decimal.Decimal {
	if !lineSubtotal.IsPositive() || !d.Amount.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch d.Kind {
	case KindPercent:
		amount = lineSubtotal.Mul(d.Amount).Div(hundred)
	case KindFlat:
		amount = d.Amount
	default:
		return decimal.Zero
	}
	return decimal.Min(amount, lineSubtotal)
}

// Total sums the eligible amounts of ds for one line and caps the result at lineSubtotal.
// Codes are summed in the order given, before the cap is applied.
func Total(ds []Discount, productID string, lineSubtotal, cartSubtotal decimal.Decimal, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		if !IsEligible(d, productID, cartSubtotal, now) {
			continue
		}
		total = total.Add(AmountFor(d, lineSubtotal))
	}
	if total.GreaterThan(lineSubtotal) {
		total = lineSubtotal
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
