// Package pricing derives per-line and cart-wide price, discount and tax figures.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/discount"
	"github.com/noah-isme/toko-cart/internal/obs"
	"github.com/noah-isme/toko-cart/internal/settings"
)

// Money is a currency amount.
type Money = decimal.Decimal

// DefaultPlaces is the number of decimal places amounts are rounded to.
const DefaultPlaces int32 = 2

var tracer = otel.Tracer("github.com/noah-isme/toko-cart/internal/pricing")

// TaxConfig controls tax on the discounted base.
type TaxConfig struct {
	Enabled bool
	Rate    decimal.Decimal
}

// TaxFromSettings reads the tax switch and rate.
func TaxFromSettings(p settings.Provider) TaxConfig {
	if p == nil {
		return TaxConfig{}
	}
	return TaxConfig{Enabled: p.Bool(settings.TaxEnabled), Rate: p.Decimal(settings.TaxRate)}
}

// Line is the priced view of one cart entry.
type Line struct {
	Index     int        `json:"index"`
	Name      string     `json:"name"`
	ProductID string     `json:"id"`
	Selector  *int       `json:"selector,omitempty"`
	Quantity  int        `json:"quantity"`
	ItemPrice Money      `json:"item_price"`
	Subtotal  Money      `json:"subtotal"`
	Discount  Money      `json:"discount"`
	Tax       Money      `json:"tax"`
	Price     Money      `json:"price"`
	Fees      []cart.Fee `json:"fees"`
	FeeTotal  Money      `json:"fee_total"`
}

// Summary aggregates the lines of a cart. Total is the sum of line prices; Fees are reported beside it.
type Summary struct {
	Subtotal Money `json:"subtotal"`
	Discount Money `json:"discount"`
	Tax      Money `json:"tax"`
	Fees     Money `json:"fees"`
	Total    Money `json:"total"`
}

// Quote is the full breakdown of a cart.
type Quote struct {
	Lines   []Line  `json:"lines"`
	Summary Summary `json:"summary"`
}

// ItemRef identifies a cart line whose discount is requested. Any missing part yields no discount.
type ItemRef struct {
	ProductID string
	Quantity  int
	Selector  *int
}

// Pipeline prices carts. It never mutates the cart.
// A nil Places rounds to DefaultPlaces; zero is a valid override for whole-unit currencies.
type Pipeline struct {
	Catalog   catalog.Catalog
	Discounts discount.Registry
	Settings  settings.Provider
	Now       func() time.Time
	Places    *int32
	Logger    zerolog.Logger
}

func (p *Pipeline) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) places() int32 {
	if p.Places == nil || *p.Places < 0 {
		return DefaultPlaces
	}
	return *p.Places
}

func (p *Pipeline) round(m Money) Money {
	return m.Round(p.places())
}

// Quote prices every entry of c in position order.
func (p *Pipeline) Quote(ctx context.Context, c *cart.Store) (Quote, error) {
	if p == nil || p.Catalog == nil {
		return Quote{}, errors.New("pricing: catalog not configured")
	}
	ctx, span := tracer.Start(ctx, "pricing.Quote")
	defer span.End()
	start := time.Now()
	defer func() { obs.QuoteDuration(time.Since(start)) }()

	entries := c.Contents()
	span.SetAttributes(attribute.Int("cart.lines", len(entries)))

	base, err := p.base(ctx, entries)
	if err != nil {
		return Quote{}, err
	}

	applied, err := p.applied(ctx, c.Discounts())
	if err != nil {
		return Quote{}, err
	}
	tax := TaxFromSettings(p.Settings)
	now := p.now()

	q := Quote{Lines: make([]Line, 0, len(entries))}
	sum := Summary{Subtotal: decimal.Zero, Discount: decimal.Zero, Tax: decimal.Zero, Fees: decimal.Zero, Total: decimal.Zero}
	for i, e := range entries {
		b := base.lines[i]
		line := p.line(i, e, b, p.lineDiscount(applied, e.ProductID, b.subtotal, base.subtotal, now), tax)
		q.Lines = append(q.Lines, line)
		sum.Subtotal = sum.Subtotal.Add(line.Subtotal)
		sum.Discount = sum.Discount.Add(line.Discount)
		sum.Tax = sum.Tax.Add(line.Tax)
		sum.Fees = sum.Fees.Add(line.FeeTotal)
		sum.Total = sum.Total.Add(line.Price)
	}
	q.Summary = sum
	p.Logger.Debug().
		Int("lines", len(q.Lines)).
		Str("subtotal", sum.Subtotal.StringFixed(p.places())).
		Str("discount", sum.Discount.StringFixed(p.places())).
		Str("tax", sum.Tax.StringFixed(p.places())).
		Str("total", sum.Total.StringFixed(p.places())).
		Msg("pricing_quote")
	return q, nil
}

// line composes one line in fixed order: discount first, then tax on the discounted base.
func (p *Pipeline) line(index int, e cart.Entry, b baseLine, lineDiscount Money, tax TaxConfig) Line {
	taxable := b.subtotal.Sub(lineDiscount)
	lineTax := decimal.Zero
	if tax.Enabled && tax.Rate.IsPositive() {
		lineTax = p.round(taxable.Mul(tax.Rate))
	}
	fees := decimal.Zero
	for _, f := range e.Fees {
		fees = fees.Add(f.Amount)
	}
	return Line{
		Index:     index,
		Name:      ItemName(b.product, e.Selector),
		ProductID: e.ProductID,
		Selector:  e.Selector,
		Quantity:  e.Quantity,
		ItemPrice: b.unit,
		Subtotal:  b.subtotal,
		Discount:  lineDiscount,
		Tax:       lineTax,
		Price:     taxable.Add(lineTax),
		Fees:      append([]cart.Fee{}, e.Fees...),
		FeeTotal:  p.round(fees),
	}
}

func (p *Pipeline) lineDiscount(applied []discount.Discount, productID string, subtotal, cartSubtotal Money, now time.Time) Money {
	if len(applied) == 0 {
		return decimal.Zero
	}
	for _, d := range applied {
		if discount.IsEligible(d, productID, cartSubtotal, now) {
			obs.DiscountEvaluation("eligible")
		} else {
			obs.DiscountEvaluation("ineligible")
		}
	}
	amount := p.round(discount.Total(applied, productID, subtotal, cartSubtotal, now))
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

// applied resolves codes against the registry. Unknown codes contribute nothing.
func (p *Pipeline) applied(ctx context.Context, codes []string) ([]discount.Discount, error) {
	if len(codes) == 0 || p.Discounts == nil {
		return nil, nil
	}
	out := make([]discount.Discount, 0, len(codes))
	for _, code := range codes {
		d, ok, err := p.Discounts.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			obs.DiscountEvaluation("unknown")
			p.Logger.Debug().Str("code", code).Msg("discount_unknown")
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// ItemDiscount returns the discount the cart's applied codes grant to ref. It never fails:
// incomplete references, unknown products and lookup errors all yield zero.
func (p *Pipeline) ItemDiscount(ctx context.Context, c *cart.Store, ref ItemRef) Money {
	if p == nil || p.Catalog == nil || strings.TrimSpace(ref.ProductID) == "" || ref.Quantity < 1 {
		return decimal.Zero
	}
	product, err := p.Catalog.GetProduct(ctx, ref.ProductID)
	if err != nil {
		p.Logger.Debug().Err(err).Str("product_id", ref.ProductID).Msg("item_discount_product")
		return decimal.Zero
	}
	if product.HasVariants() && ref.Selector == nil {
		return decimal.Zero
	}
	unit, err := catalog.Resolve(product, ref.Selector)
	if err != nil {
		return decimal.Zero
	}
	applied, err := p.applied(ctx, c.Discounts())
	if err != nil {
		p.Logger.Warn().Err(err).Msg("item_discount_registry")
		return decimal.Zero
	}
	base, err := p.base(ctx, c.Contents())
	if err != nil {
		return decimal.Zero
	}
	subtotal := p.round(unit.Mul(decimal.NewFromInt(int64(ref.Quantity))))
	return p.lineDiscount(applied, ref.ProductID, subtotal, base.subtotal, p.now())
}

// ItemPrice returns the unit price of the entry at index. It reports false when there is no such entry.
func (p *Pipeline) ItemPrice(ctx context.Context, c *cart.Store, index int) (Money, bool) {
	e, ok := c.Entry(index)
	if !ok || p == nil || p.Catalog == nil {
		return decimal.Zero, false
	}
	product, err := p.Catalog.GetProduct(ctx, e.ProductID)
	if err != nil {
		return decimal.Zero, false
	}
	unit, err := catalog.Resolve(product, e.Selector)
	if err != nil {
		return decimal.Zero, false
	}
	return unit, true
}

type baseLine struct {
	product  catalog.Product
	unit     Money
	subtotal Money
}

type basePrices struct {
	lines    []baseLine
	subtotal Money
}

// base resolves unit prices and undiscounted subtotals for entries.
func (p *Pipeline) base(ctx context.Context, entries []cart.Entry) (basePrices, error) {
	out := basePrices{lines: make([]baseLine, len(entries)), subtotal: decimal.Zero}
	for i, e := range entries {
		product, err := p.Catalog.GetProduct(ctx, e.ProductID)
		if err != nil {
			return basePrices{}, fmt.Errorf("price line %d: %w", i, err)
		}
		unit, err := catalog.Resolve(product, e.Selector)
		if err != nil {
			return basePrices{}, fmt.Errorf("price line %d: %w", i, err)
		}
		subtotal := p.round(unit.Mul(decimal.NewFromInt(int64(e.Quantity))))
		out.lines[i] = baseLine{product: product, unit: unit, subtotal: subtotal}
		out.subtotal = out.subtotal.Add(subtotal)
	}
	return out, nil
}

// ItemName labels a line as "<product> - <option>" for variant lines and "<product>" otherwise.
func ItemName(product catalog.Product, selector *int) string {
	if option := catalog.OptionName(product, selector); option != "" {
		return product.Name + " - " + option
	}
	return product.Name
}
