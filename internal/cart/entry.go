package cart

import "github.com/shopspring/decimal"

// Fee is a flat amount attached to a cart line. Fees are neither discounted nor taxed.
type Fee struct {
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label"`
}

// Entry is one line of the cart. Entries with equal ProductID and Selector are the same line item.
type Entry struct {
	ProductID string `json:"id"`
	Selector  *int   `json:"selector,omitempty"`
	Quantity  int    `json:"quantity"`
	Fees      []Fee  `json:"fees,omitempty"`
}

// Matches reports whether e has the identity (productID, selector).
func (e Entry) Matches(productID string, selector *int) bool {
	return e.ProductID == productID && sameSelector(e.Selector, selector)
}

// Selector returns a pointer to i for use as an entry selector.
func Selector(i int) *int {
	return &i
}

func sameSelector(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (e Entry) clone() Entry {
	out := Entry{ProductID: e.ProductID, Quantity: e.Quantity}
	if e.Selector != nil {
		out.Selector = Selector(*e.Selector)
	}
	if len(e.Fees) > 0 {
		out.Fees = append([]Fee(nil), e.Fees...)
	}
	return out
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}
