package cart

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectorDelimiter separates selectors in AddOptions.SelectorList.
const SelectorDelimiter = ","

// AddOptions describes which variants of a product to add and how many of each.
// At most one of Selectors, SelectorList and Selector is consulted, in that order.
type AddOptions struct {
	Selector     *int
	Selectors    []int
	SelectorList string
	// Quantity applies when a single line is added.
	Quantity int
	// Quantities is aligned with the selectors; missing positions default to 1.
	Quantities []int
	Fees       []Fee
}

type addRequest struct {
	selector *int
	quantity int
}

// ParseSelectors splits a delimiter separated list such as "0,1" into selectors.
func ParseSelectors(list string) ([]int, error) {
	parts := strings.Split(list, SelectorDelimiter)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		v, err := strconv.Atoi(trimmed)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("selector %q: %w", trimmed, ErrInvalidSelector)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("selector list %q: %w", list, ErrInvalidSelector)
	}
	return out, nil
}

func (o AddOptions) requests() ([]addRequest, error) {
	var selectors []*int
	switch {
	case len(o.Selectors) > 0:
		for _, s := range o.Selectors {
			selectors = append(selectors, Selector(s))
		}
	case strings.TrimSpace(o.SelectorList) != "":
		parsed, err := ParseSelectors(o.SelectorList)
		if err != nil {
			return nil, err
		}
		for _, s := range parsed {
			selectors = append(selectors, Selector(s))
		}
	case o.Selector != nil:
		selectors = []*int{Selector(*o.Selector)}
	default:
		selectors = []*int{nil}
	}

	reqs := make([]addRequest, len(selectors))
	for i, sel := range selectors {
		qty := 1
		switch {
		case len(o.Quantities) > 0:
			if i < len(o.Quantities) {
				qty = o.Quantities[i]
			}
		case len(selectors) == 1 && o.Quantity > 0:
			qty = o.Quantity
		}
		if qty < 1 {
			qty = 1
		}
		reqs[i] = addRequest{selector: sel, quantity: qty}
	}
	return reqs, nil
}
