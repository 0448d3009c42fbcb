// Package pricing computes order totals from cart lines and the live
// product catalog. Compute is a pure function and never fails: malformed
// cart or catalog data degrades to the most conservative interpretation
// (snapshot price, no discount) because the storefront must always be able
// to show some total.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/stelliesdp/storefront/internal/domain/cart"
	"github.com/stelliesdp/storefront/internal/domain/catalog"
)

var hundred = decimal.NewFromInt(100)

// GroupTotal is the per-product breakdown entry shown at checkout.
// Quantity aggregates every flavour of the product; the discount, when
// triggered, applies to the whole group subtotal.
type GroupTotal struct {
	ProductID string
	Kind      catalog.Kind
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Final     decimal.Decimal
}

// Totals is the reconciled result of pricing a cart.
type Totals struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Final     decimal.Decimal
	Breakdown []GroupTotal
}

// groupKey identifies one (ProductID, Kind) aggregate.
type groupKey struct {
	id   string
	kind catalog.Kind
}

// group carries the working state for one (ProductID, Kind) aggregate.
type group struct {
	id        string
	kind      catalog.Kind
	name      string
	unitPrice decimal.Decimal
	quantity  int
	rule      *catalog.DiscountRule
}

// Compute prices the given cart lines against the catalog.
//
// Lines are grouped by (ProductID, Kind) — never by display name, which
// would silently merge distinct products that happen to share one. The
// unit price and discount rule come from the live catalog; a product that
// has disappeared from the catalog falls back to the price snapshot on its
// first line and gets no discount. Discount eligibility is evaluated on
// the total quantity across all flavours of the product, and the threshold
// is inclusive: quantity == threshold triggers the discount.
//
// No rounding happens here; callers round to two decimals at presentation
// time so rounding error never compounds across groups.
func Compute(lines []cart.Line, cat *catalog.Catalog) Totals {
	groups := make(map[groupKey]*group)
	var order []groupKey

	for _, l := range lines {
		// Zero-quantity lines should already be pruned by the cart
		// store; re-filter here anyway.
		if l.Quantity <= 0 {
			continue
		}

		key := groupKey{id: l.ProductID, kind: l.Kind}
		g, ok := groups[key]
		if !ok {
			g = &group{
				id:        l.ProductID,
				kind:      l.Kind,
				name:      l.Name,
				unitPrice: l.UnitPrice,
			}
			if p := cat.Find(l.Kind, l.ProductID); p != nil {
				g.name = p.Name
				g.unitPrice = p.Price
				g.rule = p.Discount
			}
			if g.unitPrice.IsNegative() {
				g.unitPrice = decimal.Zero
			}
			groups[key] = g
			order = append(order, key)
		}
		g.quantity += l.Quantity
	}

	t := Totals{
		Subtotal:  decimal.Zero,
		Discount:  decimal.Zero,
		Final:     decimal.Zero,
		Breakdown: make([]GroupTotal, 0, len(order)),
	}

	for _, key := range order {
		g := groups[key]

		subtotal := g.unitPrice.Mul(decimal.NewFromInt(int64(g.quantity)))
		discount := groupDiscount(g, subtotal)
		final := subtotal.Sub(discount)

		t.Subtotal = t.Subtotal.Add(subtotal)
		t.Discount = t.Discount.Add(discount)
		t.Breakdown = append(t.Breakdown, GroupTotal{
			ProductID: g.id,
			Kind:      g.kind,
			Name:      g.name,
			UnitPrice: g.unitPrice,
			Quantity:  g.quantity,
			Subtotal:  subtotal,
			Discount:  discount,
			Final:     final,
		})
	}

	t.Final = t.Subtotal.Sub(t.Discount)
	return t
}

// groupDiscount returns the all-or-nothing bulk reduction for the group,
// or zero when the rule is absent, invalid, or the threshold is unmet.
func groupDiscount(g *group, subtotal decimal.Decimal) decimal.Decimal {
	if g.rule == nil || !g.rule.Valid() {
		return decimal.Zero
	}
	if g.quantity < g.rule.Threshold {
		return decimal.Zero
	}

	percent := g.rule.PercentOff
	if percent.GreaterThan(hundred) {
		percent = hundred
	}
	return subtotal.Mul(percent).Div(hundred)
}
