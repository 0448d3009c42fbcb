// Package catalog holds the product catalog: what is for sale, at what
// price, and which bulk discount applies. Products are loaded once per
// session from an external source and treated as immutable until the next
// refresh.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Kind separates the two disjoint product namespaces. A merchandise item
// and a product may share an identifier without colliding.
type Kind string

const (
	KindProduct     Kind = "product"
	KindMerchandise Kind = "merchandise"
)

// ParseKind maps a wire string to a Kind, defaulting to KindProduct for
// anything unrecognised.
func ParseKind(s string) Kind {
	if s == string(KindMerchandise) {
		return KindMerchandise
	}
	return KindProduct
}

// DiscountRule is a per-product bulk discount: once the aggregate quantity
// across all flavours reaches Threshold, PercentOff is taken off the whole
// group subtotal.
type DiscountRule struct {
	Threshold  int
	PercentOff decimal.Decimal
}

// Valid reports whether the rule can ever discount anything. Negative or
// zero thresholds and percentages are treated as "no discount" rather than
// errors, so malformed catalog data degrades conservatively.
func (r DiscountRule) Valid() bool {
	return r.Threshold > 0 && r.PercentOff.IsPositive()
}

// Product is a single catalog entry, read-only within a session.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Flavours    []string
	Discount    *DiscountRule
}

// Catalog is an immutable snapshot of everything a storefront sells plus
// its delivery addresses. Lookups are indexed by (kind, id).
type Catalog struct {
	Products  []Product
	Merch     []Product
	Addresses []string

	index map[indexKey]*Product
}

type indexKey struct {
	kind Kind
	id   string
}

// New builds a Catalog and its lookup index. Products with a negative
// price are kept but clamped to zero.
func New(products, merch []Product, addresses []string) *Catalog {
	c := &Catalog{
		Products:  products,
		Merch:     merch,
		Addresses: addresses,
		index:     make(map[indexKey]*Product, len(products)+len(merch)),
	}
	for i := range c.Products {
		if c.Products[i].Price.IsNegative() {
			c.Products[i].Price = decimal.Zero
		}
		c.index[indexKey{KindProduct, c.Products[i].ID}] = &c.Products[i]
	}
	for i := range c.Merch {
		if c.Merch[i].Price.IsNegative() {
			c.Merch[i].Price = decimal.Zero
		}
		c.index[indexKey{KindMerchandise, c.Merch[i].ID}] = &c.Merch[i]
	}
	return c
}

// Empty returns a catalog with no products. Pricing against it still
// works: every cart line falls back to its snapshot price.
func Empty() *Catalog {
	return New(nil, nil, nil)
}

// Find returns the product for (kind, id), or nil when it is not in the
// catalog.
func (c *Catalog) Find(kind Kind, id string) *Product {
	if c == nil {
		return nil
	}
	return c.index[indexKey{kind, id}]
}

// Source fetches a full catalog snapshot. Implementations live outside the
// domain: a static JSON file, or an HTTP endpoint backed by a spreadsheet.
type Source interface {
	Fetch(ctx context.Context) (*Catalog, error)
}
