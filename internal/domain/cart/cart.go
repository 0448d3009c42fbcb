// Package cart holds the shopper's in-progress order: a durable collection
// of selected lines with controlled mutation primitives. All mutations
// re-persist the full cart so a restart (or a new page load, in the
// original storefronts) picks up where the shopper left off.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/stelliesdp/storefront/internal/domain/catalog"
)

// Line is one shopper selection. Name and UnitPrice are denormalized
// snapshots taken at selection time; a catalog change mid-session does not
// retroactively alter an added line until the pricing engine recomputes it
// against the live catalog.
type Line struct {
	ProductID string          `json:"productId"`
	Kind      catalog.Kind    `json:"kind"`
	Name      string          `json:"itemName"`
	Flavour   string          `json:"flavour"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Key is the identity of a line within the cart. At most one line exists
// per (ProductID, Kind, Flavour) triple; flavours of the same product are
// separate lines that the pricing engine later aggregates.
type Key struct {
	ProductID string
	Kind      catalog.Kind
	Flavour   string
}

// LineKey returns the identity key of l.
func (l Line) LineKey() Key {
	return Key{ProductID: l.ProductID, Kind: l.Kind, Flavour: l.Flavour}
}
