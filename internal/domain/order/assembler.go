package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stelliesdp/storefront/internal/domain/cart"
	"github.com/stelliesdp/storefront/internal/domain/catalog"
	"github.com/stelliesdp/storefront/internal/domain/pricing"
	"github.com/stelliesdp/storefront/internal/kv"
)

// Fields holds the shopper-entered checkout form values. Numeric coercion
// (tip parsing) happens at the HTTP boundary; by the time Fields reaches
// the assembler the tip is a decimal, with negative values clamped to zero
// here as the documented lenient default.
type Fields struct {
	Name         string
	Phone        string
	Email        string
	Delivery     string
	Notes        string
	Tip          decimal.Decimal
	PaymentToken string
}

// Receipt is the outcome of a checkout. Queued reports that external
// submission failed and the payload landed in the pending-orders queue;
// the shopper is still confirmed either way (optimistic checkout — the
// alternative, blocking a shopper mid-purchase, was judged worse than a
// locally queued order).
type Receipt struct {
	Payload Payload
	Queued  bool
	Message string
}

// CatalogProvider supplies the current catalog snapshot for pricing.
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// groupKey matches payload lines to their priced group.
type groupKey struct {
	id   string
	kind catalog.Kind
}

// Assembler turns the priced cart plus checkout fields into an immutable
// Payload, generates the device-local order number, and hands the payload
// to the submission sink.
type Assembler struct {
	carts   *cart.Store
	catalog CatalogProvider
	store   kv.Store
	sink    Sink
	prefix  string
	now     func() time.Time
}

// NewAssembler creates an Assembler. prefix is the storefront-specific
// order number prefix (e.g. "SDP").
func NewAssembler(carts *cart.Store, cat CatalogProvider, store kv.Store, sink Sink, prefix string) *Assembler {
	return &Assembler{
		carts:   carts,
		catalog: cat,
		store:   store,
		sink:    sink,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Checkout validates the shopper fields, prices the cart, assembles the
// payload, and submits it once. Submission failure does not fail the
// checkout: the payload is queued locally and the receipt reports
// Queued=true. On confirmation the cart is snapshotted as the last order
// and cleared.
func (a *Assembler) Checkout(ctx context.Context, f Fields) (*Receipt, error) {
	lines := a.carts.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if strings.TrimSpace(f.Name) == "" {
		return nil, &FieldError{Field: "name"}
	}
	// At least one contact channel is mandatory.
	if strings.TrimSpace(f.Phone) == "" && strings.TrimSpace(f.Email) == "" {
		return nil, &FieldError{Field: "phone or email"}
	}
	if strings.TrimSpace(f.Delivery) == "" {
		return nil, &FieldError{Field: "delivery"}
	}

	tip := f.Tip
	if tip.IsNegative() {
		tip = decimal.Zero
	}

	totals := pricing.Compute(lines, a.catalog.Current())

	number, err := a.nextOrderNumber()
	if err != nil {
		return nil, errors.Wrap(err, "generate order number")
	}

	// Itemize with the unit prices the totals were computed from, so the
	// payload reconciles even when the catalog repriced a line mid-session.
	resolved := make(map[groupKey]pricing.GroupTotal, len(totals.Breakdown))
	for _, g := range totals.Breakdown {
		resolved[groupKey{id: g.ProductID, kind: g.Kind}] = g
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		name, price := l.Name, l.UnitPrice
		if g, ok := resolved[groupKey{id: l.ProductID, kind: l.Kind}]; ok {
			name, price = g.Name, g.UnitPrice
		}
		items[i] = Item{
			ItemName: name,
			Flavour:  l.Flavour,
			Qty:      l.Quantity,
			Price:    price.Round(2).InexactFloat64(),
		}
	}

	p := Payload{
		OrderNumber:  number,
		Name:         strings.TrimSpace(f.Name),
		Phone:        strings.TrimSpace(f.Phone),
		Email:        strings.TrimSpace(f.Email),
		Delivery:     strings.TrimSpace(f.Delivery),
		Tip:          tip.Round(2).InexactFloat64(),
		Notes:        strings.TrimSpace(f.Notes),
		Items:        items,
		Total:        totals.Final.Add(tip).Round(2).InexactFloat64(),
		Timestamp:    a.now().UTC(),
		PaymentToken: f.PaymentToken,
	}

	receipt := &Receipt{Payload: p}

	res, err := a.sink.Submit(ctx, p)
	switch {
	case err != nil:
		zctx.From(ctx).Warn("Order submission failed, queueing locally",
			zap.String("order_number", number), zap.Error(err))
		receipt.Queued = true
		receipt.Message = "saved offline"
		if qErr := a.enqueuePending(p); qErr != nil {
			return nil, errors.Wrap(qErr, "queue pending order")
		}
	case !res.Success:
		zctx.From(ctx).Warn("Order submission rejected, queueing locally",
			zap.String("order_number", number), zap.String("message", res.Message))
		receipt.Queued = true
		receipt.Message = res.Message
		if qErr := a.enqueuePending(p); qErr != nil {
			return nil, errors.Wrap(qErr, "queue pending order")
		}
	default:
		receipt.Message = res.Message
	}

	// Optimistic confirmation: snapshot for repeat-order, then clear.
	if err := a.carts.SnapshotLastOrder(); err != nil {
		return nil, errors.Wrap(err, "snapshot last order")
	}
	if err := a.carts.Clear(); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	return receipt, nil
}

// nextOrderNumber reads, increments, and persists the order counter, then
// formats it as PREFIX-NNNN. Two concurrent devices can race this counter
// and mint the same number; that is accepted because the number is
// cosmetic, not a uniqueness guarantee enforced by any backend.
func (a *Assembler) nextOrderNumber() (string, error) {
	var count int
	if err := a.store.Get(kv.KeyOrderCount, &count); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return "", errors.Wrap(err, "read order counter")
	}
	count++
	if err := a.store.Set(kv.KeyOrderCount, count); err != nil {
		return "", errors.Wrap(err, "persist order counter")
	}
	return fmt.Sprintf("%s-%04d", a.prefix, count), nil
}

// enqueuePending appends p to the pending-orders queue. The queue is never
// retried automatically; an operator drains it with the export tool.
func (a *Assembler) enqueuePending(p Payload) error {
	var pending []Payload
	if err := a.store.Get(kv.KeyPendingOrders, &pending); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return errors.Wrap(err, "read pending orders")
	}
	pending = append(pending, p)
	if err := a.store.Set(kv.KeyPendingOrders, pending); err != nil {
		return errors.Wrap(err, "persist pending orders")
	}
	return nil
}

// PendingOrders returns the queued payloads awaiting manual resubmission.
func PendingOrders(store kv.Store) ([]Payload, error) {
	var pending []Payload
	if err := store.Get(kv.KeyPendingOrders, &pending); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read pending orders")
	}
	return pending, nil
}
