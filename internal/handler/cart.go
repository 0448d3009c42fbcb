package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/stelliesdp/storefront/internal/domain/cart"
	"github.com/stelliesdp/storefront/internal/domain/catalog"
	"github.com/stelliesdp/storefront/internal/domain/pricing"
)

// lineResponse is the wire shape of one cart line.
type lineResponse struct {
	ProductID string  `json:"productId"`
	Kind      string  `json:"kind"`
	ItemName  string  `json:"itemName"`
	Flavour   string  `json:"flavour"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

func toLineResponses(lines []cart.Line) []lineResponse {
	out := make([]lineResponse, len(lines))
	for i, l := range lines {
		out[i] = lineResponse{
			ProductID: l.ProductID,
			Kind:      string(l.Kind),
			ItemName:  l.Name,
			Flavour:   l.Flavour,
			Qty:       l.Quantity,
			Price:     l.UnitPrice.Round(2).InexactFloat64(),
		}
	}
	return out
}

// totalsResponse rounds the pricing output to two decimals for display.
type totalsResponse struct {
	Subtotal  float64         `json:"subtotal"`
	Discount  float64         `json:"totalDiscount"`
	Final     float64         `json:"finalTotal"`
	Breakdown []groupResponse `json:"breakdown"`
}

type groupResponse struct {
	ProductID string  `json:"productId"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Final     float64 `json:"final"`
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	resp := totalsResponse{
		Subtotal:  t.Subtotal.Round(2).InexactFloat64(),
		Discount:  t.Discount.Round(2).InexactFloat64(),
		Final:     t.Final.Round(2).InexactFloat64(),
		Breakdown: make([]groupResponse, len(t.Breakdown)),
	}
	for i, g := range t.Breakdown {
		resp.Breakdown[i] = groupResponse{
			ProductID: g.ProductID,
			Kind:      string(g.Kind),
			Name:      g.Name,
			Qty:       g.Quantity,
			Subtotal:  g.Subtotal.Round(2).InexactFloat64(),
			Discount:  g.Discount.Round(2).InexactFloat64(),
			Final:     g.Final.Round(2).InexactFloat64(),
		}
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	lines := h.carts.Lines()
	totals := pricing.Compute(lines, h.catalog.Current())

	writeJSON(w, http.StatusOK, map[string]any{
		"lines":  toLineResponses(lines),
		"totals": toTotalsResponse(totals),
	})
}

func (h *Handler) getTotals(w http.ResponseWriter, r *http.Request) {
	totals := pricing.Compute(h.carts.Lines(), h.catalog.Current())
	writeJSON(w, http.StatusOK, toTotalsResponse(totals))
}

// upsertRequest is the body for PUT /api/cart/items. Qty is deliberately
// untyped: the storefront never rejects a shopper over a malformed number,
// so absent, invalid, and negative quantities all coerce to zero — which
// removes the line.
type upsertRequest struct {
	ProductID string `json:"productId"`
	Kind      string `json:"kind"`
	Flavour   string `json:"flavour"`
	Qty       any    `json:"qty"`
}

func (h *Handler) upsertLine(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeError(w, http.StatusUnprocessableEntity, "productId required")
		return
	}

	kind := catalog.ParseKind(req.Kind)
	qty := coerceQuantity(req.Qty)

	p := h.catalog.Current().Find(kind, req.ProductID)
	if p == nil {
		// Allow removal of lines whose product has left the catalog.
		if qty <= 0 {
			if err := h.carts.RemoveLine(req.ProductID, kind, req.Flavour); err != nil {
				writeError(w, http.StatusInternalServerError, "could not update cart")
				return
			}
			h.getCart(w, r)
			return
		}
		writeError(w, http.StatusNotFound, "product "+req.ProductID+" not found")
		return
	}

	line := cart.Line{
		ProductID: p.ID,
		Kind:      kind,
		Name:      p.Name,
		Flavour:   req.Flavour,
		Quantity:  qty,
		UnitPrice: p.Price,
	}
	if err := h.carts.UpsertLine(line); err != nil {
		writeError(w, http.StatusInternalServerError, "could not update cart")
		return
	}
	h.getCart(w, r)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("productId")
	if productID == "" {
		writeError(w, http.StatusUnprocessableEntity, "productId required")
		return
	}

	err := h.carts.RemoveLine(productID, catalog.ParseKind(q.Get("kind")), q.Get("flavour"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not update cart")
		return
	}
	h.getCart(w, r)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "could not clear cart")
		return
	}
	h.getCart(w, r)
}

func (h *Handler) restoreLastOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RestoreLastOrder(); err != nil {
		if errors.Is(err, cart.ErrNothingToRestore) {
			writeError(w, http.StatusNotFound, "no saved order")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not restore order")
		return
	}
	h.getCart(w, r)
}

// coerceQuantity turns an untyped JSON value into a non-negative quantity.
// Absent (nil), invalid, and negative values all become 0; numeric strings
// are accepted because several storefront variants submit them.
func coerceQuantity(v any) int {
	switch q := v.(type) {
	case float64:
		if q < 0 {
			return 0
		}
		return int(q)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}

// coerceTip turns an untyped JSON value into a non-negative tip amount.
func coerceTip(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		d := decimal.NewFromFloat(t)
		if d.IsNegative() {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
