package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/stelliesdp/storefront/internal/domain/catalog"
)

// productResponse is the wire shape of a catalog entry.
type productResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Price             float64  `json:"price"`
	Image             string   `json:"image,omitempty"`
	Flavours          []string `json:"flavours,omitempty"`
	DiscountThreshold int      `json:"discountThreshold,omitempty"`
	DiscountPercent   float64  `json:"discountPercent,omitempty"`
}

func toProductResponse(p catalog.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Round(2).InexactFloat64(),
		Image:       p.Image,
		Flavours:    p.Flavours,
	}
	if p.Discount != nil {
		resp.DiscountThreshold = p.Discount.Threshold
		resp.DiscountPercent = p.Discount.PercentOff.InexactFloat64()
	}
	return resp
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Current().Products
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listMerch(w http.ResponseWriter, r *http.Request) {
	merch := h.catalog.Current().Merch
	out := make([]productResponse, len(merch))
	for i, p := range merch {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	addresses := h.catalog.Current().Addresses
	if addresses == nil {
		addresses = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": addresses})
}

// refreshCatalog re-fetches the catalog from its source. Failure keeps
// the previous snapshot and reports 502 so the UI can show a "could not
// load" state; pricing keeps working against the old snapshot either way.
func (h *Handler) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Catalog refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not load catalog")
		return
	}

	cat := h.catalog.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"products":  len(cat.Products),
		"merch":     len(cat.Merch),
		"addresses": len(cat.Addresses),
	})
}
