// Package handler exposes the storefront over HTTP: catalog reads, cart
// mutations, totals, and checkout. Handlers are thin; the semantics live
// in the domain packages.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stelliesdp/storefront/internal/domain/cart"
	"github.com/stelliesdp/storefront/internal/domain/catalog"
	"github.com/stelliesdp/storefront/internal/domain/order"
	"github.com/stelliesdp/storefront/internal/kv"
)

// Handler implements the storefront HTTP API.
type Handler struct {
	catalog   *catalog.Service
	carts     *cart.Store
	assembler *order.Assembler
	store     kv.Store
}

// New constructs a Handler with the required domain dependencies.
func New(cat *catalog.Service, carts *cart.Store, assembler *order.Assembler, store kv.Store) *Handler {
	return &Handler{
		catalog:   cat,
		carts:     carts,
		assembler: assembler,
		store:     store,
	}
}

// Register mounts all API routes on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/merch", h.listMerch)
	mux.HandleFunc("GET /api/addresses", h.listAddresses)
	mux.HandleFunc("POST /api/catalog/refresh", h.refreshCatalog)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("PUT /api/cart/items", h.upsertLine)
	mux.HandleFunc("DELETE /api/cart/items", h.removeLine)
	mux.HandleFunc("POST /api/cart/clear", h.clearCart)
	mux.HandleFunc("POST /api/cart/restore-last", h.restoreLastOrder)

	mux.HandleFunc("GET /api/totals", h.getTotals)
	mux.HandleFunc("POST /api/checkout", h.checkout)
	mux.HandleFunc("GET /api/orders/pending", h.listPendingOrders)
}

// errorResponse is the error body shape for every endpoint.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Code: code, Message: message})
}
