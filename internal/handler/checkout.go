package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/stelliesdp/storefront/internal/domain/order"
)

// checkoutRequest is the body for POST /api/checkout. Tip is untyped for
// the same lenient-coercion reason as cart quantities.
type checkoutRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Delivery     string `json:"delivery"`
	Notes        string `json:"notes"`
	Tip          any    `json:"tip"`
	PaymentToken string `json:"paymentToken"`
}

// checkoutResponse confirms the order. Queued=true means external
// submission failed and the payload sits in the pending queue awaiting
// manual processing; the shopper is confirmed either way.
type checkoutResponse struct {
	Success bool          `json:"success"`
	Queued  bool          `json:"queued"`
	Message string        `json:"message,omitempty"`
	Order   order.Payload `json:"order"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receipt, err := h.assembler.Checkout(r.Context(), order.Fields{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Delivery:     req.Delivery,
		Notes:        req.Notes,
		Tip:          coerceTip(req.Tip),
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		var fieldErr *order.FieldError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &fieldErr):
			writeError(w, http.StatusUnprocessableEntity, fieldErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success: true,
		Queued:  receipt.Queued,
		Message: receipt.Message,
		Order:   receipt.Payload,
	})
}

func (h *Handler) listPendingOrders(w http.ResponseWriter, r *http.Request) {
	pending, err := order.PendingOrders(h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read pending orders")
		return
	}
	if pending == nil {
		pending = []order.Payload{}
	}
	writeJSON(w, http.StatusOK, pending)
}
