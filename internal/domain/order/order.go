// Package order assembles finalized order payloads from the priced cart
// and shopper-entered checkout fields, and pushes them to an external
// submission sink. Payloads are write-once: created at checkout
// confirmation, submitted once, immutable thereafter.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrEmptyCart rejects checkout of an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// FieldError reports a missing required checkout field. It is surfaced to
// the shopper, never silently defaulted.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return "missing required field: " + e.Field
}

// Item is one itemized line on the payload, in the wire shape every
// observed submission sink expects. Prices are plain JSON numbers, already
// rounded to two decimals at assembly time.
type Item struct {
	ItemName string  `json:"itemName"`
	Flavour  string  `json:"flavour"`
	Qty      int     `json:"qty"`
	Price    float64 `json:"price"`
}

// Payload is the finalized order submitted externally. The number is
// device-local (`PREFIX-NNNN`), not a global uniqueness guarantee.
type Payload struct {
	OrderNumber  string    `json:"orderNumber"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Delivery     string    `json:"delivery"`
	Tip          float64   `json:"tip"`
	Notes        string    `json:"notes,omitempty"`
	Items        []Item    `json:"items"`
	Total        float64   `json:"total"`
	Timestamp    time.Time `json:"timestamp"`
	PaymentToken string    `json:"paymentToken,omitempty"`
}

// Result is the submission sink's verdict.
type Result struct {
	Success bool
	Message string
}

// Sink accepts a finalized payload. Implementations may append to a
// spreadsheet-backed service, a database, or drop a file on disk; the
// assembler does not care which.
type Sink interface {
	Submit(ctx context.Context, p Payload) (Result, error)
}
