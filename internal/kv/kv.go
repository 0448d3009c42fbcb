// Package kv provides a persistent key-value store for JSON-serializable
// blobs. It is the durability collaborator for the cart store and order
// assembler; no other component touches it.
package kv

import "github.com/go-faster/errors"

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Well-known keys used by the storefront.
const (
	KeyCart          = "cart"
	KeyLastOrder     = "last_order"
	KeyPendingOrders = "pending_orders"
	KeyOrderCount    = "order_count"
)

// Store persists JSON blobs under string keys.
type Store interface {
	// Get unmarshals the blob stored under key into v.
	// It returns ErrNotFound when the key is absent.
	Get(key string, v any) error
	// Set marshals v and persists it under key, replacing any previous value.
	Set(key string, v any) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error
}
