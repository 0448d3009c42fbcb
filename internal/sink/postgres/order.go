package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stelliesdp/storefront/internal/domain/order"
)

const insertOrderSQL = `INSERT INTO orders
	(order_number, name, phone, email, delivery, tip, notes, items, total, payment_token, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

var _ order.Sink = (*OrderSink)(nil)

// OrderSink implements order.Sink backed by PostgreSQL. Each payload is
// appended as one row; items are serialized to JSON for the JSONB column.
type OrderSink struct {
	pool *pgxpool.Pool
}

// NewOrderSink returns an OrderSink that uses the given pool.
func NewOrderSink(pool *pgxpool.Pool) *OrderSink {
	return &OrderSink{pool: pool}
}

// Submit implements order.Sink. A database error is returned to the
// assembler, which then queues the payload locally — the storefront never
// blocks a shopper on a failed write.
func (s *OrderSink) Submit(ctx context.Context, p order.Payload) (order.Result, error) {
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return order.Result{}, fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = s.pool.Exec(ctx, insertOrderSQL,
		p.OrderNumber, p.Name, p.Phone, p.Email, p.Delivery,
		decimal.NewFromFloat(p.Tip), p.Notes, itemsJSON,
		decimal.NewFromFloat(p.Total), p.PaymentToken, p.Timestamp,
	)
	if err != nil {
		return order.Result{}, fmt.Errorf("inserting order %q: %w", p.OrderNumber, err)
	}

	return order.Result{Success: true}, nil
}
