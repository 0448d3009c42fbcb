// Package sink provides order.Sink implementations: an HTTP webhook (the
// Apps Script / serverless backend analog) and a local file drop (the
// client-side download fallback).
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/stelliesdp/storefront/internal/domain/order"
)

var _ order.Sink = (*Webhook)(nil)

// Webhook POSTs the payload as JSON to a single endpoint and expects a
// `{success, message}` response body. A non-2xx status or an unparsable
// body counts as failure; the assembler then queues the order locally.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook sink. A nil client uses a default with a
// 30s timeout — the original storefronts had no timeout at all and could
// hang on "Placing…" forever, which is not worth preserving.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Webhook{url: url, client: client}
}

// webhookResponse is the body shape every observed backend returns.
type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit implements order.Sink.
func (w *Webhook) Submit(ctx context.Context, p order.Payload) (order.Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return order.Result{}, errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return order.Result{}, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return order.Result{}, errors.Wrap(err, "post order")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return order.Result{}, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return order.Result{Success: false, Message: resp.Status}, nil
	}

	// Some backends answer 200 with success:false; trust the body when it
	// parses, otherwise treat a 2xx as success.
	var wr webhookResponse
	if err := json.Unmarshal(raw, &wr); err != nil {
		return order.Result{Success: true}, nil
	}
	return order.Result{Success: wr.Success, Message: wr.Message}, nil
}
