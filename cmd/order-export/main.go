package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/stelliesdp/storefront/internal/domain/order"
	"github.com/stelliesdp/storefront/internal/kv"
	"github.com/stelliesdp/storefront/internal/sink"
)

func main() {
	var (
		storePath  string
		outPath    string
		webhookURL string
		clearQueue bool
	)

	flag.StringVar(&storePath, "store", "storefront-store.json", "path to the storefront key-value store")
	flag.StringVar(&outPath, "out", "pending-orders.jsonl.gz", "output file (gzip-compressed JSON lines)")
	flag.StringVar(&webhookURL, "webhook-url", "", "re-submit each order to this webhook before export")
	flag.BoolVar(&clearQueue, "clear", false, "remove successfully handled orders from the queue")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, storePath, outPath, webhookURL, clearQueue); err != nil {
		slog.Error("order export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order export completed successfully")
}

func run(ctx context.Context, storePath, outPath, webhookURL string, clearQueue bool) error {
	store, err := kv.OpenFile(storePath)
	if err != nil {
		return errors.Wrap(err, "open store")
	}

	pending, err := order.PendingOrders(store)
	if err != nil {
		return errors.Wrap(err, "read pending orders")
	}
	if len(pending) == 0 {
		slog.Info("no pending orders")
		return nil
	}

	slog.Info("exporting pending orders", slog.Int("count", len(pending)))

	// Orders that could not be re-submitted stay queued.
	remaining, err := resubmit(ctx, pending, webhookURL)
	if err != nil {
		return err
	}

	if err := writeExport(outPath, pending); err != nil {
		return errors.Wrap(err, "write export")
	}

	if clearQueue {
		if err := store.Set(kv.KeyPendingOrders, remaining); err != nil {
			return errors.Wrap(err, "update pending queue")
		}
		slog.Info("pending queue updated",
			slog.Int("drained", len(pending)-len(remaining)),
			slog.Int("remaining", len(remaining)),
		)
	}

	return nil
}

// resubmit posts each pending order to the webhook and returns the
// orders that still need attention. With no webhook configured every
// order is considered handled.
func resubmit(ctx context.Context, pending []order.Payload, webhookURL string) ([]order.Payload, error) {
	if webhookURL == "" {
		return nil, nil
	}

	hook := sink.NewWebhook(webhookURL, nil)
	var remaining []order.Payload
	for _, p := range pending {
		res, err := hook.Submit(ctx, p)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Warn("re-submit failed",
				slog.String("order", p.OrderNumber),
				slog.String("error", err.Error()),
			)
			remaining = append(remaining, p)
			continue
		}
		if !res.Success {
			slog.Warn("re-submit rejected",
				slog.String("order", p.OrderNumber),
				slog.String("message", res.Message),
			)
			remaining = append(remaining, p)
			continue
		}
		slog.Info("re-submitted", slog.String("order", p.OrderNumber))
	}

	return remaining, nil
}

// writeExport writes one JSON document per line, gzip-compressed.
func writeExport(path string, pending []order.Payload) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	gz := pgzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	for _, p := range pending {
		if err := enc.Encode(p); err != nil {
			return errors.Wrap(err, "encode order")
		}
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}

	return f.Close()
}
