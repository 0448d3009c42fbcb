package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/stelliesdp/storefront/internal/domain/order"
)

var _ order.Sink = (*FileDrop)(nil)

// FileDrop writes each payload to `<orderNumber>.json` in a directory, the
// server-side analog of the browser download fallback: a site operator
// collects and processes the files manually.
type FileDrop struct {
	dir string
}

// NewFileDrop creates a FileDrop sink writing into dir.
func NewFileDrop(dir string) *FileDrop {
	return &FileDrop{dir: dir}
}

// Submit implements order.Sink.
func (f *FileDrop) Submit(_ context.Context, p order.Payload) (order.Result, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return order.Result{}, errors.Wrap(err, "create drop directory")
	}

	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return order.Result{}, errors.Wrap(err, "marshal payload")
	}

	path := filepath.Join(f.dir, p.OrderNumber+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return order.Result{}, errors.Wrap(err, "write order file")
	}

	return order.Result{Success: true, Message: "saved to " + path}, nil
}
