package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/stelliesdp/storefront/internal/domain/catalog"
)

var _ catalog.Source = (*HTTPSource)(nil)

// HTTPSource loads the catalog from an HTTP endpoint serving the three
// feeds as JSON, e.g. a spreadsheet-backed script published at
// https://example/exec?feed=food. The three feeds are fetched
// concurrently.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource for the given base URL. The feed
// name is appended as a `feed` query parameter. A nil client uses a
// default with a 15s timeout so a hung catalog fetch cannot wedge a
// refresh forever.
func NewHTTPSource(base string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSource{base: base, client: client}
}

// Fetch implements catalog.Source. A feed that fails to download fails the
// whole fetch; the caller decides whether to fall back to the previous
// catalog snapshot.
func (s *HTTPSource) Fetch(ctx context.Context) (*catalog.Catalog, error) {
	var food, merch, addresses []byte

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		food, err = s.get(ctx, "food")
		return err
	})
	g.Go(func() (err error) {
		merch, err = s.get(ctx, "merch")
		return err
	})
	g.Go(func() (err error) {
		addresses, err = s.get(ctx, "addresses")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return catalog.New(
		catalog.DecodeProducts(food),
		catalog.DecodeProducts(merch),
		catalog.DecodeAddresses(addresses),
	), nil
}

func (s *HTTPSource) get(ctx context.Context, feed string) ([]byte, error) {
	u, err := url.Parse(s.base)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	q := u.Query()
	q.Set("feed", feed)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s feed", feed)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s feed: unexpected status %d", feed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s feed", feed)
	}
	return body, nil
}
