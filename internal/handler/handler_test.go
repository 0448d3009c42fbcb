package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelliesdp/storefront/internal/domain/cart"
	"github.com/stelliesdp/storefront/internal/domain/catalog"
	"github.com/stelliesdp/storefront/internal/domain/order"
	"github.com/stelliesdp/storefront/internal/kv"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// --- Mock implementations ---

type memStore struct {
	data map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]json.RawMessage)}
}

func (m *memStore) Get(key string, v any) error {
	raw, ok := m.data[key]
	if !ok {
		return kv.ErrNotFound
	}
	return json.Unmarshal(raw, v)
}

func (m *memStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

type fakeSource struct {
	cat *catalog.Catalog
	err error
}

func (f *fakeSource) Fetch(_ context.Context) (*catalog.Catalog, error) {
	return f.cat, f.err
}

type mockSink struct {
	result order.Result
	err    error
}

func (m *mockSink) Submit(_ context.Context, _ order.Payload) (order.Result, error) {
	return m.result, m.err
}

// --- Fixtures ---

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.Product{
			{
				ID:       "ribs",
				Name:     "Pork Ribs",
				Price:    d("10"),
				Flavours: []string{"Original", "Spicy"},
				Discount: &catalog.DiscountRule{Threshold: 5, PercentOff: d("10")},
			},
			{ID: "rolls", Name: "Bread Rolls", Price: d("2.50")},
		},
		[]catalog.Product{
			{ID: "cap", Name: "Trucker Cap", Price: d("15")},
		},
		[]string{"12 Harbour Rd"},
	)
}

type fixture struct {
	mux    *http.ServeMux
	source *fakeSource
	sink   *mockSink
	carts  *cart.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	source := &fakeSource{cat: testCatalog()}
	svc := catalog.NewService(source)
	require.NoError(t, svc.Refresh(context.Background()))

	store := newMemStore()
	carts := cart.NewStore(store)
	sink := &mockSink{result: order.Result{Success: true}}
	assembler := order.NewAssembler(carts, svc, store, sink, "SDP")

	mux := http.NewServeMux()
	New(svc, carts, assembler, store).Register(mux)
	return &fixture{mux: mux, source: source, sink: sink, carts: carts}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type cartBody struct {
	Lines  []lineResponse `json:"lines"`
	Totals totalsResponse `json:"totals"`
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	products := decodeBody[[]productResponse](t, rec)
	require.Len(t, products, 2)
	assert.Equal(t, "ribs", products[0].ID)
	assert.Equal(t, 5, products[0].DiscountThreshold)
	assert.InDelta(t, 10.0, products[0].DiscountPercent, 0.001)
	assert.Zero(t, products[1].DiscountThreshold)
}

func TestListMerch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/merch", "")
	require.Equal(t, http.StatusOK, rec.Code)

	merch := decodeBody[[]productResponse](t, rec)
	require.Len(t, merch, 1)
	assert.Equal(t, "cap", merch[0].ID)
}

func TestListAddresses(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/addresses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"12 Harbour Rd"}, body["addresses"])
}

func TestRefreshCatalogFailureKeepsServing(t *testing.T) {
	f := newFixture(t)
	f.source.err = errors.New("feed down")

	rec := f.do(t, http.MethodPost, "/api/catalog/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The previous snapshot still serves.
	rec = f.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]productResponse](t, rec), 2)
}

func TestUpsertLine(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/cart/items",
		`{"productId": "ribs", "flavour": "Spicy", "qty": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[cartBody](t, rec)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, "Pork Ribs", body.Lines[0].ItemName)
	assert.Equal(t, "Spicy", body.Lines[0].Flavour)
	assert.Equal(t, 2, body.Lines[0].Qty)
	assert.InDelta(t, 20.0, body.Totals.Subtotal, 0.001)
}

func TestUpsertLineStringQuantityCoerced(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/cart/items",
		`{"productId": "rolls", "qty": "3"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[cartBody](t, rec)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, 3, body.Lines[0].Qty)
}

func TestUpsertLineZeroQuantityRemoves(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "rolls", "qty": 2}`)
	rec := f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "rolls", "qty": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, decodeBody[cartBody](t, rec).Lines)
}

func TestUpsertLineValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/cart/items", `{"qty": 2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "ghost", "qty": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveLine(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "ribs", "flavour": "Spicy", "qty": 2}`)
	rec := f.do(t, http.MethodDelete, "/api/cart/items?productId=ribs&flavour=Spicy", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, decodeBody[cartBody](t, rec).Lines)
}

func TestGetTotalsAppliesDiscount(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "ribs", "flavour": "Original", "qty": 3}`)
	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "ribs", "flavour": "Spicy", "qty": 2}`)

	rec := f.do(t, http.MethodGet, "/api/totals", "")
	require.Equal(t, http.StatusOK, rec.Code)

	totals := decodeBody[totalsResponse](t, rec)
	assert.InDelta(t, 50.0, totals.Subtotal, 0.001)
	assert.InDelta(t, 5.0, totals.Discount, 0.001)
	assert.InDelta(t, 45.0, totals.Final, 0.001)
	require.Len(t, totals.Breakdown, 1)
	assert.Equal(t, 5, totals.Breakdown[0].Qty)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "rolls", "qty": 2}`)
	rec := f.do(t, http.MethodPost, "/api/cart/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, decodeBody[cartBody](t, rec).Lines)
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "ribs", "qty": 5}`)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		`{"name": "Alex", "phone": "555-0101", "delivery": "12 Harbour Rd", "tip": 2.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[checkoutResponse](t, rec)
	assert.True(t, body.Success)
	assert.False(t, body.Queued)
	assert.Equal(t, "SDP-0001", body.Order.OrderNumber)
	assert.InDelta(t, 47.5, body.Order.Total, 0.001)

	// The cart is cleared after checkout.
	rec = f.do(t, http.MethodGet, "/api/cart", "")
	assert.Empty(t, decodeBody[cartBody](t, rec).Lines)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		`{"name": "Alex", "phone": "555-0101", "delivery": "12 Harbour Rd"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutMissingField(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "rolls", "qty": 1}`)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		`{"phone": "555-0101", "delivery": "12 Harbour Rd"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody[errorResponse](t, rec)
	assert.Contains(t, body.Message, "name")
}

func TestCheckoutQueuedOnSinkFailure(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("backend down")

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "rolls", "qty": 1}`)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		`{"name": "Alex", "phone": "555-0101", "delivery": "12 Harbour Rd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[checkoutResponse](t, rec)
	assert.True(t, body.Success)
	assert.True(t, body.Queued)

	rec = f.do(t, http.MethodGet, "/api/orders/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[[]order.Payload](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, body.Order.OrderNumber, pending[0].OrderNumber)
}

func TestPendingOrdersEmpty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/orders/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRestoreLastOrder(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/cart/items", `{"productId": "ribs", "qty": 2}`)
	rec := f.do(t, http.MethodPost, "/api/checkout",
		`{"name": "Alex", "phone": "555-0101", "delivery": "12 Harbour Rd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/cart/restore-last", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[cartBody](t, rec)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, "ribs", body.Lines[0].ProductID)
}

func TestRestoreLastOrderNothingSaved(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/cart/restore-last", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"number", float64(3), 3},
		{"numeric string", "4", 4},
		{"padded string", " 2 ", 2},
		{"negative", float64(-1), 0},
		{"negative string", "-5", 0},
		{"garbage string", "lots", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceQuantity(tt.in))
		})
	}
}

func TestCoerceTip(t *testing.T) {
	assert.True(t, coerceTip(float64(2.5)).Equal(d("2.5")))
	assert.True(t, coerceTip("3.00").Equal(d("3")))
	assert.True(t, coerceTip(float64(-1)).IsZero())
	assert.True(t, coerceTip("oops").IsZero())
	assert.True(t, coerceTip(nil).IsZero())
}
