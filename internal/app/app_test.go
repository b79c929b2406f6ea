package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shopapp/internal/catalog"
	"shopapp/internal/config"
	"shopapp/internal/persist"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products map[int]catalog.Product
}

func (s *stubCatalog) ListProducts(ctx context.Context, q catalog.ListQuery) (*catalog.ListResult, error) {
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return &catalog.ListResult{Products: out, Total: len(out)}, nil
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{Slug: "beauty", Name: "Beauty"}}, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) CheckStock(ctx context.Context, ids []int) (*catalog.StockReport, error) {
	report := &catalog.StockReport{OutOfStock: []int{}, Failed: map[int]error{}}
	for _, id := range ids {
		if s.products[id].Stock <= 0 {
			report.OutOfStock = append(report.OutOfStock, id)
		}
	}
	return report, nil
}

func newStub() *stubCatalog {
	return &stubCatalog{products: map[int]catalog.Product{
		1: {ID: 1, Title: "Mascara", Price: decimal.RequireFromString("9.99"), Stock: 4},
		2: {ID: 2, Title: "Palette", Price: decimal.RequireFromString("19.99"), Stock: 0},
	}}
}

func TestApp_CartSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		StorePath:   filepath.Join(t.TempDir(), "shop.db"),
		PageSize:    12,
	}
	stub := newStub()

	first, err := New(ctx, cfg, Deps{Catalog: stub})
	require.NoError(t, err)

	first.Cart.AddToCart(stub.products[1])
	first.Cart.AddToCart(stub.products[1])
	first.Cart.AddToCart(stub.products[2])
	require.NoError(t, first.Close(ctx))

	second, err := New(ctx, cfg, Deps{Catalog: stub})
	require.NoError(t, err)
	defer second.Close(ctx)

	assert.Equal(t, []int{1, 2}, second.Cart.IDs())
	assert.Equal(t, 3, second.Cart.Count())
}

func TestApp_CheckoutRemovesSoldOut(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreDriver: config.DriverMemory, PageSize: 12}
	stub := newStub()

	a, err := New(ctx, cfg, Deps{Catalog: stub})
	require.NoError(t, err)
	defer a.Close(ctx)

	a.Cart.AddToCart(stub.products[1])
	a.Cart.AddToCart(stub.products[2])

	summary, err := a.Checkout.Prepare(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, a.Cart.IDs())
	assert.Len(t, summary.Lines, 1)
	assert.Equal(t, []int{2}, summary.Stock.Removed)
}

func TestApp_RestoresFromProvidedKV(t *testing.T) {
	ctx := context.Background()
	kv := persist.NewMemoryStore()
	data, err := persist.Encode(nil)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, persist.CartKey, data))

	a, err := New(ctx, &config.Config{PageSize: 12}, Deps{Catalog: newStub(), KV: kv})
	require.NoError(t, err)

	a.Start(ctx)
	a.Listing.Wait()
	st := a.Listing.State()
	assert.Len(t, st.Products, 2)
	assert.Len(t, st.Categories, 1)

	a.Cart.AddToCart(catalog.Product{ID: 7, Price: decimal.NewFromInt(1)})
	require.NoError(t, a.Close(ctx))

	stored, err := kv.Get(ctx, persist.CartKey)
	require.NoError(t, err)
	lines, err := persist.Decode(stored)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 7, lines[0].ID())
}

// hangingCatalog never answers list requests until released.
type hangingCatalog struct {
	*stubCatalog
	release chan struct{}
}

func (h *hangingCatalog) ListProducts(ctx context.Context, q catalog.ListQuery) (*catalog.ListResult, error) {
	<-h.release
	return &catalog.ListResult{}, nil
}

func TestApp_CloseHonorsDeadline(t *testing.T) {
	kv := persist.NewMemoryStore()
	hc := &hangingCatalog{stubCatalog: newStub(), release: make(chan struct{})}
	defer close(hc.release)

	a, err := New(context.Background(), &config.Config{PageSize: 12}, Deps{Catalog: hc, KV: kv})
	require.NoError(t, err)
	a.Start(context.Background())
	a.Cart.AddToCart(hc.products[1])

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, a.Close(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)

	stored, err := kv.Get(context.Background(), persist.CartKey)
	require.NoError(t, err)
	lines, err := persist.Decode(stored)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ID())
}

func TestApp_BadDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreDriver: "oracle"}, Deps{Catalog: newStub()})
	assert.Error(t, err)
}
