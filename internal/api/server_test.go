package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"shopapp/internal/app"
	"shopapp/internal/catalog"
	"shopapp/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const unreachableID = 500

type stubCatalog struct {
	mu       sync.Mutex
	products map[int]catalog.Product
	queries  []catalog.ListQuery
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[int]catalog.Product{
		1: {ID: 1, Title: "Essence Mascara", Price: decimal.RequireFromString("10.00"), DiscountPercentage: 10, Stock: 5, Category: "beauty", Thumbnail: "t1"},
		2: {ID: 2, Title: "Eyeshadow Palette", Price: decimal.RequireFromString("20.00"), Stock: 0, Category: "beauty"},
		3: {ID: 3, Title: "Lipstick", Price: decimal.RequireFromString("5.50"), Stock: 9, Category: "beauty"},
	}}
}

func (s *stubCatalog) ListProducts(ctx context.Context, q catalog.ListQuery) (*catalog.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)

	ids := make([]int, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.products[id])
	}
	return &catalog.ListResult{Products: out, Total: len(out)}, nil
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{Slug: "beauty", Name: "Beauty"}}, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	if id == unreachableID {
		return nil, fmt.Errorf("%w: connection reset", catalog.ErrNetwork)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", catalog.ErrNotFound, id)
	}
	return &p, nil
}

func (s *stubCatalog) CheckStock(ctx context.Context, ids []int) (*catalog.StockReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := &catalog.StockReport{OutOfStock: []int{}, Failed: map[int]error{}}
	for _, id := range ids {
		if s.products[id].Stock <= 0 {
			report.OutOfStock = append(report.OutOfStock, id)
		}
	}
	return report, nil
}

func setupServer(t *testing.T, secret string) (*Server, *app.App) {
	t.Helper()
	ctx := context.Background()
	a, err := app.New(ctx, &config.Config{StoreDriver: config.DriverMemory, PageSize: 12}, app.Deps{Catalog: newStubCatalog()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	a.Start(ctx)
	a.Listing.Wait()
	return NewServer(a, secret), a
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	s, _ := setupServer(t, "bridge-secret")

	w := doJSON(t, s, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "shell"}).
		SignedString([]byte("bridge-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProduct(t *testing.T) {
	s, a := setupServer(t, "")
	a.Favorites.AddFavorite(1)

	w := doJSON(t, s, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Essence Mascara", body["title"])
	assert.Equal(t, "9", body["discounted_price"])
	assert.Equal(t, true, body["favorite"])
	assert.Equal(t, []any{"t1"}, body["gallery"])

	w = doJSON(t, s, http.MethodGet, "/products/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/products/%d", unreachableID), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(t, s, http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartFlow(t *testing.T) {
	s, a := setupServer(t, "")

	w := doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 1})
	doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 3})

	w = doJSON(t, s, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	totals := decode(t, w)["totals"].(map[string]any)
	assert.EqualValues(t, 3, totals["total_count"])
	assert.Equal(t, "25.5", totals["total_price"])

	doJSON(t, s, http.MethodPost, "/cart/items/3/increment", nil)
	line, ok := a.Cart.Line(3)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)

	doJSON(t, s, http.MethodPost, "/cart/items/1/decrement", nil)
	doJSON(t, s, http.MethodPost, "/cart/items/1/decrement", nil)
	assert.Equal(t, []int{3}, a.Cart.IDs())

	w = doJSON(t, s, http.MethodPost, "/cart/items/42/increment", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{3}, a.Cart.IDs())

	doJSON(t, s, http.MethodDelete, "/cart/items/3", nil)
	assert.Equal(t, 0, a.Cart.Len())

	doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 1})
	w = doJSON(t, s, http.MethodDelete, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, a.Cart.Len())
}

// upstreamCatalog serves a single product the way the remote catalog does.
type upstreamCatalog struct {
	price      atomic.Value
	detailDown atomic.Bool
}

func (u *upstreamCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	product := fmt.Sprintf(`{"id":1,"title":"Essence Mascara","price":%s,"stock":5}`, u.price.Load())
	switch r.URL.Path {
	case "/products":
		fmt.Fprintf(w, `{"products":[%s],"total":1}`, product)
	case "/products/categories":
		fmt.Fprint(w, `[]`)
	case "/products/1":
		if u.detailDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, product)
	default:
		http.NotFound(w, r)
	}
}

func setupUpstreamServer(t *testing.T) (*Server, *app.App, *upstreamCatalog) {
	t.Helper()
	up := &upstreamCatalog{}
	up.price.Store("10")
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client := catalog.NewClient(catalog.Options{BaseURL: srv.URL, CacheSize: 8})
	a, err := app.New(ctx, &config.Config{StoreDriver: config.DriverMemory, PageSize: 12}, app.Deps{Catalog: client})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	a.Start(ctx)
	a.Listing.Wait()
	return NewServer(a, ""), a, up
}

func TestAddToCart_SnapshotsCurrentPrice(t *testing.T) {
	s, a, up := setupUpstreamServer(t)

	w := doJSON(t, s, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", decode(t, w)["price"])

	up.price.Store("12")
	w = doJSON(t, s, http.MethodPost, "/listing/refresh", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	a.Listing.Wait()

	w = doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	line, ok := a.Cart.Line(1)
	require.True(t, ok)
	assert.True(t, line.Product.Price.Equal(decimal.NewFromInt(12)), "got %s", line.Product.Price)

	w = doJSON(t, s, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12", decode(t, w)["price"])
}

func TestAddToCart_ListedProductWithoutDetail(t *testing.T) {
	s, a, up := setupUpstreamServer(t)
	up.detailDown.Store(true)

	w := doJSON(t, s, http.MethodGet, "/products/1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{1}, a.Cart.IDs())
}

func TestAddToCart_Errors(t *testing.T) {
	s, a := setupServer(t, "")

	w := doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, a.Cart.Len())
}

func TestStockCheck(t *testing.T) {
	s, a := setupServer(t, "")
	doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 1})
	doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 2})

	w := doJSON(t, s, http.MethodPost, "/cart/stock-check", nil)
	require.Equal(t, http.StatusOK, w.Code)

	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, []any{float64(2)}, result["removed"])
	assert.Equal(t, []int{1}, a.Cart.IDs())
}

func TestFavorites(t *testing.T) {
	s, a := setupServer(t, "")

	doJSON(t, s, http.MethodPut, "/favorites/3", nil)
	doJSON(t, s, http.MethodPut, "/favorites/1", nil)
	w := doJSON(t, s, http.MethodGet, "/favorites", nil)
	assert.Equal(t, []any{float64(1), float64(3)}, decode(t, w)["ids"])

	w = doJSON(t, s, http.MethodPost, "/favorites/3/toggle", nil)
	assert.Equal(t, false, decode(t, w)["favorite"])
	assert.False(t, a.Favorites.Has(3))

	doJSON(t, s, http.MethodDelete, "/favorites/1", nil)
	assert.Equal(t, 0, a.Favorites.Count())

	doJSON(t, s, http.MethodPut, "/favorites/2", nil)
	doJSON(t, s, http.MethodDelete, "/favorites", nil)
	assert.Equal(t, 0, a.Favorites.Count())
}

func TestCheckout(t *testing.T) {
	s, _ := setupServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/checkout/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	selected := decode(t, w)["selected"].(map[string]any)
	assert.Equal(t, "home", selected["address_id"])

	w = doJSON(t, s, http.MethodPost, "/checkout/select", map[string]any{"address_id": "mars"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/checkout/select", map[string]any{"address_id": "office", "payment_id": "apple"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/checkout/prepare", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	doJSON(t, s, http.MethodPost, "/cart/items", map[string]any{"product_id": 3})
	w = doJSON(t, s, http.MethodPost, "/checkout/prepare", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "office", body["address"].(map[string]any)["id"])
	assert.Equal(t, "apple", body["payment"].(map[string]any)["id"])
}

func TestListing(t *testing.T) {
	s, a := setupServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/listing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["products"], 3)
	assert.Len(t, body["featured"], 3)
	assert.Len(t, body["categories"], 1)
	assert.EqualValues(t, 0, body["active_filters"])

	w = doJSON(t, s, http.MethodPost, "/listing/sort", map[string]any{"sort": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/listing/sort", map[string]any{"sort": "price-asc"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	a.Listing.Wait()

	w = doJSON(t, s, http.MethodPost, "/listing/search", map[string]any{"text": "mascara"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	a.Listing.Wait()

	w = doJSON(t, s, http.MethodPost, "/listing/category", map[string]any{"slug": "beauty"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	a.Listing.Wait()

	st := a.Listing.State()
	assert.Equal(t, "mascara", st.Search)
	assert.Equal(t, "beauty", st.SelectedCategory)
	assert.Equal(t, catalog.SortPriceAsc, st.Sort)
	assert.False(t, st.Loading)

	w = doJSON(t, s, http.MethodPost, "/listing/next", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["issued"])

	w = doJSON(t, s, http.MethodPost, "/listing/refresh", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	a.Listing.Wait()
	assert.Len(t, a.Listing.State().Products, 3)
}
