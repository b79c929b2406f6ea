package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopapp/internal/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client is the app's view of the remote product catalog.
type Client interface {
	ListProducts(ctx context.Context, q ListQuery) (*ListResult, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	CheckStock(ctx context.Context, ids []int) (*StockReport, error)
}

type Options struct {
	BaseURL          string
	Timeout          time.Duration
	RPS              float64
	Burst            int
	CacheSize        int
	CacheTTL         time.Duration
	StockConcurrency int
	HTTPClient       *http.Client
}

type httpClient struct {
	baseURL          string
	httpClient       *http.Client
	limiter          *rate.Limiter
	cache            *expirable.LRU[int, Product]
	stockConcurrency int
}

// ----------------- Constructor -----------------

func NewClient(opts Options) Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &httpClient{
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		httpClient:       hc,
		limiter:          rate.NewLimiter(limit, burst),
		stockConcurrency: opts.StockConcurrency,
	}
	if c.stockConcurrency <= 0 {
		c.stockConcurrency = 4
	}

	if opts.CacheSize > 0 {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		c.cache = expirable.NewLRU[int, Product](opts.CacheSize, nil, ttl)
	}
	return c
}

// ----------------- Listing -----------------

func (c *httpClient) ListProducts(ctx context.Context, q ListQuery) (*ListResult, error) {
	path, params := q.endpoint()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "catalog"),
		zap.String("method", "ListProducts"),
		zap.String("path", path),
		zap.Int("page", q.Page),
	)

	var page productPage
	if err := c.getJSON(ctx, path, params, &page); err != nil {
		log.Warn("list products failed", zap.Error(err))
		return nil, err
	}

	products := page.Products
	if products == nil {
		products = []Product{}
	}

	total := len(products)
	serverTotal := 0
	if page.Total != nil {
		total = *page.Total
		serverTotal = *page.Total
	}

	c.refreshCached(products)

	res := &ListResult{
		Products: products,
		Total:    total,
		HasMore:  q.skip()+len(products) < serverTotal,
	}

	log.Debug("list products success",
		zap.Int("count", len(products)),
		zap.Int("total", total),
		zap.Bool("has_more", res.HasMore),
	)
	return res, nil
}

func (c *httpClient) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.getJSON(ctx, "/products/categories", nil, &categories); err != nil {
		logger.FromCtx(ctx).Warn("list categories failed",
			zap.String("layer", "catalog"),
			zap.Error(err),
		)
		return nil, err
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

// ----------------- Single product -----------------

// GetProduct serves from the lookup cache when possible. Entries expire after
// the cache TTL and are overwritten by fresher listing pages. Stock checks
// never read the cache.
func (c *httpClient) GetProduct(ctx context.Context, id int) (*Product, error) {
	if c.cache != nil {
		if p, ok := c.cache.Get(id); ok {
			p = p.Clone()
			return &p, nil
		}
	}

	p, err := c.fetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *httpClient) fetchProduct(ctx context.Context, id int) (*Product, error) {
	var p Product
	if err := c.getJSON(ctx, "/products/"+strconv.Itoa(id), nil, &p); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(id, p.Clone())
	}
	return &p, nil
}

// refreshCached overwrites cached details with the copies a listing page just
// returned. Products not already cached are left out.
func (c *httpClient) refreshCached(products []Product) {
	if c.cache == nil {
		return
	}
	for _, p := range products {
		if c.cache.Contains(p.ID) {
			c.cache.Add(p.ID, p.Clone())
		}
	}
}

// ----------------- Transport -----------------

func (c *httpClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrNetwork, err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrNetwork, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
