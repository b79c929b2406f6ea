package listing

import (
	"context"
	"sync"

	"shopapp/internal/catalog"
	"shopapp/internal/logger"
	"shopapp/internal/metrics"

	"go.uber.org/zap"
)

type Stats struct {
	Issued    uint64 `json:"issued"`
	Discarded uint64 `json:"discarded"`
	Failed    uint64 `json:"failed"`
}

// Workflow drives the product list. Every change of search, category, sort or
// page issues a fetch; only the most recently issued fetch may write its
// result into the state.
type Workflow struct {
	client   catalog.Client
	pageSize int

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	baseCtx    context.Context
	stop       context.CancelFunc
	wg         sync.WaitGroup

	issued    metrics.Counter
	discarded metrics.Counter
	failed    metrics.Counter
}

func NewWorkflow(client catalog.Client, pageSize int) *Workflow {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	return &Workflow{
		client:   client,
		pageSize: pageSize,
		state:    initialState(),
		baseCtx:  context.Background(),
	}
}

// Start binds fetches to ctx, loads categories in the background and issues
// the first page. Stop cancels everything started from here on.
func (w *Workflow) Start(ctx context.Context) {
	ctx, stop := context.WithCancel(ctx)

	w.mu.Lock()
	if w.stop != nil {
		w.stop()
	}
	w.baseCtx = ctx
	w.stop = stop
	w.mu.Unlock()

	w.wg.Add(1)
	go w.fetchCategories(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.issueLocked(ctx)
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// Product returns a copy of the listed product with the given id.
func (w *Workflow) Product(id int) (catalog.Product, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.state.Product(id)
	if !ok {
		return catalog.Product{}, false
	}
	return p.Clone(), true
}

func (w *Workflow) Stats() Stats {
	return Stats{
		Issued:    w.issued.Load(),
		Discarded: w.discarded.Load(),
		Failed:    w.failed.Load(),
	}
}

func (w *Workflow) SetSearch(ctx context.Context, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Search == text {
		return
	}
	w.state.Search = text
	w.resetLocked()
	w.issueLocked(ctx)
}

// SetCategory also drops the accumulated products right away.
func (w *Workflow) SetCategory(ctx context.Context, slug string) {
	if slug == "" {
		slug = catalog.AllCategories
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.SelectedCategory == slug {
		return
	}
	w.state.SelectedCategory = slug
	w.state.Products = []catalog.Product{}
	w.resetLocked()
	w.issueLocked(ctx)
}

func (w *Workflow) SetSort(ctx context.Context, sort catalog.Sort) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Sort == sort {
		return
	}
	w.state.Sort = sort
	w.resetLocked()
	w.issueLocked(ctx)
}

// NextPage advances the cursor when more items exist and nothing is loading.
func (w *Workflow) NextPage(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.HasMore || w.state.Loading {
		return false
	}
	w.state.Page++
	w.issueLocked(ctx)
	return true
}

// Refresh re-issues the fetch for the current parameters.
func (w *Workflow) Refresh(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.issueLocked(ctx)
}

// Wait blocks until every issued fetch has settled.
func (w *Workflow) Wait() {
	w.wg.Wait()
}

// Stop cancels the in-flight fetches. Fetches issued afterwards fail at once.
func (w *Workflow) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		w.stop()
	}
}

// Shutdown stops the workflow and waits for its fetches until ctx is done.
func (w *Workflow) Shutdown(ctx context.Context) error {
	w.Stop()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workflow) resetLocked() {
	w.state.Page = 0
	w.state.HasMore = true
}

func (w *Workflow) issueLocked(reqCtx context.Context) {
	w.generation++
	gen := w.generation

	if w.cancel != nil {
		w.cancel()
	}

	ctx, cancel := context.WithCancel(w.baseCtx)
	if reqID := logger.RequestIDFrom(reqCtx); reqID != "" {
		ctx = logger.WithRequestID(ctx, reqID)
	}
	ctx = logger.WithFetchID(ctx, gen)
	w.cancel = cancel

	w.state.Loading = true
	w.state.Error = ""
	q := w.state.query(w.pageSize)

	w.issued.Inc()
	w.wg.Add(1)
	go w.fetch(ctx, cancel, gen, q)
}

func (w *Workflow) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, q catalog.ListQuery) {
	defer w.wg.Done()
	defer cancel()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "listing"),
		zap.String("method", "fetch"),
		zap.String("search", q.Search),
		zap.String("category", q.Category),
		zap.String("sort", string(q.Sort)),
		zap.Int("page", q.Page),
	)
	timer := metrics.StartTimer()

	res, err := w.client.ListProducts(ctx, q)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.discarded.Inc()
		log.Debug("discarding superseded fetch",
			zap.Uint64("latest", w.generation),
			zap.Duration("duration", timer.Duration()),
		)
		return
	}

	w.state.Loading = false
	w.cancel = nil

	if err != nil {
		w.failed.Inc()
		w.state.Error = err.Error()
		log.Warn("fetch products failed", zap.Error(err), zap.Duration("duration", timer.Duration()))
		return
	}

	w.state.Error = ""
	w.state.Total = res.Total
	w.state.HasMore = res.HasMore
	if q.Page == 0 {
		w.state.Products = cloneProducts(res.Products)
	} else {
		w.state.Products = mergePage(w.state.Products, cloneProducts(res.Products))
	}

	log.Info("fetch products success",
		zap.Int("received", len(res.Products)),
		zap.Int("listed", len(w.state.Products)),
		zap.Int("total", res.Total),
		zap.Bool("has_more", res.HasMore),
		zap.Duration("duration", timer.Duration()),
	)
}

// fetchCategories failures leave the current categories untouched.
func (w *Workflow) fetchCategories(ctx context.Context) {
	defer w.wg.Done()

	categories, err := w.client.ListCategories(ctx)
	if err != nil {
		logger.FromCtx(ctx).Warn("fetch categories failed",
			zap.String("layer", "listing"),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Categories = append([]catalog.Category{}, categories...)
}
