package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shopapp/internal/logger"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CheckStock queries the live stock of every id. A failed check never aborts
// the batch: the id lands in Failed and the combined error is returned next to
// a usable report.
func (c *httpClient) CheckStock(ctx context.Context, ids []int) (*StockReport, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "catalog"),
		zap.String("method", "CheckStock"),
		zap.Int("items", len(ids)),
	)

	report := &StockReport{
		OutOfStock: []int{},
		Failed:     map[int]error{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.stockConcurrency)

	for _, id := range uniqueIDs(ids) {
		g.Go(func() error {
			p, err := c.fetchProduct(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[id] = err
				return nil
			}
			if p.Stock <= 0 {
				report.OutOfStock = append(report.OutOfStock, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Ints(report.OutOfStock)

	var errs error
	for _, id := range sortedKeys(report.Failed) {
		errs = multierr.Append(errs, fmt.Errorf("product %d: %w", id, report.Failed[id]))
	}

	if errs != nil {
		log.Warn("stock check partially failed",
			zap.Int("failed", len(report.Failed)),
			zap.Ints("out_of_stock", report.OutOfStock),
			zap.Error(errs),
		)
	} else {
		log.Info("stock check complete", zap.Ints("out_of_stock", report.OutOfStock))
	}
	return report, errs
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortedKeys(m map[int]error) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
