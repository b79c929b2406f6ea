package stock

import (
	"context"
	"sort"

	"shopapp/internal/cart"
	"shopapp/internal/catalog"
	"shopapp/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Result struct {
	RunID   string `json:"run_id"`
	Checked []int  `json:"checked"`
	Removed []int  `json:"removed"`
	Failed  []int  `json:"failed"`
}

// Reconciler removes cart lines whose product has sold out. Ids whose check
// failed stay in the cart.
type Reconciler struct {
	cart    *cart.Store
	catalog catalog.Client
}

func NewReconciler(store *cart.Store, client catalog.Client) *Reconciler {
	return &Reconciler{cart: store, catalog: client}
}

// Reconcile only returns an error when no check could run at all; partial
// failures are reported through Result.Failed.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:   uuid.NewString(),
		Checked: r.cart.IDs(),
		Removed: []int{},
		Failed:  []int{},
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "stock"),
		zap.String("method", "Reconcile"),
		zap.String("run_id", res.RunID),
		zap.Ints("items", res.Checked),
	)

	if len(res.Checked) == 0 {
		log.Debug("cart empty, nothing to reconcile")
		return res, nil
	}

	report, err := r.catalog.CheckStock(ctx, res.Checked)
	if report == nil {
		log.Error("stock check failed", zap.Error(err))
		return nil, err
	}
	if err != nil {
		log.Warn("some stock checks failed, keeping those items", zap.Error(err))
	}

	for id := range report.Failed {
		res.Failed = append(res.Failed, id)
	}
	sort.Ints(res.Failed)

	if len(report.OutOfStock) > 0 {
		r.cart.ClearOutOfStock(report.OutOfStock)
		res.Removed = append(res.Removed, report.OutOfStock...)
		sort.Ints(res.Removed)
	}

	log.Info("stock reconciled",
		zap.Ints("removed", res.Removed),
		zap.Ints("failed", res.Failed),
	)
	return res, nil
}
