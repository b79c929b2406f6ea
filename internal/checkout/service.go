package checkout

import (
	"context"
	"fmt"
	"sync"

	"shopapp/internal/cart"
	"shopapp/internal/logger"
	"shopapp/internal/stock"

	"go.uber.org/zap"
)

// Reconciler re-checks live stock for the cart.
type Reconciler interface {
	Reconcile(ctx context.Context) (*stock.Result, error)
}

// Service defines the checkout screen's operations.
type Service interface {
	Options() Options
	Select(addressID, paymentID string) error
	Prepare(ctx context.Context) (*Summary, error)
}

type service struct {
	cart       *cart.Store
	reconciler Reconciler

	mu        sync.Mutex
	selection Selection
}

func NewService(store *cart.Store, reconciler Reconciler) Service {
	return &service{
		cart:       store,
		reconciler: reconciler,
		selection: Selection{
			AddressID: DefaultAddressID,
			PaymentID: DefaultPaymentID,
		},
	}
}

func (s *service) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Options{
		Addresses: append([]Address(nil), addresses...),
		Payments:  append([]PaymentMethod(nil), paymentMethods...),
		Selected:  s.selection,
	}
}

// Select changes the shipping address and payment method. An empty id keeps
// the current choice. Nothing changes unless both ids are valid.
func (s *service) Select(addressID, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.selection
	if addressID != "" {
		if _, ok := findAddress(addressID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAddress, addressID)
		}
		next.AddressID = addressID
	}
	if paymentID != "" {
		if _, ok := findPayment(paymentID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPayment, paymentID)
		}
		next.PaymentID = paymentID
	}

	s.selection = next
	return nil
}

// Prepare reconciles the cart against live stock and summarises what is left.
// A stock check that could not run at all leaves the cart as it was.
func (s *service) Prepare(ctx context.Context) (*Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Checkout"),
		zap.String("method", "Prepare"),
	)

	result, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		log.Warn("stock check unavailable, using cart as is", zap.Error(err))
		result = nil
	}

	lines := s.cart.Lines()
	if len(lines) == 0 {
		log.Info("nothing left to check out")
		return nil, ErrCartEmpty
	}

	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()

	addr, _ := findAddress(sel.AddressID)
	pay, _ := findPayment(sel.PaymentID)

	summary := &Summary{
		Lines:   lines,
		Totals:  cart.ComputeTotals(lines),
		Address: addr,
		Payment: pay,
		Stock:   result,
	}

	log.Info("checkout prepared",
		zap.Int("lines", len(lines)),
		zap.String("total", summary.Totals.DiscountedPrice.StringFixed(2)),
		zap.String("address", addr.ID),
		zap.String("payment", pay.ID),
	)
	return summary, nil
}
