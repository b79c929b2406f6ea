package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shopapp/internal/cart"
	"shopapp/internal/logger"
	"shopapp/internal/metrics"

	"go.uber.org/zap"
)

type Stats struct {
	Writes   uint64 `json:"writes"`
	Failures uint64 `json:"failures"`
	Dirty    bool   `json:"dirty"`
}

// Persister writes the cart through to a KV after every mutation. Snapshots
// are coalesced: only the newest one is ever written, by a single background
// writer. A failed write leaves the state dirty until the next mutation or
// Flush succeeds.
type Persister struct {
	kv  KV
	key string

	mu      sync.Mutex
	pending []cart.Line
	seq     uint64
	written uint64

	writeMu sync.Mutex
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	started bool
	closed  bool

	writes   metrics.Counter
	failures metrics.Counter
}

func NewPersister(kv KV) *Persister {
	return &Persister{
		kv:   kv,
		key:  CartKey,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Restore loads the persisted cart into store. It must run before the store is
// handed to anything that mutates it. A missing key leaves the cart empty; an
// unreadable snapshot is logged and discarded.
func (p *Persister) Restore(ctx context.Context, store *cart.Store) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "persist"),
		zap.String("method", "Restore"),
	)

	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, ErrKeyNotFound) {
		log.Info("no persisted cart, starting empty")
		return nil
	}
	if err != nil {
		log.Error("failed to read persisted cart", zap.Error(err))
		return err
	}

	lines, err := Decode(data)
	if err == nil {
		err = store.Restore(lines)
	}
	if err != nil {
		log.Warn("discarding unreadable cart snapshot", zap.Error(err))
		return nil
	}

	log.Info("cart restored", zap.Int("lines", len(lines)))
	return nil
}

// Observe is the cart.Observer feeding the background writer.
func (p *Persister) Observe(lines []cart.Line) {
	p.mu.Lock()
	p.pending = lines
	p.seq++
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start launches the background writer.
func (p *Persister) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.wake:
				_ = p.flush(ctx)
			case <-p.stop:
				return
			}
		}
	}()
}

// Flush writes the newest unsaved snapshot, if any.
func (p *Persister) Flush(ctx context.Context) error {
	return p.flush(ctx)
}

// Close stops the writer and flushes whatever is still pending.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	if started {
		close(p.stop)
		<-p.done
	}
	return p.flush(ctx)
}

func (p *Persister) Stats() Stats {
	p.mu.Lock()
	dirty := p.seq != p.written
	p.mu.Unlock()
	return Stats{
		Writes:   p.writes.Load(),
		Failures: p.failures.Load(),
		Dirty:    dirty,
	}
}

func (p *Persister) flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	if p.seq == p.written {
		p.mu.Unlock()
		return nil
	}
	lines, seq := p.pending, p.seq
	p.mu.Unlock()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "persist"),
		zap.Uint64("seq", seq),
		zap.Int("lines", len(lines)),
	)

	data, err := Encode(lines)
	if err != nil {
		p.failures.Inc()
		log.Error("failed to encode cart", zap.Error(err))
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	if err := p.kv.Put(ctx, p.key, data); err != nil {
		p.failures.Inc()
		log.Warn("cart write failed, will retry", zap.Error(err))
		return err
	}

	p.writes.Inc()
	p.mu.Lock()
	if seq > p.written {
		p.written = seq
	}
	p.mu.Unlock()

	log.Debug("cart persisted")
	return nil
}
