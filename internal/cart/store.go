package cart

import (
	"fmt"
	"sync"

	"shopapp/internal/catalog"
)

// Observer receives the cart contents after every mutation that changed them.
// Observers run while the store is locked and must not call back into it.
type Observer func(lines []Line)

// Store holds the cart lines in insertion order, at most one per product id.
type Store struct {
	mu        sync.Mutex
	lines     []Line
	observers []Observer
}

func NewStore() *Store {
	return &Store{lines: []Line{}}
}

func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// AddToCart bumps the quantity of an existing line or appends a new line
// holding a snapshot of p.
func (s *Store) AddToCart(p catalog.Product) {
	s.mutate(func() bool {
		if i := s.find(p.ID); i >= 0 {
			s.lines[i].Quantity++
			return true
		}
		s.lines = append(s.lines, Line{Product: p.Clone(), Quantity: 1})
		return true
	})
}

func (s *Store) IncrementQuantity(id int) {
	s.mutate(func() bool {
		i := s.find(id)
		if i < 0 {
			return false
		}
		s.lines[i].Quantity++
		return true
	})
}

// DecrementQuantity drops the line once its quantity reaches zero.
func (s *Store) DecrementQuantity(id int) {
	s.mutate(func() bool {
		i := s.find(id)
		if i < 0 {
			return false
		}
		s.lines[i].Quantity--
		if s.lines[i].Quantity <= 0 {
			s.removeAt(i)
		}
		return true
	})
}

func (s *Store) RemoveFromCart(id int) {
	s.mutate(func() bool {
		i := s.find(id)
		if i < 0 {
			return false
		}
		s.removeAt(i)
		return true
	})
}

// ClearOutOfStock removes every line whose id is in ids.
func (s *Store) ClearOutOfStock(ids []int) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mutate(func() bool {
		kept := s.lines[:0]
		for _, l := range s.lines {
			if _, ok := drop[l.ID()]; !ok {
				kept = append(kept, l)
			}
		}
		changed := len(kept) != len(s.lines)
		for i := len(kept); i < len(s.lines); i++ {
			s.lines[i] = Line{}
		}
		s.lines = kept
		return changed
	})
}

func (s *Store) ClearCart() {
	s.mutate(func() bool {
		if len(s.lines) == 0 {
			return false
		}
		s.lines = []Line{}
		return true
	})
}

// Restore replaces the contents with previously persisted lines without
// notifying observers. Lines that would break the one-line-per-id or
// positive-quantity rules are rejected as a whole.
func (s *Store) Restore(lines []Line) error {
	seen := make(map[int]struct{}, len(lines))
	restored := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ID() <= 0 {
			return fmt.Errorf("%w: id %d", ErrInvalidProduct, l.ID())
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: product %d has quantity %d", ErrInvalidQuantity, l.ID(), l.Quantity)
		}
		if _, dup := seen[l.ID()]; dup {
			return fmt.Errorf("%w: product %d", ErrDuplicateLine, l.ID())
		}
		seen[l.ID()] = struct{}{}
		restored = append(restored, l.clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = restored
	return nil
}

// Lines returns a copy of the cart in display order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Line(id int) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(id); i >= 0 {
		return s.lines[i].clone(), true
	}
	return Line{}, false
}

func (s *Store) IDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(s.lines))
	for i, l := range s.lines {
		ids[i] = l.ID()
	}
	return ids
}

// Len is the number of distinct lines, not the item count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Count is the number of items across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.lines)
}

func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn() {
		return
	}
	if len(s.observers) == 0 {
		return
	}
	lines := s.snapshot()
	for _, o := range s.observers {
		o(lines)
	}
}

func (s *Store) find(id int) int {
	for i, l := range s.lines {
		if l.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

func (s *Store) snapshot() []Line {
	out := make([]Line, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.clone()
	}
	return out
}
