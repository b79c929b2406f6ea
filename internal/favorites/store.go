package favorites

import (
	"sort"
	"sync"
)

// Store is the session's set of starred product ids. It is not persisted.
type Store struct {
	mu  sync.RWMutex
	ids map[int]struct{}
}

func NewStore() *Store {
	return &Store{ids: make(map[int]struct{})}
}

func (s *Store) AddFavorite(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *Store) RemoveFavorite(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// ToggleFavorite flips membership and reports whether id is now a favorite.
func (s *Store) ToggleFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Store) ClearFavorites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int]struct{})
}

func (s *Store) Has(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the favorites in ascending order.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
