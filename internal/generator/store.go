package generator

import (
	"sync"

	"github.com/th3rrry/minees/internal/model"
)

// Store holds the latest signal per instrument. Entries are replaced, never
// removed; Snapshot returns them in first-insertion order.
type Store struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.Signal
}

func NewStore() *Store {
	return &Store{byID: make(map[string]model.Signal)}
}

// Put stores sig as the latest signal of sig.Pair.
func (s *Store) Put(sig model.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sig.Pair]; !ok {
		s.order = append(s.order, sig.Pair)
	}
	s.byID[sig.Pair] = sig
}

func (s *Store) Get(pair string) (model.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.byID[pair]
	return sig, ok
}

func (s *Store) Snapshot() []model.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Signal, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
