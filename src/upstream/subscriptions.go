package upstream

import (
	"sort"
	"sync"
)

// -----------------------------------------------------------------------------

// SubscriptionSet holds the provider symbols the upstream connection is
// subscribed to. It only ever grows: symbols are not removed when the last
// interested client disconnects, matching the intended proxy behavior.
type SubscriptionSet struct {
	mu      sync.Mutex
	symbols map[string]struct{}
}

// -----------------------------------------------------------------------------

func NewSubscriptionSet(initial []string) *SubscriptionSet {
	s := &SubscriptionSet{symbols: make(map[string]struct{}, len(initial))}
	for _, sym := range initial {
		s.symbols[sym] = struct{}{}
	}
	return s
}

// -----------------------------------------------------------------------------

// Add inserts a symbol, reporting whether it was new.
func (s *SubscriptionSet) Add(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.symbols[symbol]; ok {
		return false
	}
	s.symbols[symbol] = struct{}{}
	return true
}

// -----------------------------------------------------------------------------

// Has reports whether a symbol is in the set.
func (s *SubscriptionSet) Has(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.symbols[symbol]
	return ok
}

// -----------------------------------------------------------------------------

// Len returns the number of tracked symbols.
func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.symbols)
}

// -----------------------------------------------------------------------------

// Snapshot returns a consistent sorted copy. The resubscribe sequence after
// a reconnect reads through here so it never observes a half-updated set.
func (s *SubscriptionSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
