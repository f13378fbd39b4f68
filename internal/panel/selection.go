package panel

import (
	"sync"

	"github.com/liliang-cn/webchat/internal/domain"
)

// SelectionStore owns the currently selected site. Writes are serialized and
// every subscriber sees changes in write order. Subscribers must not write to
// the store from inside their callback.
type SelectionStore struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	current   *domain.Selection
	listeners []func(*domain.Selection)
}

// NewSelectionStore creates an empty store
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{}
}

// Current returns the selected site, if any
func (s *SelectionStore) Current() (domain.Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Selection{}, false
	}
	return *s.current, true
}

// Subscribe registers fn to be called after every change
func (s *SelectionStore) Subscribe(fn func(*domain.Selection)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Set overwrites the selection
func (s *SelectionStore) Set(sel domain.Selection) {
	s.write(&sel, nil)
}

// Clear removes the selection
func (s *SelectionStore) Clear() {
	s.write(nil, nil)
}

// ClearIf removes the selection only when it points at vectorDBID, and
// reports whether it did.
func (s *SelectionStore) ClearIf(vectorDBID domain.ID) bool {
	cleared := false
	s.write(nil, func(cur *domain.Selection) bool {
		cleared = cur != nil && cur.VectorDBID == vectorDBID
		return cleared
	})
	return cleared
}

func (s *SelectionStore) write(next *domain.Selection, guard func(*domain.Selection) bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if guard != nil && !guard(s.current) {
		s.mu.Unlock()
		return
	}
	s.current = next
	listeners := append([]func(*domain.Selection){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		var arg *domain.Selection
		if next != nil {
			copied := *next
			arg = &copied
		}
		fn(arg)
	}
}
