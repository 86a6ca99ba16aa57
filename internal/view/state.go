package view

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Snapshot is a read-only copy of a view instance's state.
type Snapshot struct {
	Items           []domain.Bookmark
	PendingDeleteID string
	PendingCreate   bool
	LastError       string
	DraftTitle      string
	DraftURL        string
	LastReconcile   time.Time
	Phase           Phase
}

// State holds what one view instance renders.
// items is always a verbatim copy of the last successful refetch.
type State struct {
	mu              sync.RWMutex
	items           []domain.Bookmark
	pendingDeleteID string
	pendingCreate   bool
	lastError       string
	draftTitle      string
	draftURL        string
	lastReconcile   time.Time

	onChange func()
}

func newState(initial []domain.Bookmark, initialError string) *State {
	return &State{
		items:     cloneItems(initial),
		lastError: initialError,
	}
}

func (s *State) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Items:           cloneItems(s.items),
		PendingDeleteID: s.pendingDeleteID,
		PendingCreate:   s.pendingCreate,
		LastError:       s.lastError,
		DraftTitle:      s.draftTitle,
		DraftURL:        s.draftURL,
		LastReconcile:   s.lastReconcile,
	}
}

// replaceItems swaps the whole list. No merge with the previous snapshot.
func (s *State) replaceItems(items []domain.Bookmark, at time.Time) {
	s.update(func() {
		s.items = cloneItems(items)
		s.lastReconcile = at
	})
}

func (s *State) setError(msg string) {
	s.update(func() { s.lastError = msg })
}

// beginCreate marks a create outbound. It refuses while another one is.
func (s *State) beginCreate() bool {
	ok := false
	s.update(func() {
		if s.pendingCreate {
			return
		}
		s.pendingCreate = true
		s.lastError = ""
		ok = true
	})
	return ok
}

func (s *State) endCreate() {
	s.update(func() { s.pendingCreate = false })
}

// beginDelete marks id in flight. A second call for the same id is refused.
func (s *State) beginDelete(id string) bool {
	ok := false
	s.update(func() {
		if s.pendingDeleteID == id {
			return
		}
		s.pendingDeleteID = id
		s.lastError = ""
		ok = true
	})
	return ok
}

// endDelete clears the marker only if it still belongs to id.
func (s *State) endDelete(id string) {
	s.update(func() {
		if s.pendingDeleteID == id {
			s.pendingDeleteID = ""
		}
	})
}

func (s *State) setDraft(title, url string) {
	s.update(func() {
		s.draftTitle = title
		s.draftURL = url
	})
}

func (s *State) draft() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draftTitle, s.draftURL
}

func (s *State) clearDraft() {
	s.setDraft("", "")
}

// update runs fn under the write lock, then fires the change hook outside it.
func (s *State) update(fn func()) {
	s.mu.Lock()
	fn()
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (s *State) setOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func cloneItems(items []domain.Bookmark) []domain.Bookmark {
	out := make([]domain.Bookmark, len(items))
	copy(out, items)
	return out
}
