// Package memory is an in-process bookmark store with a change feed.
// It backs tests and single-node deployments without Redis.
package memory

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Store keeps bookmarks per owner.
type Store struct {
	mu     sync.RWMutex
	owners map[string]map[string]domain.Bookmark // owner -> ID -> Bookmark

	subMu   sync.RWMutex
	subs    map[uint64]*subscription
	nextSub uint64

	now   func() time.Time
	newID func() (string, error)
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides bookmark ID generation.
func WithIDs(gen func() (string, error)) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		owners: make(map[string]map[string]domain.Bookmark),
		subs:   make(map[uint64]*subscription),
		now:    time.Now,
		newID:  domain.NewBookmarkID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := s.owners[owner]
	out := make([]domain.Bookmark, 0, len(rows))
	for _, b := range rows {
		out = append(out, b)
	}
	s.mu.RUnlock()

	domain.SortNewestFirst(out)
	return out, nil
}

// Create inserts a bookmark for owner.
func (s *Store) Create(ctx context.Context, owner, title, url string) (domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bookmark{}, err
	}
	if owner == "" {
		return domain.Bookmark{}, domain.Auth(domain.MsgUnauthorized)
	}

	id, err := s.newID()
	if err != nil {
		return domain.Bookmark{}, domain.Store(domain.MsgSaveFailed, err)
	}

	b := domain.Bookmark{
		ID:        id,
		Owner:     owner,
		Title:     title,
		URL:       url,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	rows, ok := s.owners[owner]
	if !ok {
		rows = make(map[string]domain.Bookmark)
		s.owners[owner] = rows
	}
	rows[id] = b
	s.mu.Unlock()

	s.publish(domain.ChangeEvent{Type: domain.ChangeInsert, Owner: owner, ID: id, At: b.CreatedAt})
	return b, nil
}

// Delete removes id from owner's rows. Rows of other owners are untouched
// and no event is published when nothing matched.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if owner == "" {
		return domain.Auth(domain.MsgUnauthorized)
	}

	s.mu.Lock()
	rows := s.owners[owner]
	_, ok := rows[id]
	if ok {
		delete(rows, id)
		if len(rows) == 0 {
			delete(s.owners, owner)
		}
	}
	s.mu.Unlock()

	if ok {
		s.publish(domain.ChangeEvent{Type: domain.ChangeDelete, Owner: owner, ID: id, At: s.now().UTC()})
	}
	return nil
}

// Count returns the number of bookmarks across all owners.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rows := range s.owners {
		n += len(rows)
	}
	return n
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────
// Change feed
// ─────────────────────────────────────────────────────────────────

// Subscribe registers onEvent for owner's changes until the returned
// closer is closed.
func (s *Store) Subscribe(ctx context.Context, owner string, onEvent func(domain.ChangeEvent)) (io.Closer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onEvent == nil {
		return nil, errors.New("memory: nil event handler")
	}

	s.subMu.Lock()
	s.nextSub++
	sub := &subscription{store: s, id: s.nextSub, owner: owner, fn: onEvent}
	s.subs[sub.id] = sub
	s.subMu.Unlock()

	return sub, nil
}

// Subscribers returns the number of open subscriptions.
func (s *Store) Subscribers() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

func (s *Store) publish(ev domain.ChangeEvent) {
	s.subMu.RLock()
	targets := make([]func(domain.ChangeEvent), 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.owner == ev.Owner {
			targets = append(targets, sub.fn)
		}
	}
	s.subMu.RUnlock()

	for _, fn := range targets {
		fn(ev)
	}
}

type subscription struct {
	store *Store
	id    uint64
	owner string
	fn    func(domain.ChangeEvent)
}

func (sub *subscription) Close() error {
	sub.store.subMu.Lock()
	delete(sub.store.subs, sub.id)
	sub.store.subMu.Unlock()
	return nil
}
