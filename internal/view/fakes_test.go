package view

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/signal"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
)

// flakyStore wraps the memory store with call counters and injectable failures.
type flakyStore struct {
	*memory.Store

	listCalls   atomic.Int32
	createCalls atomic.Int32
	deleteCalls atomic.Int32

	mu           sync.Mutex
	failList     error
	failCreate   error
	failDelete   error
	failSub      error
	noFeed       bool
	createGate   chan struct{}
	deleteGate   chan struct{}
	listOverride func() ([]domain.Bookmark, error)
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.New()}
}

func (f *flakyStore) set(fn func(f *flakyStore)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *flakyStore) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	err, override := f.failList, f.listOverride
	f.mu.Unlock()
	if override != nil {
		return override()
	}
	if err != nil {
		return nil, err
	}
	return f.Store.List(ctx, owner)
}

func (f *flakyStore) Create(ctx context.Context, owner, title, url string) (domain.Bookmark, error) {
	f.createCalls.Add(1)
	f.mu.Lock()
	err, gate := f.failCreate, f.createGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.Bookmark{}, err
	}
	return f.Store.Create(ctx, owner, title, url)
}

func (f *flakyStore) Delete(ctx context.Context, owner, id string) error {
	f.deleteCalls.Add(1)
	f.mu.Lock()
	err, gate := f.failDelete, f.deleteGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}
	return f.Store.Delete(ctx, owner, id)
}

func (f *flakyStore) Subscribe(ctx context.Context, owner string, fn func(domain.ChangeEvent)) (io.Closer, error) {
	f.mu.Lock()
	err, noFeed := f.failSub, f.noFeed
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if noFeed {
		return nopCloser{}, nil
	}
	return f.Store.Subscribe(ctx, owner, fn)
}

// recordingBus counts publishes and forwards them to an inner broadcaster.
type recordingBus struct {
	inner     Broadcaster
	published atomic.Int32
	fail      error
	failOpen  error
}

func (b *recordingBus) Publish(env signal.Envelope) error {
	b.published.Add(1)
	if b.fail != nil {
		return b.fail
	}
	if b.inner == nil {
		return nil
	}
	return b.inner.Publish(env)
}

func (b *recordingBus) OnMessage(h func(signal.Envelope)) (io.Closer, error) {
	if b.failOpen != nil {
		return nil, b.failOpen
	}
	if b.inner == nil {
		return nopCloser{}, nil
	}
	return b.inner.OnMessage(h)
}

// recordingSlot counts writes and forwards them to an inner slot.
type recordingSlot struct {
	inner  SignalSlot
	writes atomic.Int32
}

func (s *recordingSlot) Write(key string, payload []byte) error {
	s.writes.Add(1)
	if s.inner == nil {
		return nil
	}
	return s.inner.Write(key, payload)
}

func (s *recordingSlot) OnExternalChange(key string, h func([]byte)) (io.Closer, error) {
	if s.inner == nil {
		return nopCloser{}, nil
	}
	return s.inner.OnExternalChange(key, h)
}

var errBoom = errors.New("boom")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
