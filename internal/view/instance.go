// Package view keeps one open view of a user's bookmarks converged on the
// authoritative list. Each Instance listens on three independent channels
// (remote change feed, same-device broadcast, persisted fallback slot) and
// answers every signal with a full refetch.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Phase is the lifecycle position of an instance.
type Phase int

const (
	Idle Phase = iota
	Subscribed
	TornDown
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Subscribed:
		return "subscribed"
	case TornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Signal sources, used for logging.
const (
	sourceFeed      = "remote_feed"
	sourceBroadcast = "broadcast"
	sourceFallback  = "fallback_slot"
)

var (
	// ErrCreateInFlight is returned when a create is submitted while another is outbound.
	ErrCreateInFlight = errors.New("create already in flight")
	// ErrNotIdle is returned by Start on an instance that was already started or closed.
	ErrNotIdle = errors.New("view instance is not idle")
)

// Options configures an Instance.
type Options struct {
	Owner string
	Store RemoteStore
	// Bus and Slot are optional: a host without one of the mechanisms
	// still converges through the others.
	Bus  Broadcaster
	Slot SignalSlot

	Logger logger.Logger

	// Initial seeds the list; InitialError is shown until the next mutation.
	Initial      []domain.Bookmark
	InitialError string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Instance is one independently running view of owner's bookmarks.
type Instance struct {
	id    string
	owner string
	store RemoteStore
	bus   Broadcaster
	slot  SignalSlot
	log   logger.Logger
	now   func() time.Time
	state *State

	mu        sync.Mutex
	phase     Phase
	listeners []io.Closer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	hookMu sync.RWMutex
	hook   func(Snapshot)
}

// New builds an idle instance. It fails with an auth error when no owner is set.
func New(opts Options) (*Instance, error) {
	if opts.Owner == "" {
		return nil, domain.Auth(domain.MsgUnauthorized)
	}
	if opts.Store == nil {
		return nil, errors.New("view: remote store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	id := uuid.NewString()
	v := &Instance{
		id:    id,
		owner: opts.Owner,
		store: opts.Store,
		bus:   opts.Bus,
		slot:  opts.Slot,
		log: opts.Logger.With(
			logger.String("instance_id", id),
			logger.String("owner", opts.Owner)),
		now:   opts.Now,
		state: newState(opts.Initial, opts.InitialError),
		phase: Idle,
	}
	v.state.setOnChange(v.notify)
	return v, nil
}

// InitialSnapshot loads the list a new instance is seeded with.
// On failure it returns an empty list and the message to show.
func InitialSnapshot(ctx context.Context, store RemoteStore, owner string) ([]domain.Bookmark, string) {
	items, err := store.List(ctx, owner)
	if err != nil {
		return nil, domain.MsgInitialLoadFailed
	}
	return items, ""
}

// ID identifies the instance in logs.
func (v *Instance) ID() string { return v.id }

// Owner is the user this instance is scoped to.
func (v *Instance) Owner() string { return v.owner }

// Phase reports the lifecycle position.
func (v *Instance) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Snapshot copies the current state.
func (v *Instance) Snapshot() Snapshot {
	snap := v.state.snapshot()
	snap.Phase = v.Phase()
	return snap
}

// OnChange registers fn to run after every state change. Only one hook is kept.
func (v *Instance) OnChange(fn func(Snapshot)) {
	v.hookMu.Lock()
	v.hook = fn
	v.hookMu.Unlock()
}

func (v *Instance) notify() {
	v.hookMu.RLock()
	fn := v.hook
	v.hookMu.RUnlock()
	if fn != nil {
		fn(v.Snapshot())
	}
}

// SetDraft stores the form fields a later Submit will use.
func (v *Instance) SetDraft(title, url string) {
	v.state.setDraft(title, url)
}

// Submit creates a bookmark from the current draft.
func (v *Instance) Submit(ctx context.Context) (domain.Bookmark, error) {
	title, url := v.state.draft()
	return v.Create(ctx, title, url)
}
