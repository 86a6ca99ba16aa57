// Package broadcast is the same-device message bus between view instances.
// Every listener on a channel receives every envelope published on it,
// including the publisher's own listener.
package broadcast

import (
	"errors"
	"io"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/signal"
)

// DefaultBuffer is the per-listener queue length.
const DefaultBuffer = 32

// ErrClosed is returned when publishing or listening on a closed hub.
var ErrClosed = errors.New("broadcast hub closed")

// Hub owns the named channels of one device.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*Channel
	closed   bool
	buffer   int
	log      logger.Logger
}

// NewHub creates a hub. A buffer <= 0 uses DefaultBuffer.
func NewHub(log logger.Logger, buffer int) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		channels: make(map[string]*Channel),
		buffer:   buffer,
		log:      log,
	}
}

// Channel returns the channel called name, creating it on first use.
func (h *Hub) Channel(name string) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.channels[name]; ok {
		return c
	}
	c := &Channel{
		name:   name,
		hub:    h,
		subs:   make(map[uint64]*listener),
		buffer: h.buffer,
		log:    h.log.With(logger.String("channel", name)),
	}
	h.channels[name] = c
	return c
}

// Close detaches every listener on every channel.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	channels := make([]*Channel, 0, len(h.channels))
	for _, c := range h.channels {
		channels = append(channels, c)
	}
	h.mu.Unlock()

	for _, c := range channels {
		c.closeAll()
	}
	return nil
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Channel fans envelopes out to its listeners.
type Channel struct {
	name   string
	hub    *Hub
	buffer int
	log    logger.Logger

	mu   sync.RWMutex
	subs map[uint64]*listener
	next uint64
}

// Name of the channel.
func (c *Channel) Name() string { return c.name }

// Publish queues env for every listener without blocking. When a
// listener's queue is full, env replaces any pending envelope for the same
// owner and is delivered once the handler catches up, so the latest signal
// per owner always arrives.
func (c *Channel) Publish(env signal.Envelope) error {
	if c.hub.isClosed() {
		return ErrClosed
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for id, l := range c.subs {
		if !l.offer(env) {
			c.log.Debug("listener queue full, coalescing envelope",
				logger.Int("listener", int(id)),
				logger.String("owner", env.Owner))
		}
	}
	return nil
}

// OnMessage registers handler. Handlers run on a goroutine owned by the
// listener, one envelope at a time. Close stops delivery and waits for a
// running handler to return.
func (c *Channel) OnMessage(handler func(signal.Envelope)) (io.Closer, error) {
	if handler == nil {
		return nil, errors.New("broadcast: nil handler")
	}
	if c.hub.isClosed() {
		return nil, ErrClosed
	}

	l := &listener{
		channel: c,
		queue:   make(chan signal.Envelope, c.buffer),
		dirty:   make(chan struct{}, 1),
		pending: make(map[string]signal.Envelope),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	c.mu.Lock()
	c.next++
	l.id = c.next
	c.subs[l.id] = l
	c.mu.Unlock()

	go l.run(handler)
	return l, nil
}

// Listeners reports how many handlers are attached.
func (c *Channel) Listeners() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

func (c *Channel) remove(id uint64) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

func (c *Channel) closeAll() {
	c.mu.RLock()
	subs := make([]*listener, 0, len(c.subs))
	for _, l := range c.subs {
		subs = append(subs, l)
	}
	c.mu.RUnlock()

	for _, l := range subs {
		_ = l.Close()
	}
}

type listener struct {
	id      uint64
	channel *Channel
	queue   chan signal.Envelope
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// overflow: latest envelope per owner, flagged through dirty
	mu      sync.Mutex
	pending map[string]signal.Envelope
	dirty   chan struct{}
}

// offer reports false when env went to the overflow slot.
func (l *listener) offer(env signal.Envelope) bool {
	select {
	case l.queue <- env:
		return true
	default:
	}

	l.mu.Lock()
	l.pending[env.Owner] = env
	l.mu.Unlock()

	select {
	case l.dirty <- struct{}{}:
	default:
	}
	return false
}

func (l *listener) takePending() []signal.Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]signal.Envelope, 0, len(l.pending))
	for owner, env := range l.pending {
		out = append(out, env)
		delete(l.pending, owner)
	}
	return out
}

func (l *listener) run(handler func(signal.Envelope)) {
	defer close(l.stopped)
	for {
		var batch []signal.Envelope
		select {
		case <-l.done:
			return
		case env := <-l.queue:
			batch = []signal.Envelope{env}
		case <-l.dirty:
			batch = l.takePending()
		}
		for _, env := range batch {
			select {
			case <-l.done:
				return
			default:
			}
			handler(env)
		}
	}
}

func (l *listener) Close() error {
	l.once.Do(func() {
		l.channel.remove(l.id)
		close(l.done)
	})
	<-l.stopped
	return nil
}
