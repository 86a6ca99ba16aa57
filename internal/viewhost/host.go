// Package viewhost runs several view instances of one owner side by side,
// sharing a device-local broadcast channel and a fallback signal slot, and
// drives them from line commands.
package viewhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/broadcast"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/signal"
	"github.com/MrSnakeDoc/marks/internal/signalslot"
	"github.com/MrSnakeDoc/marks/internal/view"
)

// StoreFactory returns the remote store for the i-th instance. Each
// instance gets its own so that each holds its own feed connection.
type StoreFactory func(i int) (view.RemoteStore, error)

type Options struct {
	Owner     string
	Instances int
	NewStore  StoreFactory
	SlotDir   string // empty disables the fallback slot
	Logger    logger.Logger
	Out       io.Writer
	Prompt    bool // print a prompt before each command
}

// Host owns the instances and the device-local channels they share.
type Host struct {
	owner     string
	log       logger.Logger
	hub       *broadcast.Hub
	slot      *signalslot.FileSlot
	instances []*view.Instance

	outMu  sync.Mutex
	out    io.Writer
	prompt bool

	active int
}

// Open starts opts.Instances instances, each seeded with an initial
// snapshot and subscribed to every channel.
func Open(ctx context.Context, opts Options) (*Host, error) {
	if opts.Instances < 1 {
		return nil, errors.New("at least one instance is required")
	}
	if opts.NewStore == nil {
		return nil, errors.New("store factory is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	h := &Host{
		owner:  opts.Owner,
		log:    opts.Logger,
		hub:    broadcast.NewHub(opts.Logger, broadcast.DefaultBuffer),
		out:    opts.Out,
		prompt: opts.Prompt,
	}

	if opts.SlotDir != "" {
		slot, err := signalslot.New(opts.SlotDir, opts.Logger)
		if err != nil {
			_ = h.hub.Close()
			return nil, fmt.Errorf("signal slot: %w", err)
		}
		h.slot = slot
	}

	for i := 0; i < opts.Instances; i++ {
		v, err := h.openInstance(ctx, i, opts.NewStore)
		if err != nil {
			_ = h.Close()
			return nil, fmt.Errorf("instance %d: %w", i+1, err)
		}
		h.instances = append(h.instances, v)
	}
	return h, nil
}

func (h *Host) openInstance(ctx context.Context, i int, newStore StoreFactory) (*view.Instance, error) {
	st, err := newStore(i)
	if err != nil {
		return nil, err
	}

	items, initialErr := view.InitialSnapshot(ctx, st, h.owner)
	opts := view.Options{
		Owner:        h.owner,
		Store:        st,
		Bus:          h.hub.Channel(signal.ChannelName),
		Logger:       h.log.With(logger.Int("view", i+1)),
		Initial:      items,
		InitialError: initialErr,
	}
	if h.slot != nil {
		opts.Slot = h.slot
	}

	v, err := view.New(opts)
	if err != nil {
		return nil, err
	}
	if err := v.Start(ctx); err != nil {
		return nil, err
	}

	n := i + 1
	var (
		mu   sync.Mutex
		last view.Snapshot
	)
	v.OnChange(func(s view.Snapshot) {
		mu.Lock()
		changed := !s.LastReconcile.Equal(last.LastReconcile) || s.LastError != last.LastError
		last = s
		mu.Unlock()
		if changed {
			h.printf("[view %d] %s\n", n, summary(s))
		}
	})
	return v, nil
}

// Instances returns the running instances in open order.
func (h *Host) Instances() []*view.Instance { return h.instances }

// Active is the instance commands are sent to.
func (h *Host) Active() *view.Instance { return h.instances[h.active] }

// Close tears down every instance, then the shared channels.
func (h *Host) Close() error {
	var errs []error
	for _, v := range h.instances {
		errs = append(errs, v.Close())
	}
	errs = append(errs, h.hub.Close())
	return errors.Join(errs...)
}

func (h *Host) printf(format string, args ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	_, _ = fmt.Fprintf(h.out, format, args...)
}

func summary(s view.Snapshot) string {
	msg := fmt.Sprintf("%d bookmark(s)", len(s.Items))
	if s.LastError != "" {
		msg += " ! " + s.LastError
	}
	return msg
}
