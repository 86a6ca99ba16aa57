package view

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/signal"
)

// Start arms the three listeners and moves the instance to Subscribed.
// If any listener cannot be armed, the ones already armed are released
// and the instance stays Idle.
func (v *Instance) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.phase != Idle {
		v.mu.Unlock()
		return ErrNotIdle
	}
	v.mu.Unlock()

	// Listener goroutines live as long as the instance, not the caller's ctx.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	var armed []io.Closer
	release := func() {
		cancel()
		for _, l := range armed {
			_ = l.Close()
		}
	}

	feed, err := v.store.Subscribe(ctx, v.owner, func(ev domain.ChangeEvent) {
		if ev.Owner != v.owner {
			return
		}
		v.wake(sourceFeed)
	})
	if err != nil {
		release()
		return fmt.Errorf("subscribe to remote feed: %w", err)
	}
	armed = append(armed, feed)

	if v.bus != nil {
		sub, err := v.bus.OnMessage(func(env signal.Envelope) {
			if !env.For(v.owner) {
				return
			}
			v.wake(sourceBroadcast)
		})
		if err != nil {
			release()
			return fmt.Errorf("open broadcast channel: %w", err)
		}
		armed = append(armed, sub)
	}

	if v.slot != nil {
		sub, err := v.slot.OnExternalChange(signal.SlotKey, v.onSlotChange)
		if err != nil {
			release()
			return fmt.Errorf("watch fallback slot: %w", err)
		}
		armed = append(armed, sub)
	}

	v.mu.Lock()
	if v.phase != Idle {
		// Closed while we were subscribing.
		v.mu.Unlock()
		release()
		return ErrNotIdle
	}
	v.phase = Subscribed
	v.listeners = armed
	v.ctx = runCtx
	v.cancel = cancel
	v.mu.Unlock()

	v.log.Info("view instance subscribed",
		logger.Int("listeners", len(armed)))
	v.notify()
	return nil
}

// Close detaches every listener and waits for signal-driven reconciles to
// finish. Mutations already issued are left to complete on their own.
func (v *Instance) Close() error {
	v.mu.Lock()
	if v.phase == TornDown {
		v.mu.Unlock()
		return nil
	}
	v.phase = TornDown
	listeners := v.listeners
	v.listeners = nil
	cancel := v.cancel
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var errs []error
	for _, l := range listeners {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	v.wg.Wait()
	v.log.Info("view instance torn down")
	return errors.Join(errs...)
}

func (v *Instance) onSlotChange(payload []byte) {
	env, err := signal.Parse(payload)
	if err != nil {
		v.log.Warn("ignoring malformed fallback signal", logger.Error(err))
		return
	}
	if !env.For(v.owner) {
		return
	}
	v.wake(sourceFallback)
}

// wake schedules one reconcile for a delivered signal. Signals are never
// coalesced: over-reconciling is fine, missing one is not.
func (v *Instance) wake(source string) {
	v.mu.Lock()
	if v.phase != Subscribed {
		v.mu.Unlock()
		return
	}
	ctx := v.ctx
	v.wg.Add(1)
	v.mu.Unlock()

	v.log.Debug("signal received", logger.String("source", source))

	go func() {
		defer v.wg.Done()
		v.Reconcile(ctx)
	}()
}

// emit tells the other instances that owner's list changed.
// Failures are logged: the mutation itself already succeeded.
func (v *Instance) emit() {
	env := signal.New(v.owner, v.now())

	if v.bus != nil {
		if err := v.bus.Publish(env); err != nil {
			v.log.Warn("broadcast publish failed", logger.Error(err))
		}
	}

	if v.slot != nil {
		payload, err := env.Encode()
		if err != nil {
			v.log.Warn("encode fallback signal failed", logger.Error(err))
			return
		}
		if err := v.slot.Write(signal.SlotKey, payload); err != nil {
			v.log.Warn("fallback slot write failed", logger.Error(err))
		}
	}
}
