package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// publish announces a committed change. The write already succeeded, so a
// failed publish is logged and swallowed; listeners recover on their next
// signal from another channel.
func (s *Store) publish(ctx context.Context, ev domain.ChangeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("failed to marshal change event", logger.Error(err))
		return
	}
	if err := s.client.Publish(ctx, ChangesChannel(ev.Owner), data).Err(); err != nil {
		s.log.Warn("failed to publish change event",
			logger.String("owner", ev.Owner),
			logger.String("type", string(ev.Type)),
			logger.Error(err))
	}
}

// Subscribe listens on owner's change channel. It returns once Redis has
// confirmed the subscription, so no later write is missed.
func (s *Store) Subscribe(ctx context.Context, owner string, onEvent func(domain.ChangeEvent)) (io.Closer, error) {
	if onEvent == nil {
		return nil, errors.New("redis: nil event handler")
	}

	ps := s.client.Subscribe(ctx, ChangesChannel(owner))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", ChangesChannel(owner), err)
	}

	sub := &feedSubscription{ps: ps, log: s.log.With(logger.String("owner", owner))}
	sub.wg.Add(1)
	go sub.run(owner, onEvent)
	return sub, nil
}

type feedSubscription struct {
	ps   *redis.PubSub
	log  logger.Logger
	wg   sync.WaitGroup
	once sync.Once
	err  error
}

func (sub *feedSubscription) run(owner string, onEvent func(domain.ChangeEvent)) {
	defer sub.wg.Done()

	for msg := range sub.ps.Channel() {
		if chOwner, err := OwnerFromChannel(msg.Channel); err != nil || chOwner != owner {
			continue
		}
		var ev domain.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			sub.log.Warn("dropping malformed change event", logger.Error(err))
			continue
		}
		if ev.Owner != owner {
			continue
		}
		onEvent(ev)
	}
}

// Close unsubscribes and waits for the delivery goroutine.
func (sub *feedSubscription) Close() error {
	sub.once.Do(func() {
		sub.err = sub.ps.Close()
		sub.wg.Wait()
	})
	return sub.err
}
