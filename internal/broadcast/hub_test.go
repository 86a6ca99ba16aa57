package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/marks/internal/signal"
)

func collect(t *testing.T, c *Channel) (func() []signal.Envelope, func()) {
	t.Helper()

	var (
		mu  sync.Mutex
		got []signal.Envelope
	)
	sub, err := c.OnMessage(func(env signal.Envelope) {
		mu.Lock()
		got = append(got, env)
		mu.Unlock()
	})
	require.NoError(t, err)

	read := func() []signal.Envelope {
		mu.Lock()
		defer mu.Unlock()
		return append([]signal.Envelope(nil), got...)
	}
	return read, func() { _ = sub.Close() }
}

func TestPublishReachesEveryListenerIncludingSender(t *testing.T) {
	hub := NewHub(nil, 0)
	defer hub.Close()

	ch := hub.Channel(signal.ChannelName)
	a, closeA := collect(t, ch)
	defer closeA()
	b, closeB := collect(t, ch)
	defer closeB()

	env := signal.New("user-1", time.Unix(100, 0))
	require.NoError(t, ch.Publish(env))

	assert.Eventually(t, func() bool { return len(a()) == 1 && len(b()) == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, "user-1", a()[0].Owner)
}

func TestChannelIsSharedByName(t *testing.T) {
	hub := NewHub(nil, 0)
	defer hub.Close()

	assert.Same(t, hub.Channel("x"), hub.Channel("x"))
	assert.NotSame(t, hub.Channel("x"), hub.Channel("y"))
}

func TestOtherChannelsAreIsolated(t *testing.T) {
	hub := NewHub(nil, 0)
	defer hub.Close()

	got, closeFn := collect(t, hub.Channel("other"))
	defer closeFn()

	require.NoError(t, hub.Channel(signal.ChannelName).Publish(signal.New("u", time.Now())))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got())
}

func TestCloseStopsDelivery(t *testing.T) {
	hub := NewHub(nil, 0)
	defer hub.Close()

	ch := hub.Channel(signal.ChannelName)
	got, closeFn := collect(t, ch)
	closeFn()
	closeFn()

	assert.Equal(t, 0, ch.Listeners())
	require.NoError(t, ch.Publish(signal.New("u", time.Now())))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got())
}

func TestClosedHubRejects(t *testing.T) {
	hub := NewHub(nil, 0)
	ch := hub.Channel(signal.ChannelName)
	_, closeFn := collect(t, ch)
	defer closeFn()

	require.NoError(t, hub.Close())

	assert.ErrorIs(t, ch.Publish(signal.New("u", time.Now())), ErrClosed)
	_, err := ch.OnMessage(func(signal.Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, ch.Listeners())
}

func TestFullQueueNeverBlocksPublisher(t *testing.T) {
	hub := NewHub(nil, 1)
	defer hub.Close()

	ch := hub.Channel(signal.ChannelName)
	release := make(chan struct{})
	sub, err := ch.OnMessage(func(signal.Envelope) { <-release })
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = ch.Publish(signal.New("u", time.Now()))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow listener")
	}

	close(release)
	require.NoError(t, sub.Close())
}

func TestFullQueueKeepsLatestEnvelopePerOwner(t *testing.T) {
	hub := NewHub(nil, 1)
	defer hub.Close()

	ch := hub.Channel(signal.ChannelName)
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	var (
		mu  sync.Mutex
		got []signal.Envelope
	)
	sub, err := ch.OnMessage(func(env signal.Envelope) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		mu.Lock()
		got = append(got, env)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Close()

	base := time.Unix(1700000000, 0).UTC()
	require.NoError(t, ch.Publish(signal.New("alice", base)))
	<-entered

	// handler is stuck, queue holds one, the rest overflow
	for i := 1; i <= 5; i++ {
		require.NoError(t, ch.Publish(signal.New("alice", base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, ch.Publish(signal.New("bob", base)))
	close(release)

	lastFor := func(owner string) time.Time {
		mu.Lock()
		defer mu.Unlock()
		var at time.Time
		for _, env := range got {
			if env.Owner == owner && env.EmittedAt.After(at) {
				at = env.EmittedAt
			}
		}
		return at
	}
	assert.Eventually(t, func() bool {
		return lastFor("alice").Equal(base.Add(5*time.Second)) && lastFor("bob").Equal(base)
	}, time.Second, 5*time.Millisecond)
}
