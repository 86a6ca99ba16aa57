package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// feedServer upgrades every request and hands the n-th connection (from 1)
// to serve. done closes when the test ends; connections close when serve
// returns.
func feedServer(t *testing.T, serve func(n int64, conn *websocket.Conn, done <-chan struct{})) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var dials atomic.Int64
	done := make(chan struct{})
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(dials.Add(1), conn, done)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })
	return srv, &dials
}

func subscribe(t *testing.T, url string, ping time.Duration) <-chan domain.ChangeEvent {
	t.Helper()
	c, err := New(url, "tok", "alice", WithFeedRetry(10*time.Millisecond), WithFeedPing(ping))
	require.NoError(t, err)

	events := make(chan domain.ChangeEvent, 16)
	sub, err := c.Subscribe(context.Background(), "alice", func(ev domain.ChangeEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return events
}

func silent(_ int64, _ *websocket.Conn, done <-chan struct{}) { <-done }

func TestFeedReconnectsAfterServerClose(t *testing.T) {
	srv, dials := feedServer(t, func(n int64, conn *websocket.Conn, done <-chan struct{}) {
		if n == 1 {
			return
		}
		silent(n, conn, done)
	})

	events := subscribe(t, srv.URL, time.Second)

	select {
	case ev := <-events:
		assert.Equal(t, "alice", ev.Owner)
		assert.Empty(t, ev.ID, "reconnect is reported as a bare change")
	case <-time.After(3 * time.Second):
		t.Fatal("no event after the server dropped the feed")
	}
	assert.GreaterOrEqual(t, dials.Load(), int64(2))
}

func TestFeedRedialsSilentConnection(t *testing.T) {
	srv, dials := feedServer(t, silent)

	events := subscribe(t, srv.URL, 50*time.Millisecond)

	select {
	case ev := <-events:
		assert.Equal(t, "alice", ev.Owner)
	case <-time.After(3 * time.Second):
		t.Fatal("silent feed was never redialed")
	}
	assert.GreaterOrEqual(t, dials.Load(), int64(2))
}

func TestFeedStaysUpWhileServerPings(t *testing.T) {
	srv, dials := feedServer(t, func(_ int64, conn *websocket.Conn, done <-chan struct{}) {
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		send := time.After(400 * time.Millisecond)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
					return
				}
			case <-send:
				if err := conn.WriteJSON(domain.ChangeEvent{Type: domain.ChangeInsert, Owner: "alice", ID: "bm-1"}); err != nil {
					return
				}
			}
		}
	})

	events := subscribe(t, srv.URL, 50*time.Millisecond)

	select {
	case ev := <-events:
		assert.Equal(t, "bm-1", ev.ID, "first event is the real one, not a reconnect")
	case <-time.After(3 * time.Second):
		t.Fatal("no event from pinging server")
	}
	assert.Equal(t, int64(1), dials.Load())
}
