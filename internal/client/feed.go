package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	defaultFeedPing = 30 * time.Second
	feedWriteWait   = time.Second
)

type feedDialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

func newWSDialer() feedDialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Subscribe opens the change feed. The first connection is made before
// returning so a bad token or unreachable server fails here. After that the
// feed reconnects on its own until closed; every reconnect is reported as a
// synthetic event, since changes may have been missed while it was down.
func (c *Client) Subscribe(ctx context.Context, owner string, onEvent func(domain.ChangeEvent)) (io.Closer, error) {
	if err := c.checkOwner(owner); err != nil {
		return nil, err
	}
	if onEvent == nil {
		return nil, errors.New("client: nil event handler")
	}

	conn, err := c.dialFeed(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &feed{client: c, cancel: cancel, conn: conn}
	f.wg.Add(1)
	go f.run(runCtx, owner, onEvent)
	return f, nil
}

func (c *Client) feedURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/api/bookmarks/feed"
	return u.String()
}

func (c *Client) dialFeed(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{"Authorization": {"Bearer " + c.token}}
	conn, resp, err := c.dialer.DialContext(ctx, c.feedURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.Auth(domain.MsgUnauthorized)
		}
		return nil, domain.Store("change feed unavailable", err)
	}
	c.keepAlive(conn)
	return conn, nil
}

// keepAlive fails reads on a connection that has been silent for two ping
// intervals. Server pings and inbound events both push the deadline out.
func (c *Client) keepAlive(conn *websocket.Conn) {
	wait := 2 * c.ping
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(feedWriteWait))
		var ne net.Error
		if errors.Is(err, websocket.ErrCloseSent) || (errors.As(err, &ne) && ne.Timeout()) {
			return nil
		}
		return err
	})
}

type feed struct {
	client *Client
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (f *feed) run(ctx context.Context, owner string, onEvent func(domain.ChangeEvent)) {
	defer f.wg.Done()
	log := f.client.log.With(logger.String("owner", owner))

	for {
		f.read(owner, onEvent, log)
		if ctx.Err() != nil {
			return
		}

		// Reconnect until it works or we are closed.
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.client.retry):
			}
			conn, err := f.client.dialFeed(ctx)
			if err != nil {
				log.Warn("change feed reconnect failed", logger.Error(err))
				continue
			}
			f.mu.Lock()
			if f.closed {
				f.mu.Unlock()
				_ = conn.Close()
				return
			}
			f.conn = conn
			f.mu.Unlock()
			log.Info("change feed reconnected")
			onEvent(domain.ChangeEvent{Owner: owner, At: time.Now().UTC()})
			break
		}
	}
}

// read pumps events from the current connection until it fails.
func (f *feed) read(owner string, onEvent func(domain.ChangeEvent), log logger.Logger) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	defer conn.Close()

	for {
		var ev domain.ChangeEvent
		if err := conn.ReadJSON(&ev); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Debug("change feed read ended", logger.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * f.client.ping))
		if ev.Owner != owner {
			continue
		}
		onEvent(ev)
	}
}

func (f *feed) Close() error {
	f.once.Do(func() {
		f.cancel()
		f.mu.Lock()
		f.closed = true
		conn := f.conn
		f.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(feedWriteWait))
		_ = conn.Close()
		f.wg.Wait()
	})
	return nil
}
