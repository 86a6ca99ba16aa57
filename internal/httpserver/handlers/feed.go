package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	feedWriteWait   = 10 * time.Second
	feedQueueSize   = 64
	feedReadLimit   = 512
	defaultFeedPing = 30 * time.Second
)

// Feed upgrades to a websocket and streams the caller's ChangeEvents as
// JSON text frames. Inbound frames are ignored apart from pongs and close.
func Feed(d deps.Deps) http.HandlerFunc {
	ping := d.FeedPingInterval
	if ping <= 0 {
		ping = defaultFeedPing
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(d.CORSOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := mw.OwnerFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.MsgUnauthorized)
			return
		}
		log := d.Logger.With(logger.String("owner", owner))

		events := make(chan domain.ChangeEvent, feedQueueSize)
		sub, err := d.Store.Subscribe(r.Context(), owner, func(ev domain.ChangeEvent) {
			select {
			case events <- ev:
			default:
				log.Warn("feed queue full, dropping change event", logger.String("bookmark_id", ev.ID))
			}
		})
		if err != nil {
			log.Error("feed subscribe failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, domain.MsgLoadFailed)
			return
		}
		defer sub.Close()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("feed upgrade failed", logger.Error(err))
			return
		}
		defer conn.Close()

		if d.Feeds != nil {
			d.Feeds.Opened()
			defer d.Feeds.Closed()
		}
		log.Debug("feed opened")

		conn.SetReadLimit(feedReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(2 * ping))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * ping))
		})

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(ping)
		defer ticker.Stop()

		for {
			select {
			case <-gone:
				log.Debug("feed closed by client")
				return

			case <-d.Shutdown:
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(feedWriteWait))
				return

			case ev := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
				if err := conn.WriteJSON(ev); err != nil {
					log.Debug("feed write failed", logger.Error(err))
					return
				}

			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
					log.Debug("feed ping failed", logger.Error(err))
					return
				}
			}
		}
	}
}

// originChecker allows the configured CORS origins. With none configured
// gorilla's same-origin check applies.
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}
