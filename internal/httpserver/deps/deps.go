package deps

import (
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/store"
)

// TokenVerifier resolves a bearer token to its owner.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to reach the bookmark routes
	AllowedCIDRS []string // IPs allowed to access readyz/infra endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Store     store.Bookmarks // authoritative bookmark store
	Pinger    store.Pinger    // nil when the backend has nothing to ping
	StoreKind string          // "redis" | "memory", reported by /infra
	Tokens    TokenVerifier

	RequestTimeout   time.Duration // REST routes only; the feed is long lived
	FeedPingInterval time.Duration
	CORSOrigins      []string
	RateLimitRPS     float64
	RateLimitBurst   int

	Feeds    *FeedStats      // open change feed connections
	Shutdown <-chan struct{} // closed when the server stops; ends hijacked feed connections
}

// FeedStats counts change feed websocket connections.
type FeedStats struct {
	active atomic.Int64
	total  atomic.Int64
}

func (f *FeedStats) Opened() {
	f.active.Add(1)
	f.total.Add(1)
}

func (f *FeedStats) Closed() { f.active.Add(-1) }

func (f *FeedStats) Active() int64 { return f.active.Load() }

func (f *FeedStats) Total() int64 { return f.total.Load() }

// WithDefaults fills the optional fields left zero.
func (d Deps) WithDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.TimeNow == nil {
		d.TimeNow = time.Now
	}
	if d.StartTime.IsZero() {
		d.StartTime = d.TimeNow()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 5 * time.Second
	}
	if d.Feeds == nil {
		d.Feeds = &FeedStats{}
	}
	return d
}
