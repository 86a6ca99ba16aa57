package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/marks/internal/utils"
)

type RateLimitConfig struct {
	RPS           float64 // sustained requests per second per client IP
	Burst         int
	MaxEntries    int
	SweepInterval time.Duration
	IdleTTL       time.Duration
	TrustProxy    bool // resolve IP from proxy headers when true
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter keeps one token bucket per client IP and forgets idle ones.
type keyedLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newKeyedLimiter(cfg RateLimitConfig) *keyedLimiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	return &keyedLimiter{
		cfg:       cfg,
		visitors:  make(map[string]*visitor, 1024),
		lastSweep: time.Now(),
	}
}

func (l *keyedLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.visitors) >= l.cfg.MaxEntries) {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v := l.visitors[key]
	if v == nil {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// allow consumes one token. When none is available it reports how many
// seconds until one will be.
func (l *keyedLimiter) allow(key string, now time.Time) (ok bool, remaining int, retryAfterSec int) {
	lim := l.get(key, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, 0, 1
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, 0, int(math.Max(1, math.Ceil(delay.Seconds())))
	}
	return true, int(math.Floor(lim.TokensAt(now))), 0
}

// RateLimit rejects clients that exceed cfg with 429 and Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newKeyedLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)

			ok, remaining, retry := l.allow(key, time.Now())
			w.Header().Set("X-RateLimit-Limit", limitStr)
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

			next.ServeHTTP(w, r)
		})
	}
}
