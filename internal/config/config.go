package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store string // "redis" | "memory"

	// Auth
	TokenKey string        // 64 hex chars, PASETO v4.local symmetric key
	TokenTTL time.Duration // lifetime of issued tokens (default: 24h)

	// HTTP surface
	FeedPingInterval time.Duration // websocket keepalive on the change feed (default: 30s)
	RequestTimeout   time.Duration // per-request timeout on the REST routes (default: 5s)
	CORSOrigins      []string      // allowed browser origins, empty = same origin only
	RateLimitRPS     float64       // per client IP on mutation routes
	RateLimitBurst   int

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict health endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARKS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARKS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MARKS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKS_PRETTY_LOG", true),

		Store: strings.ToLower(getenv("MARKS_STORE", StoreRedis)),

		// Auth
		TokenKey: requireEnv("MARKS_TOKEN_KEY"),
		TokenTTL: mustDuration("MARKS_TOKEN_TTL", 24*time.Hour),

		// HTTP surface
		FeedPingInterval: mustDuration("MARKS_FEED_PING_INTERVAL", 30*time.Second),
		RequestTimeout:   mustDuration("MARKS_REQUEST_TIMEOUT", 5*time.Second),
		CORSOrigins:      splitAndTrim(getenv("MARKS_CORS_ORIGINS", "")),
		RateLimitRPS:     getenvFloat("MARKS_RATE_LIMIT_RPS", 5),
		RateLimitBurst:   getenvInt("MARKS_RATE_LIMIT_BURST", 20),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("MARKS_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("MARKS_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("MARKS_TRUST_PROXY", false),
	}

	switch cfg.Store {
	case StoreRedis:
		loadRedis(cfg)
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: MARKS_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.TokenKey = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("MARKS_REDIS_ADDR")
	cfg.RedisUser = getenv("MARKS_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("MARKS_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("MARKS_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("MARKS_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MARKS_REDIS_PASSWORD is required when MARKS_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
