package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/httpserver"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/redis"
	"github.com/MrSnakeDoc/marks/internal/store"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/marks/internal/store/redis"
	"github.com/MrSnakeDoc/marks/internal/utils"
	"github.com/MrSnakeDoc/marks/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
}

// backend is what both store implementations offer.
type backend interface {
	store.Bookmarks
	store.Pinger
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	tokens, err := auth.NewTokenService(cfg.TokenKey, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	var (
		bookmarks   backend
		redisClient *goredis.Client
	)
	switch cfg.Store {
	case config.StoreRedis:
		// Fail fast if Redis never comes up.
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(context.Background(), redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")
		bookmarks = redisstore.NewStore(redisClient, loggerClient)
	default:
		loggerClient.Warn("using in-memory store, bookmarks are lost on restart")
		bookmarks = memory.New()
	}

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,

		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,

		Store:     bookmarks,
		Pinger:    bookmarks,
		StoreKind: cfg.Store,
		Tokens:    tokens,

		RequestTimeout:   cfg.RequestTimeout,
		FeedPingInterval: cfg.FeedPingInterval,
		CORSOrigins:      cfg.CORSOrigins,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		Feeds:            &deps.FeedStats{},
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting marks %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("marks %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ marks stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
