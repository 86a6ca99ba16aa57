package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Store is the authoritative bookmark store on Redis.
//
// Layout: one JSON value per bookmark, one sorted set of IDs per owner
// (score = creation time in microseconds) and one pub/sub channel per
// owner for change events.
type Store struct {
	client *redis.Client
	log    logger.Logger
	now    func() time.Time
	newID  func() (string, error)
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		client: client,
		log:    log,
		now:    time.Now,
		newID:  domain.NewBookmarkID,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
