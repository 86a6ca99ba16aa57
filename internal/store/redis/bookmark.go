package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// List returns owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	ids, err := s.client.ZRevRange(ctx, OwnerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, domain.Store(domain.MsgLoadFailed, fmt.Errorf("failed to get bookmark IDs: %w", err))
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.Store(domain.MsgLoadFailed, fmt.Errorf("failed to get bookmarks: %w", err))
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value: a delete raced this read.
			continue
		}
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			s.log.Warn("skipping unreadable bookmark",
				logger.String("bookmark_id", ids[i]),
				logger.Error(err))
			continue
		}
		if b.Owner != owner {
			continue
		}
		bookmarks = append(bookmarks, b)
	}

	domain.SortNewestFirst(bookmarks)
	return bookmarks, nil
}

// Create stores a bookmark for owner and announces it on the change channel.
func (s *Store) Create(ctx context.Context, owner, title, url string) (domain.Bookmark, error) {
	if owner == "" {
		return domain.Bookmark{}, domain.Auth(domain.MsgUnauthorized)
	}

	id, err := s.newID()
	if err != nil {
		return domain.Bookmark{}, domain.Store(domain.MsgSaveFailed, err)
	}

	b := domain.Bookmark{
		ID:        id,
		Owner:     owner,
		Title:     title,
		URL:       url,
		CreatedAt: s.now().UTC(),
	}

	data, err := json.Marshal(b)
	if err != nil {
		return domain.Bookmark{}, domain.Store(domain.MsgSaveFailed, fmt.Errorf("failed to marshal bookmark: %w", err))
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(id), data, 0)
		pipe.ZAdd(ctx, OwnerKey(owner), redis.Z{
			Score:  float64(b.CreatedAt.UnixMicro()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, domain.Store(domain.MsgSaveFailed, fmt.Errorf("failed to save bookmark: %w", err))
	}

	s.publish(ctx, domain.ChangeEvent{Type: domain.ChangeInsert, Owner: owner, ID: id, At: b.CreatedAt})
	return b, nil
}

// Delete removes id from owner's set. Only the owner's set is consulted,
// so another owner's id removes nothing and is not an error.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.Auth(domain.MsgUnauthorized)
	}

	removed, err := s.client.ZRem(ctx, OwnerKey(owner), id).Result()
	if err != nil {
		return domain.Store(domain.MsgDeleteFailed, fmt.Errorf("failed to remove bookmark from set: %w", err))
	}
	if removed == 0 {
		return nil
	}

	if err := s.client.Del(ctx, BookmarkKey(id)).Err(); err != nil {
		// The row is already gone from the owner's list; the orphan value is unreachable.
		s.log.Warn("failed to delete bookmark value",
			logger.String("bookmark_id", id),
			logger.Error(err))
	}

	s.publish(ctx, domain.ChangeEvent{Type: domain.ChangeDelete, Owner: owner, ID: id, At: s.now().UTC()})
	return nil
}
