// Package store defines the authoritative bookmark store the server and
// view instances talk to. Every operation is scoped to one owner.
package store

import (
	"context"
	"io"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Bookmarks is implemented by the redis and memory backends and by the
// HTTP client.
//
// Delete of an id the owner does not have affects nothing and returns nil.
// Subscribe delivers one ChangeEvent per successful insert or delete of
// owner's rows; handlers must not block.
type Bookmarks interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Create(ctx context.Context, owner, title, url string) (domain.Bookmark, error)
	Delete(ctx context.Context, owner, id string) error
	Subscribe(ctx context.Context, owner string, onEvent func(domain.ChangeEvent)) (io.Closer, error)
}

// Pinger reports backend reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
