package view

import (
	"context"
	"io"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/signal"
)

// RemoteStore is the authoritative dataset. Every call is scoped to owner.
// Delete of a row the owner does not have is a no-op, not an error.
type RemoteStore interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Create(ctx context.Context, owner, title, url string) (domain.Bookmark, error)
	Delete(ctx context.Context, owner, id string) error
	Subscribe(ctx context.Context, owner string, onEvent func(domain.ChangeEvent)) (io.Closer, error)
}

// Broadcaster reaches sibling instances on the same device that are open right now.
type Broadcaster interface {
	Publish(env signal.Envelope) error
	OnMessage(handler func(signal.Envelope)) (io.Closer, error)
}

// SignalSlot is a durable key/value slot shared by every instance on the device.
// A write must reach change handlers that were registered before it.
type SignalSlot interface {
	Write(key string, payload []byte) error
	OnExternalChange(key string, handler func(payload []byte)) (io.Closer, error)
}
