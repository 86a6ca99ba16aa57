// Package signal defines the payload exchanged between view instances
// over the broadcast and fallback channels.
package signal

import (
	"encoding/json"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

const (
	// ChannelName is the application wide broadcast channel. It is not per user:
	// receivers filter on Envelope.Owner.
	ChannelName = "marks-sync-channel"
	// SlotKey names the persisted fallback slot.
	SlotKey = "marks-sync"
)

// Envelope says "owner's bookmarks changed". EmittedAt is diagnostic only;
// every envelope triggers a full reconcile regardless of age.
type Envelope struct {
	Owner     string    `json:"owner"`
	EmittedAt time.Time `json:"emitted_at"`
}

// New stamps an envelope for owner.
func New(owner string, now time.Time) Envelope {
	return Envelope{Owner: owner, EmittedAt: now}
}

// Encode serializes the envelope for the fallback slot.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Parse decodes a fallback slot payload. Malformed input yields a
// domain.KindSignalParse error.
func Parse(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, domain.SignalParse(err)
	}
	return env, nil
}

// For reports whether the envelope concerns owner.
func (e Envelope) For(owner string) bool {
	return owner != "" && e.Owner == owner
}
