package domain

import "time"

// ChangeType is the kind of committed row change carried by the remote feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is the opaque "something changed" notification of the remote feed.
// Consumers only look at Owner; the rest is diagnostic.
type ChangeEvent struct {
	Type  ChangeType `json:"type"`
	Owner string     `json:"owner"`
	ID    string     `json:"id"`
	At    time.Time  `json:"at"`
}
