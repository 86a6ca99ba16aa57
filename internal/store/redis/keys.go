package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "marks:bookmark:"
	// KeyPrefixOwner is the prefix for the per-owner sorted set of bookmark IDs
	KeyPrefixOwner = "marks:owner:"
	// ChannelPrefixChanges is the prefix for the per-owner pub/sub change channel
	ChannelPrefixChanges = "marks:changes:"
)

// BookmarkKey returns the Redis key holding a bookmark's JSON.
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerKey returns the sorted set of owner's bookmark IDs, scored by creation time.
func OwnerKey(owner string) string {
	return KeyPrefixOwner + owner + ":bookmarks"
}

// ChangesChannel returns the pub/sub channel carrying owner's change events.
func ChangesChannel(owner string) string {
	return ChannelPrefixChanges + owner
}

// OwnerFromChannel extracts the owner from a change channel name.
func OwnerFromChannel(channel string) (string, error) {
	owner, ok := strings.CutPrefix(channel, ChannelPrefixChanges)
	if !ok || owner == "" {
		return "", fmt.Errorf("invalid change channel: %s", channel)
	}
	return owner, nil
}
