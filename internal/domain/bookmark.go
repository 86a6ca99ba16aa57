package domain

import (
	"sort"
	"time"
)

// Bookmark is a single saved link owned by exactly one user.
// Bookmarks are created and destroyed by the authoritative store only;
// there is no update in place.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the store on creation.
	ID string `json:"id"`

	// Owner is the authenticated user the bookmark belongs to.
	// Every read and write is scoped to it.
	Owner string `json:"owner"`

	// ─────────────────────────────
	// User content
	// ─────────────────────────────

	// Title is trimmed and never empty.
	Title string `json:"title"`

	// URL is an absolute http(s) URL, normalized.
	// Example: https://example.com/
	URL string `json:"url"`

	// ─────────────────────────────
	// Ordering
	// ─────────────────────────────

	// CreatedAt is assigned by the store and is the only sort key (newest first).
	CreatedAt time.Time `json:"created_at"`
}

// SortNewestFirst orders bookmarks by CreatedAt descending.
// Ties fall back to ID so that the order is total and stable across stores.
func SortNewestFirst(items []Bookmark) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

// IsNewestFirst reports whether items respects the list order invariant.
func IsNewestFirst(items []Bookmark) bool {
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.After(items[i-1].CreatedAt) {
			return false
		}
	}
	return true
}
