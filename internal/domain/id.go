package domain

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const bookmarkIDPrefix = "bm"

// NewBookmarkID returns a prefixed NanoID, e.g. "bm-V1StGXR8_Z5jdHi6B-myT".
func NewBookmarkID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return bookmarkIDPrefix + "-" + id, nil
}
