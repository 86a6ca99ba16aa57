package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// Draft is validated user input for a new bookmark.
type Draft struct {
	Title string
	URL   string
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// NewDraft trims the title and normalizes the URL.
// It fails with a validation error before anything touches the network.
func NewDraft(title, rawURL string) (Draft, error) {
	t := strings.TrimSpace(title)
	u, ok := NormalizeURL(rawURL)
	if t == "" || !ok {
		return Draft{}, Validation(MsgInvalidInput)
	}
	return Draft{Title: t, URL: u}, nil
}

// NormalizeURL returns the canonical form of a user supplied link.
// A missing scheme is read as https ("example.com" -> "https://example.com/").
// Only http and https are accepted.
func NormalizeURL(input string) (string, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return "", false
	}

	if !schemePattern.MatchString(value) {
		value = "https://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", false
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if parsed.Hostname() == "" || parsed.Opaque != "" {
		return "", false
	}

	parsed.Host = strings.ToLower(parsed.Host)
	if parsed.Path == "" && parsed.RawPath == "" {
		parsed.Path = "/"
	}

	return parsed.String(), true
}
