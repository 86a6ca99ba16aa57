package homepage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const bookmarksYAML = `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go Docs:
        - abbr: GO
          href: go.dev/doc
- Social:
    - Reddit:
        - abbr: RE
          href: {{HOMEPAGE_VAR_REDDIT}}
`

const servicesYAML = `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: https://adguard.domain.ext
        description: Network-wide ads & trackers blocking DNS server
        widget:
          type: adguard
          username: {{HOMEPAGE_VAR_ADGUARD_USER}}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoadBookmarks(t *testing.T) {
	entries, format, err := NewLoader(writeFile(t, "bookmarks.yaml", bookmarksYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if format != FormatBookmarks {
		t.Errorf("Load() format = %q, want %q", format, FormatBookmarks)
	}

	// Reddit's href is a template variable and is dropped.
	want := []Entry{
		{Group: "Developer", Title: "Github", URL: "https://github.com/"},
		{Group: "Developer", Title: "Go Docs", URL: "go.dev/doc"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Load() returned %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestLoaderLoadServices(t *testing.T) {
	entries, format, err := NewLoader(writeFile(t, "services.yaml", servicesYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if format != FormatServices {
		t.Errorf("Load() format = %q, want %q", format, FormatServices)
	}
	if len(entries) != 1 || entries[0].Title != "AdGuard Home" || entries[0].URL != "https://adguard.domain.ext" {
		t.Errorf("Load() entries = %+v", entries)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, _, err := NewLoader("/nonexistent/path/bookmarks.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		noEntry bool
	}{
		{name: "not yaml", input: "- [unclosed"},
		{name: "scalar root", input: "just a string"},
		{name: "empty list", input: "[]", noEntry: true},
		{name: "only blank hrefs", input: "- G:\n    - X:\n        - href: \"\"\n", noEntry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if got := errors.Is(err, ErrNoEntries); got != tt.noEntry {
				t.Errorf("errors.Is(err, ErrNoEntries) = %v, want %v (err = %v)", got, tt.noEntry, err)
			}
		})
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "two variables on one line",
			input:    []byte("{{A}}:{{B}}"),
			expected: "\"\":\"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
