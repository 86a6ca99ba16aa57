package homepage

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Format tells which Homepage file a document was read as.
type Format string

const (
	FormatBookmarks Format = "bookmarks"
	FormatServices  Format = "services"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage bookmarks.yaml or services.yaml.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads the file and returns its entries. The bookmarks layout is
// tried first, then the services layout.
func (l *Loader) Load() ([]Entry, Format, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", l.filePath, err)
	}
	return Parse(data)
}

// Parse decodes a Homepage document held in memory.
func Parse(data []byte) ([]Entry, Format, error) {
	data = stripTemplateVariables(data)

	var bookmarks BookmarksConfig
	bErr := yaml.Unmarshal(data, &bookmarks)
	if bErr == nil {
		if entries := MapBookmarks(bookmarks); len(entries) > 0 {
			return entries, FormatBookmarks, nil
		}
	}

	var services ServicesConfig
	sErr := yaml.Unmarshal(data, &services)
	if sErr == nil {
		if entries := MapServices(services); len(entries) > 0 {
			return entries, FormatServices, nil
		}
	}

	if bErr != nil && sErr != nil {
		return nil, "", fmt.Errorf("failed to parse homepage yaml: %w", errors.Join(bErr, sErr))
	}
	return nil, "", ErrNoEntries
}

// ErrNoEntries is returned for a well-formed file without any usable link.
var ErrNoEntries = errors.New("no bookmarks with an href found")

// stripTemplateVariables blanks Homepage template variables.
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
