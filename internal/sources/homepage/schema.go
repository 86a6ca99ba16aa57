package homepage

// BookmarksConfig is the root of a Homepage bookmarks.yaml:
//
//	- Category:
//	    - Name:
//	        - abbr: XX
//	          href: https://example.com
//
// Each bookmark name maps to a list holding a single entry.
type BookmarksConfig []map[string][]map[string][]BookmarkEntry

// BookmarkEntry is one bookmark's properties.
type BookmarkEntry struct {
	Icon string `yaml:"icon,omitempty"`
	Abbr string `yaml:"abbr,omitempty"`
	Href string `yaml:"href"`
}

// ServicesConfig is the root of a Homepage services.yaml. Services are
// imported as bookmarks named after the service.
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps holds the service fields we read. Widgets and monitors are
// ignored.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
