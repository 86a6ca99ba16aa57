package homepage

import (
	"sort"
	"strings"
)

// Entry is a title/url pair ready to be submitted as a new bookmark.
type Entry struct {
	Group string
	Title string
	URL   string
}

// MapBookmarks flattens a bookmarks config in file order. Entries without
// an href are dropped. The bookmark name is the title; abbr is only used
// when the name is blank.
func MapBookmarks(config BookmarksConfig) []Entry {
	var out []Entry
	for _, category := range config {
		for _, group := range sortedKeys(category) {
			for _, item := range category[group] {
				for _, name := range sortedKeys(item) {
					list := item[name]
					if len(list) == 0 || strings.TrimSpace(list[0].Href) == "" {
						continue
					}
					title := strings.TrimSpace(name)
					if title == "" {
						title = strings.TrimSpace(list[0].Abbr)
					}
					out = append(out, Entry{Group: group, Title: title, URL: strings.TrimSpace(list[0].Href)})
				}
			}
		}
	}
	return out
}

// MapServices flattens a services config. The service name is the title.
func MapServices(config ServicesConfig) []Entry {
	var out []Entry
	for _, groups := range config {
		for _, group := range sortedKeys(groups) {
			for _, item := range groups[group] {
				for _, name := range sortedKeys(item) {
					href := strings.TrimSpace(item[name].Href)
					if href == "" {
						continue
					}
					out = append(out, Entry{Group: group, Title: strings.TrimSpace(name), URL: href})
				}
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
