package tracking

import "strings"

type category int

const (
	categoryPageView category = iota
	categorySearch
	categoryFilter
	categoryContent
	numCategories
)

func (c category) String() string {
	switch c {
	case categoryPageView:
		return "page_view"
	case categorySearch:
		return "search"
	case categoryFilter:
		return "filter"
	case categoryContent:
		return "content"
	default:
		return "unknown"
	}
}

const keySeparator = "|"

func dedupKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// dedupSlots remembers only the last emitted key per category, so only
// immediate repeats are suppressed. Callers serialize access.
type dedupSlots struct {
	last [numCategories]string
	set  [numCategories]bool
}

// markIfNew stores key and returns true unless it equals the category's last key.
func (d *dedupSlots) markIfNew(c category, key string) bool {
	if d.set[c] && d.last[c] == key {
		return false
	}
	d.last[c] = key
	d.set[c] = true
	return true
}

func (d *dedupSlots) reset() {
	*d = dedupSlots{}
}
