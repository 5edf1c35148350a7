package search

import (
	"strings"
	"time"
)

// metatag keys checked in order of relevance
var pubDateKeys = []string{
	"article:published_time", "article:modified_time",
	"og:published_time", "og:updated_time",
	"datePublished", "date", "pubdate",
}

var pubDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
	"January 2, 2006",
	"2 January 2006",
}

// pubDateOf extracts the publication or registration date a search result
// advertises in its page metatags. Returns nil when no parseable date is
// present; the freshness gate treats unknown dates as pass-through.
func pubDateOf(metatags []map[string]string) *time.Time {
	for _, mt := range metatags {
		for _, key := range pubDateKeys {
			val, ok := mt[key]
			if !ok || val == "" {
				continue
			}
			if t, ok := parseDate(val); ok {
				return &t
			}
		}
	}
	return nil
}

func parseDate(val string) (time.Time, bool) {
	val = strings.TrimSpace(val)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			// drop the zone so ages compare against local wall time
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
