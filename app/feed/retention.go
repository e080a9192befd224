package feed

import (
	"strings"
	"time"
)

// RSS 2.0 dates are RFC 2822; feeds in the wild drift on weekday presence,
// day padding and zone form, so several layouts are tried in order.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
}

// withinMaxAge reports whether an item with the given raw pubDate should be
// retained. maxAge is in hours, 0 means unlimited. Items whose date is
// missing or unparseable are always kept: ambiguous data never causes a
// discard.
func withinMaxAge(pubDate string, maxAge int, now time.Time) bool {
	if maxAge == 0 {
		return true
	}

	pubDate = strings.TrimSpace(pubDate)
	for _, layout := range pubDateLayouts {
		parsed, err := time.Parse(layout, pubDate)
		if err != nil {
			continue
		}
		return now.Sub(parsed.UTC()) <= time.Duration(maxAge)*time.Hour
	}

	return true
}
