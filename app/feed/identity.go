package feed

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Identity names one logical article across feeds. It is derived from an
// item's link and used only as a registry key.
type Identity struct {
	ID   string
	Host string
}

var (
	// Canonical UUID: 8-4-4-4-12 hex groups, version nibble 1-5, variant nibble 8/9/a/b
	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}`)
	// Run of at least 6 digits, underscores allowed inside the run
	numberRegex = regexp.MustCompile(`[0-9_]{6}[0-9_]*`)
)

// ExtractIdentity derives a stable identity from an item link. The URL path
// is checked for a valid UUID first, then for a long digit run; if neither
// matches, the whole link string becomes the ID so that distinct links never
// collide. Returns false if the link is not a parseable absolute URL.
//
// The function is pure: it never touches the network or the filesystem, and
// repeated calls with the same input always agree.
func ExtractIdentity(link string) (Identity, bool) {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil || parsed.Host == "" {
		return Identity{}, false
	}

	id := link
	if match := uuidRegex.FindString(parsed.Path); match != "" {
		if _, err := uuid.Parse(match); err == nil {
			id = match
		}
	} else if match := numberRegex.FindString(parsed.Path); match != "" {
		id = match
	}

	return Identity{ID: id, Host: strings.ToLower(parsed.Hostname())}, true
}
