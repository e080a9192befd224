package feed

import (
	"time"
)

// Metadata carries channel-level information extracted from a fetched
// document. It feeds the database and the status API only; dedup decisions
// never depend on it.
type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	PublishedAt *time.Time
}

// Settings are optional per-feed overrides loaded from the settings YAML
// file, keyed by feed source URL. Nil fields fall back to the global
// configuration.
type Settings struct {
	Enabled     *bool `yaml:"enabled"`
	MaxAgeHours *int  `yaml:"max_age_hours"`
}
