package feed

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// SettingsCache loads and serves the optional per-feed override file. The
// file maps feed source URLs to Settings; a missing file simply means no
// overrides.
type SettingsCache struct {
	path  string
	cache map[string]Settings
	mu    sync.RWMutex
}

func NewSettingsCache(path string) *SettingsCache {
	return &SettingsCache{
		path:  path,
		cache: make(map[string]Settings),
	}
}

func (sc *SettingsCache) Run() error {
	if sc.path == "" {
		return nil
	}

	data, err := os.ReadFile(sc.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	parsed := make(map[string]Settings)
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse settings YAML: %w", err)
	}

	for url, settings := range parsed {
		if settings.MaxAgeHours != nil && *settings.MaxAgeHours < 0 {
			return fmt.Errorf("invalid max_age_hours for %s: must be non-negative", url)
		}
	}

	sc.mu.Lock()
	sc.cache = parsed
	sc.mu.Unlock()

	slog.Debug("Feed settings loaded", "path", sc.path, "feeds", len(parsed))
	return nil
}

// Enabled reports whether a feed should be processed; feeds without an
// override are enabled.
func (sc *SettingsCache) Enabled(feedURL string) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	settings, ok := sc.cache[feedURL]
	if !ok || settings.Enabled == nil {
		return true
	}
	return *settings.Enabled
}

// MaxAge returns the retention limit in hours for a feed, falling back to
// the global default when no override is present.
func (sc *SettingsCache) MaxAge(feedURL string, defaultMaxAge int) int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	settings, ok := sc.cache[feedURL]
	if !ok || settings.MaxAgeHours == nil {
		return defaultMaxAge
	}
	return *settings.MaxAgeHours
}
