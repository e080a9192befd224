package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Feed list configuration
	SourceOPML string `long:"source-opml" env:"SOURCE_OPML" default:"./feeds.opml" description:"OPML file exported from the feed reader"`
	TargetOPML string `long:"target-opml" env:"TARGET_OPML" default:"./feeds_dd.opml" description:"Patched OPML file to import back into the feed reader"`
	FeedsFile  string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.json" description:"JSON file mapping source feed URLs to published filenames"`
	TargetDir  string `long:"target-dir" env:"TARGET_DIR" default:"./public" description:"Directory the deduplicated feed files are published into"`
	URLPrefix  string `long:"url-prefix" env:"URL_PREFIX" default:"http://localhost:8080/feeds/" description:"Public URL prefix written into the patched OPML"`

	// Processing configuration
	Interval      int    `long:"interval" env:"INTERVAL" default:"300" description:"Seconds between processing passes"`
	MaxIterations int    `long:"max-iterations" env:"MAX_ITERATIONS" default:"0" description:"Stop after this many passes (0 = run forever)"`
	MaxAgeHours   int    `long:"max-age" env:"MAX_AGE_HOURS" default:"0" description:"Drop items older than this many hours (0 = keep all)"`
	SettingsFile  string `long:"settings-file" env:"SETTINGS_FILE" default:"" description:"Optional YAML file with per-feed overrides"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./rssdeduper.db" description:"Path to the sqlite database"`

	// HTTP server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Deduper/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Berlin)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", raw.Interval)
	}
	if raw.MaxAgeHours < 0 {
		return nil, fmt.Errorf("max-age must not be negative, got %d", raw.MaxAgeHours)
	}

	cfg := &Cfg{
		SourceOPML:    raw.SourceOPML,
		TargetOPML:    raw.TargetOPML,
		FeedsFile:     raw.FeedsFile,
		TargetDir:     raw.TargetDir,
		URLPrefix:     raw.URLPrefix,
		Interval:      raw.Interval,
		MaxIterations: raw.MaxIterations,
		MaxAgeHours:   raw.MaxAgeHours,
		SettingsFile:  raw.SettingsFile,
		DBPath:        raw.DBPath,
		Port:          raw.Port,
		APIAccessKey:  raw.APIAccessKey,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
