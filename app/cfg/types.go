package cfg

type Cfg struct {
	// Feed list configuration
	SourceOPML string
	TargetOPML string
	FeedsFile  string
	TargetDir  string
	URLPrefix  string

	// Processing configuration
	Interval      int
	MaxIterations int
	MaxAgeHours   int
	SettingsFile  string
	DBPath        string

	// HTTP server configuration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
