package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// LoggingConfig controls zerolog output
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
	File    string `yaml:"file"`
}

// GTFSConfig contains static GTFS dataset configuration
type GTFSConfig struct {
	StaticPath string `yaml:"staticPath"`
}

// GTFSRTConfig contains GTFS-Realtime fetch behavior
type GTFSRTConfig struct {
	APIKey              string `yaml:"apiKey"`
	TimeoutMS           int    `yaml:"timeoutMS" validate:"gte=0"`
	CacheTTLMS          int    `yaml:"cacheTTLMS" validate:"gte=0"`
	MinRequestSpacingMS int    `yaml:"minRequestSpacingMS" validate:"gte=0"`
}

// FeedGroup maps one upstream feed endpoint to the line codes it serves.
// The upstream provider publishes one feed per group of lines, not one
// feed per line.
type FeedGroup struct {
	URL   string   `yaml:"url" validate:"required,url"`
	Lines []string `yaml:"lines" validate:"required,min=1"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server     ServerConfig  `yaml:"server" validate:"required"`
	Logging    LoggingConfig `yaml:"logging"`
	GTFS       GTFSConfig    `yaml:"gtfs"`
	GTFSRT     GTFSRTConfig  `yaml:"gtfsrt"`
	FeedGroups []FeedGroup   `yaml:"feedGroups"`
}
