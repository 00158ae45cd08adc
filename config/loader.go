package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const mtaFeedBase = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs"

// DefaultFeedGroups describes the NYCT subway feed topology: one endpoint
// serves several lines at once.
func DefaultFeedGroups() []FeedGroup {
	return []FeedGroup{
		{URL: mtaFeedBase, Lines: []string{"1", "2", "3", "4", "5", "6", "7", "GS"}},
		{URL: mtaFeedBase + "-ace", Lines: []string{"A", "C", "E", "H", "FS"}},
		{URL: mtaFeedBase + "-bdfm", Lines: []string{"B", "D", "F", "M"}},
		{URL: mtaFeedBase + "-g", Lines: []string{"G"}},
		{URL: mtaFeedBase + "-jz", Lines: []string{"J", "Z"}},
		{URL: mtaFeedBase + "-l", Lines: []string{"L"}},
		{URL: mtaFeedBase + "-nqrw", Lines: []string{"N", "Q", "R", "W"}},
		{URL: mtaFeedBase + "-si", Lines: []string{"SI", "SIR"}},
	}
}

// Default returns the configuration used when no file is supplied.
func Default() AppConfig {
	return AppConfig{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info", Console: true},
		GTFSRT: GTFSRTConfig{
			TimeoutMS:           10000,
			CacheTTLMS:          30000,
			MinRequestSpacingMS: 1000,
		},
		FeedGroups: DefaultFeedGroups(),
	}
}

// Load reads, overrides and validates the application configuration.
// An empty path yields Default() with environment overrides applied.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, err
		}
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return AppConfig{}, err
	}
	if err := v.Struct(cfg.GTFSRT); err != nil {
		return AppConfig{}, err
	}
	for _, g := range cfg.FeedGroups {
		if err := v.Struct(g); err != nil {
			return AppConfig{}, err
		}
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if p := os.Getenv("PORT"); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			cfg.Server.Port = port
		}
	}
	if k := os.Getenv("MTA_API_KEY"); k != "" {
		cfg.GTFSRT.APIKey = k
	}
	if p := os.Getenv("GTFS_STATIC_PATH"); p != "" {
		cfg.GTFS.StaticPath = p
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.GTFSRT.TimeoutMS == 0 {
		cfg.GTFSRT.TimeoutMS = 10000
	}
	if cfg.GTFSRT.CacheTTLMS == 0 {
		cfg.GTFSRT.CacheTTLMS = 30000
	}
	if cfg.GTFSRT.MinRequestSpacingMS == 0 {
		cfg.GTFSRT.MinRequestSpacingMS = 1000
	}
	if len(cfg.FeedGroups) == 0 {
		cfg.FeedGroups = DefaultFeedGroups()
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
