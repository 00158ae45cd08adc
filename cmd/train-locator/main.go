package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	trainlocator "github.com/nyct-labs/train-locator"
	"github.com/nyct-labs/train-locator/config"
	"github.com/nyct-labs/train-locator/gtfs"
	"github.com/nyct-labs/train-locator/gtfsrt"
	"github.com/nyct-labs/train-locator/matcher"
	"github.com/nyct-labs/train-locator/trips"
)

func main() {
	configPath := flag.String("config", "", "path to config YAML (optional)")
	staticPath := flag.String("static", "", "path to the static GTFS bundle (zip or directory)")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	// A missing .env is fine; environment variables may come from anywhere.
	_ = godotenv.Load()

	if err := run(*configPath, *staticPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "train-locator: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, staticPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if staticPath != "" {
		cfg.GTFS.StaticPath = staticPath
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	log := trainlocator.NewLogger(cfg.Logging)

	static := gtfs.NewIndex()
	if cfg.GTFS.StaticPath != "" {
		static, err = gtfs.Load(cfg.GTFS.StaticPath)
		if err != nil {
			return fmt.Errorf("load static GTFS: %w", err)
		}
		log.Info().
			Str("path", cfg.GTFS.StaticPath).
			Int("stops", static.StopCount()).
			Int("trips", static.TripCount()).
			Msg("static timetable loaded")
	} else {
		log.Warn().Msg("no static GTFS bundle configured; trip views will carry realtime data only")
	}

	feed := gtfsrt.NewClient(cfg.GTFSRT, cfg.FeedGroups, log)
	rec := trips.NewReconciler(feed, static, log)
	m := matcher.New(feed, static, rec, log)
	srv := trainlocator.NewServer(cfg.Server, log, feed, static, rec, m)

	ctx, stop := trainlocator.SignalContext(context.Background())
	defer stop()
	return srv.Start(ctx)
}
