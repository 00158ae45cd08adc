package trainlocator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nyct-labs/train-locator/config"
	"github.com/nyct-labs/train-locator/gtfs"
	"github.com/nyct-labs/train-locator/gtfsrt"
	"github.com/nyct-labs/train-locator/matcher"
	"github.com/nyct-labs/train-locator/trips"
)

// Server hosts the JSON API.
type Server struct {
	cfg     config.ServerConfig
	log     zerolog.Logger
	feed    *gtfsrt.Client
	static  *gtfs.Index
	trips   *trips.Reconciler
	matcher *matcher.Matcher

	httpServer *http.Server
}

func NewServer(cfg config.ServerConfig, log zerolog.Logger, feed *gtfsrt.Client, static *gtfs.Index, rec *trips.Reconciler, m *matcher.Matcher) *Server {
	return &Server{
		cfg:     cfg,
		log:     log.With().Str("component", "server").Logger(),
		feed:    feed,
		static:  static,
		trips:   rec,
		matcher: m,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trains/nearest", s.handleNearestTrains)
	mux.HandleFunc("GET /api/trains/{line}/{vehicleID}", s.handleTripDetail)
	mux.HandleFunc("GET /api/routes/{line}/stops", s.handleRouteStops)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return withCORS(withMetrics(mux))
}

// Start runs the server until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
