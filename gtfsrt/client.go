package gtfsrt

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"

	"github.com/nyct-labs/train-locator/config"
)

var (
	feedFetchCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_fetch_count",
		Help: "Number of times a realtime feed was fetched from upstream",
	}, []string{"url"})
	feedCacheHitCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_cache_hit_count",
		Help: "Number of times a realtime feed request was served from cache",
	}, []string{"url"})
	feedErrorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_error_count",
		Help: "Number of upstream realtime feed failures",
	}, []string{"url"})
)

func init() {
	prometheus.MustRegister(feedFetchCount, feedCacheHitCount, feedErrorCount)
}

// Client fetches, decodes, caches and rate-limits upstream GTFS-Realtime
// feeds. It owns the feed cache exclusively; the mutex guards the cache
// and the spacing clock, but is not held while a request is in flight,
// so a slow upstream never stalls cache hits for other feeds.
type Client struct {
	httpClient *http.Client
	apiKey     string
	lineToURL  map[string]string
	minSpacing time.Duration
	now        func() time.Time
	log        zerolog.Logger

	mu        sync.Mutex
	cache     *feedCache
	lastFetch time.Time
}

// NewClient builds a feed client from the grouped endpoint table,
// precomputing the line -> URL map once so per-request resolution is a
// plain lookup.
func NewClient(cfg config.GTFSRTConfig, groups []config.FeedGroup, log zerolog.Logger) *Client {
	lineToURL := make(map[string]string)
	for _, g := range groups {
		for _, line := range g.Lines {
			lineToURL[line] = g.URL
		}
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		apiKey:     cfg.APIKey,
		lineToURL:  lineToURL,
		minSpacing: time.Duration(cfg.MinRequestSpacingMS) * time.Millisecond,
		now:        time.Now,
		log:        log,
		cache:      newFeedCache(time.Duration(cfg.CacheTTLMS)*time.Millisecond, time.Now),
	}
}

// GetVehiclePositions returns the live vehicles of one line, optionally
// restricted to one direction. Vehicles whose trip id carries no
// direction marker are excluded from direction-filtered queries.
func (c *Client) GetVehiclePositions(ctx context.Context, lineCode string, dir *Direction) ([]VehicleSnapshot, error) {
	url, ok := c.lineToURL[lineCode]
	if !ok {
		return nil, &UnknownLineError{Line: lineCode}
	}
	fm, err := c.fetchFeed(ctx, url)
	if err != nil {
		return nil, err
	}

	var out []VehicleSnapshot
	for _, e := range fm.Entity {
		if e.Vehicle == nil {
			continue
		}
		snap := vehicleSnapshotFromEntity(e)
		if snap.RouteID != lineCode {
			continue
		}
		if dir != nil {
			d, known := DirectionFromTripID(snap.TripID)
			if !known || d != *dir {
				continue
			}
		}
		out = append(out, snap)
	}
	if len(out) == 0 {
		return nil, &NoDataError{Line: lineCode}
	}
	return out, nil
}

// GetTripUpdates returns every trip update reported for one line.
// Direction filtering happens downstream once a trip id is known.
func (c *Client) GetTripUpdates(ctx context.Context, lineCode string) ([]TripUpdateSnapshot, error) {
	url, ok := c.lineToURL[lineCode]
	if !ok {
		return nil, &UnknownLineError{Line: lineCode}
	}
	fm, err := c.fetchFeed(ctx, url)
	if err != nil {
		return nil, err
	}

	var out []TripUpdateSnapshot
	for _, e := range fm.Entity {
		if e.TripUpdate == nil || e.TripUpdate.Trip == nil {
			continue
		}
		snap := tripUpdateSnapshotFromEntity(e)
		if snap.RouteID != lineCode {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// ClearCache drops every cached feed payload. Operational/test hook.
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.clear()
}

// Stats reports the current cache contents. Operational/test hook.
func (c *Client) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.stats()
}

// fetchFeed returns the decoded feed for url, from cache when fresh.
// Real fetches respect a global minimum spacing between outbound
// requests; cache hits bypass it entirely. The spacing wait and the
// request itself run outside the lock: a redundant concurrent fetch of
// the same URL is tolerable, a stalled cache hit behind a slow upstream
// is not.
func (c *Client) fetchFeed(ctx context.Context, url string) (*gtfsrtpb.FeedMessage, error) {
	c.mu.Lock()
	if fm, ok := c.cache.get(url); ok {
		feedCacheHitCount.With(prometheus.Labels{"url": url}).Inc()
		c.mu.Unlock()
		return fm, nil
	}
	// Reserve the next outbound slot before unlocking so concurrent
	// fetches stay spaced against each other too.
	now := c.now()
	var wait time.Duration
	if w := c.minSpacing - now.Sub(c.lastFetch); w > 0 {
		wait = w
	}
	c.lastFetch = now.Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, &FeedTimeoutError{URL: url, Err: ctx.Err()}
		}
	}

	fm, err := c.doFetch(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		feedErrorCount.With(prometheus.Labels{"url": url}).Inc()
		c.log.Warn().Str("url", url).Err(err).Msg("feed fetch failed")
		return nil, err
	}
	feedFetchCount.With(prometheus.Labels{"url": url}).Inc()
	if cached, ok := c.cache.get(url); ok {
		// A concurrent fetch of the same URL finished first.
		return cached, nil
	}
	c.cache.put(url, fm)
	return fm, nil
}

func (c *Client) doFetch(ctx context.Context, url string) (*gtfsrtpb.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FeedUnavailableError{URL: url, Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &FeedTimeoutError{URL: url, Err: err}
		}
		return nil, &FeedUnavailableError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FeedUnavailableError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FeedUnavailableError{URL: url, Err: err}
	}
	fm := &gtfsrtpb.FeedMessage{}
	if err := proto.Unmarshal(body, fm); err != nil {
		return nil, &FeedUnavailableError{URL: url, Err: err}
	}
	return fm, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func vehicleSnapshotFromEntity(e *gtfsrtpb.FeedEntity) VehicleSnapshot {
	v := e.Vehicle
	snap := VehicleSnapshot{Status: StatusUnknown}
	if v.Vehicle != nil && v.Vehicle.Id != nil {
		snap.VehicleID = *v.Vehicle.Id
	} else if e.Id != nil {
		snap.VehicleID = *e.Id
	}
	if v.Trip != nil {
		if v.Trip.TripId != nil {
			snap.TripID = *v.Trip.TripId
		}
		if v.Trip.RouteId != nil {
			snap.RouteID = *v.Trip.RouteId
		}
	}
	if v.Position != nil && v.Position.Latitude != nil && v.Position.Longitude != nil {
		snap.Latitude = float64(*v.Position.Latitude)
		snap.Longitude = float64(*v.Position.Longitude)
		snap.HasPosition = true
		if v.Position.Bearing != nil {
			snap.Bearing = float64(*v.Position.Bearing)
		}
	}
	if v.StopId != nil {
		snap.CurrentStopID = *v.StopId
	}
	if v.CurrentStopSequence != nil {
		snap.CurrentStopSequence = int(*v.CurrentStopSequence)
	}
	if v.CurrentStatus != nil {
		switch int32(*v.CurrentStatus) {
		case 0:
			snap.Status = StatusIncoming
		case 1:
			snap.Status = StatusStopped
		case 2:
			snap.Status = StatusInTransit
		}
	}
	if v.Timestamp != nil {
		snap.Timestamp = int64(*v.Timestamp)
	}
	return snap
}

func tripUpdateSnapshotFromEntity(e *gtfsrtpb.FeedEntity) TripUpdateSnapshot {
	tu := e.TripUpdate
	snap := TripUpdateSnapshot{}
	if tu.Trip.TripId != nil {
		snap.TripID = *tu.Trip.TripId
	}
	if tu.Trip.RouteId != nil {
		snap.RouteID = *tu.Trip.RouteId
	}
	for _, stu := range tu.StopTimeUpdate {
		if stu.StopId == nil {
			continue
		}
		p := StopTimePrediction{StopID: *stu.StopId}
		if stu.StopSequence != nil {
			p.Sequence = int(*stu.StopSequence)
		}
		if stu.Arrival != nil {
			if stu.Arrival.Time != nil {
				p.Arrival = *stu.Arrival.Time
			}
			if stu.Arrival.Delay != nil {
				p.Delay = *stu.Arrival.Delay
			}
		}
		if stu.Departure != nil {
			if stu.Departure.Time != nil {
				p.Departure = *stu.Departure.Time
			}
			if p.Delay == 0 && stu.Departure.Delay != nil {
				p.Delay = *stu.Departure.Delay
			}
		}
		snap.StopTimes = append(snap.StopTimes, p)
	}
	return snap
}
