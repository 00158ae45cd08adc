package gtfsrt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"

	"github.com/nyct-labs/train-locator/config"
)

func vehicleEntity(id, tripID, routeID, stopID string, seq uint32, lat, lon float32) *gtfsrtpb.FeedEntity {
	return &gtfsrtpb.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfsrtpb.VehiclePosition{
			Vehicle:             &gtfsrtpb.VehicleDescriptor{Id: proto.String(id)},
			Trip:                &gtfsrtpb.TripDescriptor{TripId: proto.String(tripID), RouteId: proto.String(routeID)},
			Position:            &gtfsrtpb.Position{Latitude: proto.Float32(lat), Longitude: proto.Float32(lon)},
			StopId:              proto.String(stopID),
			CurrentStopSequence: proto.Uint32(seq),
			CurrentStatus:       gtfsrtpb.VehiclePosition_STOPPED_AT.Enum(),
			Timestamp:           proto.Uint64(1700000000),
		},
	}
}

func tripUpdateEntity(tripID, routeID string, stops ...*gtfsrtpb.TripUpdate_StopTimeUpdate) *gtfsrtpb.FeedEntity {
	return &gtfsrtpb.FeedEntity{
		Id: proto.String("tu-" + tripID),
		TripUpdate: &gtfsrtpb.TripUpdate{
			Trip:           &gtfsrtpb.TripDescriptor{TripId: proto.String(tripID), RouteId: proto.String(routeID)},
			StopTimeUpdate: stops,
		},
	}
}

func stopTimeUpdate(stopID string, seq uint32, arrival int64) *gtfsrtpb.TripUpdate_StopTimeUpdate {
	return &gtfsrtpb.TripUpdate_StopTimeUpdate{
		StopId:       proto.String(stopID),
		StopSequence: proto.Uint32(seq),
		Arrival:      &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(arrival), Delay: proto.Int32(60)},
	}
}

func marshalFeed(t *testing.T, entities ...*gtfsrtpb.FeedEntity) []byte {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1700000000),
		},
		Entity: entities,
	}
	b, err := proto.Marshal(fm)
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}
	return b
}

func newTestClient(url string) *Client {
	cfg := config.GTFSRTConfig{TimeoutMS: 2000, CacheTTLMS: 30000, MinRequestSpacingMS: 0}
	groups := []config.FeedGroup{{URL: url, Lines: []string{"6", "7"}}}
	return NewClient(cfg, groups, zerolog.Nop())
}

func TestGetVehiclePositionsFiltersByLine(t *testing.T) {
	payload := marshalFeed(t,
		vehicleEntity("v1", "050500_6..N01R", "6", "631N", 3, 40.75, -73.97),
		vehicleEntity("v2", "050700_7..N01R", "7", "725N", 5, 40.76, -73.96),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	vehicles, err := c.GetVehiclePositions(context.Background(), "6", nil)
	if err != nil {
		t.Fatalf("GetVehiclePositions failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].VehicleID != "v1" {
		t.Fatalf("expected only v1, got %+v", vehicles)
	}
	v := vehicles[0]
	if !v.HasPosition || v.CurrentStopID != "631N" || v.CurrentStopSequence != 3 {
		t.Errorf("snapshot fields wrong: %+v", v)
	}
	if v.Status != StatusStopped {
		t.Errorf("expected stopped status, got %v", v.Status)
	}
}

func TestGetVehiclePositionsDirectionFilter(t *testing.T) {
	payload := marshalFeed(t,
		vehicleEntity("up", "050500_6..N01R", "6", "631N", 3, 40.75, -73.97),
		vehicleEntity("down", "050600_6..S01R", "6", "635S", 4, 40.73, -73.99),
		vehicleEntity("unmarked", "050700_6", "6", "640", 5, 40.71, -74.00),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	dir := Uptown
	vehicles, err := c.GetVehiclePositions(context.Background(), "6", &dir)
	if err != nil {
		t.Fatalf("GetVehiclePositions failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].VehicleID != "up" {
		t.Fatalf("direction filter wrong, got %+v", vehicles)
	}
}

func TestGetVehiclePositionsUnknownLine(t *testing.T) {
	c := newTestClient("http://unused.invalid")
	_, err := c.GetVehiclePositions(context.Background(), "Z9", nil)
	var ule *UnknownLineError
	if !errors.As(err, &ule) {
		t.Fatalf("expected UnknownLineError, got %v", err)
	}
	if ule.Line != "Z9" {
		t.Errorf("error should carry the line code, got %q", ule.Line)
	}
}

func TestGetVehiclePositionsNoData(t *testing.T) {
	// Feed reachable but only line 7 vehicles present.
	payload := marshalFeed(t, vehicleEntity("v2", "050700_7..N01R", "7", "725N", 5, 40.76, -73.96))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetVehiclePositions(context.Background(), "6", nil)
	var nde *NoDataError
	if !errors.As(err, &nde) {
		t.Fatalf("expected NoDataError, got %v", err)
	}
}

func TestGetVehiclePositionsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetVehiclePositions(context.Background(), "6", nil)
	var fue *FeedUnavailableError
	if !errors.As(err, &fue) {
		t.Fatalf("expected FeedUnavailableError, got %v", err)
	}
	if fue.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502 carried, got %d", fue.StatusCode)
	}
}

func TestGetVehiclePositionsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := config.GTFSRTConfig{TimeoutMS: 50, CacheTTLMS: 30000}
	c := NewClient(cfg, []config.FeedGroup{{URL: srv.URL, Lines: []string{"6"}}}, zerolog.Nop())
	_, err := c.GetVehiclePositions(context.Background(), "6", nil)
	var fte *FeedTimeoutError
	if !errors.As(err, &fte) {
		t.Fatalf("expected FeedTimeoutError, got %v", err)
	}
}

func TestGetTripUpdates(t *testing.T) {
	payload := marshalFeed(t,
		tripUpdateEntity("050500_6..N01R", "6",
			stopTimeUpdate("635N", 2, 1700000100),
			stopTimeUpdate("631N", 3, 1700000400),
		),
		tripUpdateEntity("050700_7..N01R", "7", stopTimeUpdate("725N", 5, 1700000200)),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	updates, err := c.GetTripUpdates(context.Background(), "6")
	if err != nil {
		t.Fatalf("GetTripUpdates failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update for line 6, got %d", len(updates))
	}
	u := updates[0]
	if u.TripID != "050500_6..N01R" || len(u.StopTimes) != 2 {
		t.Fatalf("unexpected update: %+v", u)
	}
	if u.StopTimes[0].Arrival != 1700000100 || u.StopTimes[0].Delay != 60 {
		t.Errorf("prediction fields wrong: %+v", u.StopTimes[0])
	}
	if !u.HasAnyTime() {
		t.Error("HasAnyTime should be true")
	}
}

func TestSlowFetchDoesNotBlockCacheHits(t *testing.T) {
	fastPayload := marshalFeed(t, vehicleEntity("v1", "050500_6..N01R", "6", "631N", 3, 40.75, -73.97))
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fastPayload)
	}))
	defer fast.Close()

	slowPayload := marshalFeed(t, vehicleEntity("v7", "050700_7..N01R", "7", "725N", 5, 40.76, -73.96))
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write(slowPayload)
	}))
	defer slow.Close()

	cfg := config.GTFSRTConfig{TimeoutMS: 5000, CacheTTLMS: 30000}
	groups := []config.FeedGroup{
		{URL: fast.URL, Lines: []string{"6"}},
		{URL: slow.URL, Lines: []string{"7"}},
	}
	c := NewClient(cfg, groups, zerolog.Nop())

	// Warm the line 6 cache.
	if _, err := c.GetVehiclePositions(context.Background(), "6", nil); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.GetVehiclePositions(context.Background(), "7", nil)
		done <- err
	}()
	// Let the line 7 fetch get in flight against the stalled upstream.
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	if _, err := c.GetVehiclePositions(context.Background(), "6", nil); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("cache hit stalled behind an in-flight fetch of another feed: %v", elapsed)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow fetch failed: %v", err)
	}
}

func TestRateLimitSpacing(t *testing.T) {
	var requests atomic.Int32
	payload := marshalFeed(t, vehicleEntity("v1", "050500_6..N01R", "6", "631N", 3, 40.75, -73.97))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cfg := config.GTFSRTConfig{TimeoutMS: 2000, CacheTTLMS: 30000, MinRequestSpacingMS: 60}
	c := NewClient(cfg, []config.FeedGroup{{URL: srv.URL, Lines: []string{"6"}}}, zerolog.Nop())

	start := time.Now()
	if _, err := c.GetVehiclePositions(context.Background(), "6", nil); err != nil {
		t.Fatal(err)
	}
	c.ClearCache()
	if _, err := c.GetVehiclePositions(context.Background(), "6", nil); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("second uncached fetch should wait for spacing, elapsed %v", elapsed)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 upstream requests, got %d", got)
	}
}
