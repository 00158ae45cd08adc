package trips

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nyct-labs/train-locator/gtfs"
	"github.com/nyct-labs/train-locator/gtfsrt"
	"github.com/nyct-labs/train-locator/utils"
)

// ErrNotFound reports that no reconcilable trip exists for the requested
// vehicle: the vehicle is not in the feed, it has no corresponding trip
// update, or the update carries no usable times.
var ErrNotFound = errors.New("trip not found")

// FeedSource supplies live vehicle and trip-update snapshots per line.
type FeedSource interface {
	GetVehiclePositions(ctx context.Context, lineCode string, dir *gtfsrt.Direction) ([]gtfsrt.VehicleSnapshot, error)
	GetTripUpdates(ctx context.Context, lineCode string) ([]gtfsrt.TripUpdateSnapshot, error)
}

// StaticStore supplies static schedule lookups.
type StaticStore interface {
	GetStop(stopID string) (gtfs.Stop, bool)
	GetAllTripIDs() []string
	GetStopTimesForTrip(tripID string) []gtfs.StopTimeEntry
	GetTripHeadsign(tripID string) string
}

// Reconciler builds reconciled trip views from a realtime feed source
// and a static schedule store.
type Reconciler struct {
	feed   FeedSource
	static StaticStore
	log    zerolog.Logger
}

func NewReconciler(feed FeedSource, static StaticStore, log zerolog.Logger) *Reconciler {
	return &Reconciler{feed: feed, static: static, log: log}
}

// BuildTrip locates vehicleID on lineCode and returns its reconciled
// trip view, or ErrNotFound when the realtime feed has no usable pairing
// of vehicle report and trip update.
func (r *Reconciler) BuildTrip(ctx context.Context, vehicleID, lineCode string) (*TripView, error) {
	vehicles, err := r.feed.GetVehiclePositions(ctx, lineCode, nil)
	if err != nil {
		var nde *gtfsrt.NoDataError
		if errors.As(err, &nde) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var vehicle *gtfsrt.VehicleSnapshot
	for i := range vehicles {
		if vehicles[i].VehicleID == vehicleID {
			vehicle = &vehicles[i]
			break
		}
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}

	updates, err := r.feed.GetTripUpdates(ctx, lineCode)
	if err != nil {
		return nil, err
	}
	var update *gtfsrt.TripUpdateSnapshot
	for i := range updates {
		if updates[i].TripID == vehicle.TripID {
			update = &updates[i]
			break
		}
	}
	// A vehicle report without a corresponding trip update, or an update
	// with no predicted times at all, cannot be reconciled.
	if update == nil || !update.HasAnyTime() {
		return nil, ErrNotFound
	}

	dir, dirKnown := gtfsrt.DirectionFromTripID(vehicle.TripID)

	staticTripID := r.lookupStaticTripID(vehicle.TripID)
	var staticStopTimes []gtfs.StopTimeEntry
	if staticTripID != "" {
		staticStopTimes = r.static.GetStopTimesForTrip(staticTripID)
	}

	// The static sequence for the reported stop wins when it resolves, so
	// classification stays consistent with the static stop ordering; the
	// realtime-reported sequence is the fallback.
	currentSeq := vehicle.CurrentStopSequence
	if seq, ok := sequenceForStop(staticStopTimes, vehicle.CurrentStopID); ok {
		currentSeq = seq
	}

	stops := make([]ReconciledStop, 0, len(update.StopTimes))
	for _, p := range update.StopTimes {
		arrival := p.Arrival
		if arrival == 0 {
			arrival = p.Departure
		}
		isCurrent := vehicle.CurrentStopID != "" && p.StopID == vehicle.CurrentStopID
		stops = append(stops, ReconciledStop{
			StopID:         p.StopID,
			Name:           r.stopName(p.StopID),
			Sequence:       p.Sequence,
			ArrivalTime:    utils.Iso8601FromUnixSeconds(arrival),
			DepartureTime:  utils.Iso8601FromUnixSeconds(p.Departure),
			Delay:          p.Delay,
			Classification: classify(p.Sequence, currentSeq, dir, dirKnown, isCurrent),
		})
	}

	// Static list uses sequence-only comparison: it carries no live
	// position beyond the sequence number.
	staticStops := make([]ReconciledStop, 0, len(staticStopTimes))
	for _, e := range staticStopTimes {
		staticStops = append(staticStops, ReconciledStop{
			StopID:         e.StopID,
			Name:           r.stopName(e.StopID),
			Sequence:       e.Sequence,
			ArrivalTime:    e.Arrival,
			DepartureTime:  e.Departure,
			Classification: classify(e.Sequence, currentSeq, dir, dirKnown, false),
		})
	}

	var arrival int64
	var delay int32
	for _, p := range update.StopTimes {
		tm := p.Arrival
		if tm == 0 {
			tm = p.Departure
		}
		if tm != 0 {
			arrival = tm
			delay = p.Delay
			break
		}
	}

	view := &TripView{
		TripID:        vehicle.TripID,
		StaticTripID:  staticTripID,
		RouteID:       vehicle.RouteID,
		DirectionID:   -1,
		DirectionName: "unknown",
		VehicleID:     vehicle.VehicleID,
		ArrivalTime:   utils.Iso8601FromUnixSeconds(arrival),
		Delay:         delay,
		CurrentStop: CurrentStopSummary{
			StopID:     vehicle.CurrentStopID,
			Name:       r.stopName(vehicle.CurrentStopID),
			Sequence:   currentSeq,
			Status:     int(vehicle.Status),
			StatusName: vehicle.Status.String(),
		},
		Stops:       stops,
		StaticStops: staticStops,
	}
	if dirKnown {
		view.DirectionID = int(dir)
		view.DirectionName = dir.String()
	}
	if staticTripID != "" {
		view.Headsign = r.static.GetTripHeadsign(staticTripID)
	}
	return view, nil
}

// lookupStaticTripID matches a realtime trip id against the static
// dataset, whose trip ids are prefixed with a service identifier (a
// realtime "080500_N..N34R" corresponds to a static id ending in that
// suffix). The first match wins. Isolated here so the matching strategy
// can change without touching callers.
func (r *Reconciler) lookupStaticTripID(rtTripID string) string {
	if rtTripID == "" {
		return ""
	}
	for _, id := range r.static.GetAllTripIDs() {
		if strings.HasSuffix(id, rtTripID) {
			return id
		}
	}
	return ""
}

func (r *Reconciler) stopName(stopID string) string {
	if stopID == "" {
		return ""
	}
	if s, ok := r.static.GetStop(stopID); ok {
		return s.Name
	}
	return ""
}

func sequenceForStop(entries []gtfs.StopTimeEntry, stopID string) (int, bool) {
	if stopID == "" {
		return 0, false
	}
	for _, e := range entries {
		if e.StopID == stopID {
			return e.Sequence, true
		}
	}
	return 0, false
}

// classify places a stop relative to the vehicle's current sequence.
// Uptown sequence numbers increase along the route, downtown ones
// decrease. An exact current-stop-id match overrides the sequence
// comparison because realtime and static numbering can disagree near the
// current position. Trips without a direction marker use the uptown
// ordering.
func classify(seq, currentSeq int, dir gtfsrt.Direction, dirKnown bool, isCurrentStop bool) StopClassification {
	if isCurrentStop || seq == currentSeq {
		return StopCurrent
	}
	if dirKnown && dir == gtfsrt.Downtown {
		if seq > currentSeq {
			return StopPast
		}
		return StopFuture
	}
	if seq < currentSeq {
		return StopPast
	}
	return StopFuture
}
