package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nyct-labs/train-locator/gtfs"
	"github.com/nyct-labs/train-locator/gtfsrt"
	"github.com/nyct-labs/train-locator/trips"
	"github.com/nyct-labs/train-locator/utils"
)

// DefaultRadiusMeters is the search radius applied when the request does
// not specify one.
const DefaultRadiusMeters = 500.0

// Request describes a nearest-train query. Coordinates are bounded to the
// service area so that obviously bogus positions fail fast instead of
// returning an empty result.
type Request struct {
	Latitude     float64 `validate:"min=40.4,max=41.0"`
	Longitude    float64 `validate:"min=-74.5,max=-73.5"`
	Line         string  `validate:"required"`
	Direction    *int    `validate:"omitempty,oneof=0 1"`
	RadiusMeters float64 `validate:"omitempty,gt=0"`
}

// InvalidRequestError reports a request that failed validation.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// NearbyTrain is one candidate within the search radius.
type NearbyTrain struct {
	VehicleID      string          `json:"vehicle_id"`
	TripID         string          `json:"trip_id"`
	RouteID        string          `json:"route_id"`
	DistanceMeters int             `json:"distance_meters"`
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	Trip           *trips.TripView `json:"trip"`

	distance float64
}

// VehicleSource provides the realtime vehicle positions for a line.
type VehicleSource interface {
	GetVehiclePositions(ctx context.Context, lineCode string, dir *gtfsrt.Direction) ([]gtfsrt.VehicleSnapshot, error)
}

// StopLocator resolves static stop coordinates for vehicles that report a
// stop id but no position.
type StopLocator interface {
	GetStop(id string) (gtfs.Stop, bool)
}

// TripBuilder assembles the full trip view for a matched vehicle.
type TripBuilder interface {
	BuildTrip(ctx context.Context, vehicleID, lineCode string) (*trips.TripView, error)
}

// Matcher finds the trains nearest to a rider.
type Matcher struct {
	feed     VehicleSource
	stops    StopLocator
	builder  TripBuilder
	validate *validator.Validate
	log      zerolog.Logger
}

func New(feed VehicleSource, stops StopLocator, builder TripBuilder, log zerolog.Logger) *Matcher {
	return &Matcher{
		feed:     feed,
		stops:    stops,
		builder:  builder,
		validate: validator.New(),
		log:      log.With().Str("component", "matcher").Logger(),
	}
}

// FindNearestTrains returns the trains on the requested line within the
// search radius, nearest first. Vehicles whose trip cannot be assembled
// are dropped rather than failing the whole query.
func (m *Matcher) FindNearestTrains(ctx context.Context, req Request) ([]NearbyTrain, error) {
	if err := m.validateRequest(req); err != nil {
		return nil, err
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = DefaultRadiusMeters
	}

	var dir *gtfsrt.Direction
	if req.Direction != nil {
		d := gtfsrt.Direction(*req.Direction)
		dir = &d
	}

	vehicles, err := m.feed.GetVehiclePositions(ctx, req.Line, dir)
	if err != nil {
		return nil, err
	}

	results := make([]NearbyTrain, 0, len(vehicles))
	for _, v := range vehicles {
		lat, lon, ok := m.vehicleCoordinates(v)
		if !ok {
			continue
		}
		d := utils.HaversineMeters(req.Latitude, req.Longitude, lat, lon)
		if d > radius {
			continue
		}
		view, err := m.builder.BuildTrip(ctx, v.VehicleID, req.Line)
		if err != nil {
			m.log.Debug().Err(err).Str("vehicle", v.VehicleID).Msg("dropping candidate without a buildable trip")
			continue
		}
		results = append(results, NearbyTrain{
			VehicleID:      v.VehicleID,
			TripID:         v.TripID,
			RouteID:        v.RouteID,
			DistanceMeters: int(math.Round(d)),
			Latitude:       lat,
			Longitude:      lon,
			Trip:           view,
			distance:       d,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].distance < results[j].distance })
	return results, nil
}

// vehicleCoordinates returns the vehicle's reported position, falling
// back to the static coordinates of its current stop.
func (m *Matcher) vehicleCoordinates(v gtfsrt.VehicleSnapshot) (float64, float64, bool) {
	if v.HasPosition {
		return v.Latitude, v.Longitude, true
	}
	if v.CurrentStopID != "" {
		if stop, ok := m.stops.GetStop(v.CurrentStopID); ok {
			return stop.Lat, stop.Lon, true
		}
	}
	return 0, 0, false
}

func (m *Matcher) validateRequest(req Request) error {
	if math.IsNaN(req.Latitude) || math.IsInf(req.Latitude, 0) ||
		math.IsNaN(req.Longitude) || math.IsInf(req.Longitude, 0) {
		return &InvalidRequestError{Reason: "coordinates must be finite numbers"}
	}
	if err := m.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &InvalidRequestError{Reason: fmt.Sprintf("field %s failed %s validation", f.Field(), f.Tag())}
		}
		return &InvalidRequestError{Reason: err.Error()}
	}
	return nil
}
