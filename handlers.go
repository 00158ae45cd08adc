package trainlocator

import (
	"net/http"
	"strconv"

	"github.com/nyct-labs/train-locator/gtfs"
	"github.com/nyct-labs/train-locator/gtfsrt"
	"github.com/nyct-labs/train-locator/matcher"
	"github.com/nyct-labs/train-locator/utils"
)

type nearestResponse struct {
	Line      string                `json:"line"`
	Radius    float64               `json:"radius_meters"`
	Count     int                   `json:"count"`
	Trains    []matcher.NearbyTrain `json:"trains"`
	Timestamp string                `json:"timestamp"`
}

func (s *Server) handleNearestTrains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := matcher.Request{Line: q.Get("line")}
	var err error
	if req.Latitude, err = strconv.ParseFloat(q.Get("lat"), 64); err != nil {
		writeError(w, &matcher.InvalidRequestError{Reason: "lat must be a number"})
		return
	}
	if req.Longitude, err = strconv.ParseFloat(q.Get("lon"), 64); err != nil {
		writeError(w, &matcher.InvalidRequestError{Reason: "lon must be a number"})
		return
	}
	if raw := q.Get("direction"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, &matcher.InvalidRequestError{Reason: "direction must be 0 or 1"})
			return
		}
		req.Direction = &d
	}
	if raw := q.Get("radius"); raw != "" {
		if req.RadiusMeters, err = strconv.ParseFloat(raw, 64); err != nil {
			writeError(w, &matcher.InvalidRequestError{Reason: "radius must be a number"})
			return
		}
	}

	trains, err := s.matcher.FindNearestTrains(r.Context(), req)
	if err != nil {
		s.log.Warn().Err(err).Str("line", req.Line).Msg("nearest-trains query failed")
		writeError(w, err)
		return
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = matcher.DefaultRadiusMeters
	}
	writeJSON(w, http.StatusOK, nearestResponse{
		Line:      req.Line,
		Radius:    radius,
		Count:     len(trains),
		Trains:    trains,
		Timestamp: utils.Iso8601Now(),
	})
}

func (s *Server) handleTripDetail(w http.ResponseWriter, r *http.Request) {
	line := r.PathValue("line")
	vehicleID := r.PathValue("vehicleID")

	view, err := s.trips.BuildTrip(r.Context(), vehicleID, line)
	if err != nil {
		s.log.Warn().Err(err).Str("line", line).Str("vehicle", vehicleID).Msg("trip detail failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type routeStopsResponse struct {
	Route      gtfs.Route               `json:"route"`
	Directions []gtfs.RouteStopSequence `json:"directions"`
}

func (s *Server) handleRouteStops(w http.ResponseWriter, r *http.Request) {
	line := r.PathValue("line")
	route, ok := s.static.GetRouteByLineCode(line)
	if !ok {
		writeError(w, &gtfsrt.UnknownLineError{Line: line})
		return
	}
	writeJSON(w, http.StatusOK, routeStopsResponse{
		Route:      route,
		Directions: s.static.GetStopSequencesForRoute(line),
	})
}

type healthResponse struct {
	Status    string            `json:"status"`
	Stops     int               `json:"static_stops"`
	Trips     int               `json:"static_trips"`
	FeedCache gtfsrt.CacheStats `json:"feed_cache"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Stops:     s.static.StopCount(),
		Trips:     s.static.TripCount(),
		FeedCache: s.feed.Stats(),
		Timestamp: utils.Iso8601Now(),
	})
}
