package gtfs

import (
	"sort"
)

// Index stores GTFS static data in memory for fast lookups.
// It is populated once at load time and read-only afterwards.
type Index struct {
	stops            map[string]Stop
	routes           map[string]Route
	routeByShortName map[string]string          // short_name -> route_id
	tripRoute        map[string]string          // trip_id -> route_id
	tripDirection    map[string]int             // trip_id -> direction_id
	tripHeadsign     map[string]string          // trip_id -> headsign
	stopTimes        map[string][]StopTimeEntry // trip_id -> entries sorted by sequence
	tripIDs          []string                   // sorted, for deterministic scans
}

// NewIndex creates an empty index. Callers populate it with the Add
// methods (the loader does this from CSV, tests do it directly) and then
// call Finalize.
func NewIndex() *Index {
	return &Index{
		stops:            map[string]Stop{},
		routes:           map[string]Route{},
		routeByShortName: map[string]string{},
		tripRoute:        map[string]string{},
		tripDirection:    map[string]int{},
		tripHeadsign:     map[string]string{},
		stopTimes:        map[string][]StopTimeEntry{},
	}
}

// AddStop registers one stop.
func (g *Index) AddStop(s Stop) {
	g.stops[s.ID] = s
}

// AddRoute registers one route, indexed by id and short name.
func (g *Index) AddRoute(r Route) {
	g.routes[r.ID] = r
	if r.ShortName != "" {
		g.routeByShortName[r.ShortName] = r.ID
	}
}

// AddTrip registers one trip's route, direction and headsign.
func (g *Index) AddTrip(tripID, routeID string, directionID int, headsign string) {
	g.tripRoute[tripID] = routeID
	g.tripDirection[tripID] = directionID
	g.tripHeadsign[tripID] = headsign
}

// AddStopTime appends one scheduled stop visit to a trip.
func (g *Index) AddStopTime(e StopTimeEntry) {
	g.stopTimes[e.TripID] = append(g.stopTimes[e.TripID], e)
}

// Finalize sorts per-trip stop times by sequence and freezes the trip id
// list in deterministic order. Must be called after the last Add.
func (g *Index) Finalize() {
	for trip := range g.stopTimes {
		arr := g.stopTimes[trip]
		sort.Slice(arr, func(i, j int) bool { return arr[i].Sequence < arr[j].Sequence })
		g.stopTimes[trip] = arr
	}
	ids := make([]string, 0, len(g.tripRoute))
	for id := range g.tripRoute {
		ids = append(ids, id)
	}
	for id := range g.stopTimes {
		if _, ok := g.tripRoute[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	g.tripIDs = ids
}

// GetStop returns a stop by id.
func (g *Index) GetStop(stopID string) (Stop, bool) {
	s, ok := g.stops[stopID]
	return s, ok
}

// GetRouteByLineCode resolves a rider-facing line code (route short name,
// falling back to route id) to its route.
func (g *Index) GetRouteByLineCode(lineCode string) (Route, bool) {
	if id, ok := g.routeByShortName[lineCode]; ok {
		return g.routes[id], true
	}
	r, ok := g.routes[lineCode]
	return r, ok
}

// GetAllTripIDs returns every known static trip id in sorted order.
func (g *Index) GetAllTripIDs() []string {
	return g.tripIDs
}

// GetStopTimesForTrip returns a trip's scheduled stop visits ordered by
// stop sequence, or nil if the trip is unknown.
func (g *Index) GetStopTimesForTrip(tripID string) []StopTimeEntry {
	return g.stopTimes[tripID]
}

// GetTripHeadsign returns the rider-facing destination label for a trip.
func (g *Index) GetTripHeadsign(tripID string) string {
	return g.tripHeadsign[tripID]
}

// GetStopSequencesForRoute returns, per direction, the ordered stop list
// of the route identified by line code. For each direction the longest
// trip is taken as the representative stop pattern.
func (g *Index) GetStopSequencesForRoute(lineCode string) []RouteStopSequence {
	route, ok := g.GetRouteByLineCode(lineCode)
	if !ok {
		return nil
	}
	best := map[int]string{} // direction -> trip_id with most stops
	for _, tripID := range g.tripIDs {
		if g.tripRoute[tripID] != route.ID {
			continue
		}
		dir := g.tripDirection[tripID]
		if cur, ok := best[dir]; !ok || len(g.stopTimes[tripID]) > len(g.stopTimes[cur]) {
			best[dir] = tripID
		}
	}
	dirs := make([]int, 0, len(best))
	for dir := range best {
		dirs = append(dirs, dir)
	}
	sort.Ints(dirs)
	out := make([]RouteStopSequence, 0, len(dirs))
	for _, dir := range dirs {
		entries := g.stopTimes[best[dir]]
		seq := RouteStopSequence{DirectionID: dir, Stops: make([]SequencedStop, 0, len(entries))}
		for _, e := range entries {
			name := ""
			if s, ok := g.stops[e.StopID]; ok {
				name = s.Name
			}
			seq.Stops = append(seq.Stops, SequencedStop{StopID: e.StopID, Sequence: e.Sequence, Name: name})
		}
		out = append(out, seq)
	}
	return out
}

// StopCount reports how many stops are loaded.
func (g *Index) StopCount() int { return len(g.stops) }

// TripCount reports how many trips are loaded.
func (g *Index) TripCount() int { return len(g.tripIDs) }
