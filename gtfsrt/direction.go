package gtfsrt

import "strings"

// Direction is the travel direction of a subway trip.
type Direction int

const (
	Uptown   Direction = 0
	Downtown Direction = 1
)

func (d Direction) String() string {
	if d == Downtown {
		return "downtown"
	}
	return "uptown"
}

// DirectionFromTripID derives the travel direction from the direction
// marker embedded in a trip id (e.g. "080500_N..N34R" is uptown). The
// upstream feed's structured direction field is unreliable for this
// domain, so the trip id is the sole source of truth. The second return
// is false when the id carries no marker; such trips are excluded from
// direction-filtered queries.
func DirectionFromTripID(tripID string) (Direction, bool) {
	switch {
	case strings.Contains(tripID, ".N"):
		return Uptown, true
	case strings.Contains(tripID, ".S"):
		return Downtown, true
	}
	return 0, false
}
