package gtfsrt

// VehicleStatus describes a vehicle's relation to its current stop.
type VehicleStatus int

const (
	StatusIncoming  VehicleStatus = 0
	StatusStopped   VehicleStatus = 1
	StatusInTransit VehicleStatus = 2
	StatusUnknown   VehicleStatus = 3
)

func (s VehicleStatus) String() string {
	switch s {
	case StatusIncoming:
		return "incoming"
	case StatusStopped:
		return "stopped"
	case StatusInTransit:
		return "in_transit"
	}
	return "unknown"
}

// VehicleSnapshot is a live position report for one vehicle at one
// instant. Snapshots are value objects: built fresh on every feed decode
// and correlated with trip updates by trip id, never by reference.
type VehicleSnapshot struct {
	VehicleID           string
	TripID              string
	RouteID             string
	Latitude            float64
	Longitude           float64
	Bearing             float64
	HasPosition         bool
	CurrentStopID       string
	CurrentStopSequence int
	Status              VehicleStatus
	Timestamp           int64
}

// StopTimePrediction is one predicted stop visit within a trip update.
// Arrival and Departure are Unix epoch seconds, zero when the feed did
// not predict that event.
type StopTimePrediction struct {
	StopID    string
	Sequence  int
	Arrival   int64
	Departure int64
	Delay     int32
}

// TripUpdateSnapshot is the predicted stop-time sequence for one trip.
type TripUpdateSnapshot struct {
	TripID    string
	RouteID   string
	StopTimes []StopTimePrediction
}

// HasAnyTime reports whether at least one prediction carries an arrival
// or departure time. A trip update without any is unusable downstream.
func (t TripUpdateSnapshot) HasAnyTime() bool {
	for _, st := range t.StopTimes {
		if st.Arrival != 0 || st.Departure != 0 {
			return true
		}
	}
	return false
}
