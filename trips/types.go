package trips

// StopClassification places one stop relative to the vehicle's current
// position along the trip.
type StopClassification string

const (
	StopPast    StopClassification = "past"
	StopCurrent StopClassification = "current"
	StopFuture  StopClassification = "future"
)

// ReconciledStop describes one stop in a trip's reconciled schedule.
// ArrivalTime is RFC3339 for realtime stops and the GTFS HH:MM:SS
// time-of-day string for static stops.
type ReconciledStop struct {
	StopID         string             `json:"stop_id"`
	Name           string             `json:"stop_name"`
	Sequence       int                `json:"sequence"`
	ArrivalTime    string             `json:"arrival_time,omitempty"`
	DepartureTime  string             `json:"departure_time,omitempty"`
	Delay          int32              `json:"delay,omitempty"`
	Classification StopClassification `json:"classification"`
}

// CurrentStopSummary is the vehicle's reported current stop.
type CurrentStopSummary struct {
	StopID     string `json:"stop_id"`
	Name       string `json:"stop_name"`
	Sequence   int    `json:"sequence"`
	Status     int    `json:"status"`
	StatusName string `json:"status_name"`
}

// TripView is the reconciled view of one trip: live vehicle state plus
// the realtime and static stop lists. DirectionID is -1 when the trip id
// carries no direction marker.
type TripView struct {
	TripID        string             `json:"trip_id"`
	StaticTripID  string             `json:"static_trip_id,omitempty"`
	RouteID       string             `json:"route_id"`
	DirectionID   int                `json:"direction_id"`
	DirectionName string             `json:"direction_name"`
	Headsign      string             `json:"headsign,omitempty"`
	VehicleID     string             `json:"vehicle_id"`
	ArrivalTime   string             `json:"arrival_time,omitempty"`
	Delay         int32              `json:"delay,omitempty"`
	CurrentStop   CurrentStopSummary `json:"current_stop"`
	Stops         []ReconciledStop   `json:"stops"`
	StaticStops   []ReconciledStop   `json:"static_stops"`
}
