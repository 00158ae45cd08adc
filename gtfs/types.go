package gtfs

// Stop is one physical stop or platform from stops.txt.
type Stop struct {
	ID   string  `json:"stop_id"`
	Name string  `json:"stop_name"`
	Lat  float64 `json:"latitude"`
	Lon  float64 `json:"longitude"`
}

// Route is one route from routes.txt.
type Route struct {
	ID        string `json:"route_id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Type      int    `json:"route_type"`
}

// StopTimeEntry is one scheduled stop visit from stop_times.txt.
// Arrival and Departure keep the GTFS HH:MM:SS time-of-day strings.
type StopTimeEntry struct {
	TripID    string
	StopID    string
	Arrival   string
	Departure string
	Sequence  int
}

// SequencedStop is one stop within an ordered route sequence.
type SequencedStop struct {
	StopID   string `json:"stop_id"`
	Sequence int    `json:"sequence"`
	Name     string `json:"stop_name"`
}

// RouteStopSequence is the ordered stop list for one direction of a route.
type RouteStopSequence struct {
	DirectionID int             `json:"direction_id"`
	Stops       []SequencedStop `json:"stops"`
}
