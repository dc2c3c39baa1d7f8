package model

// Train describes a scheduled train service between two terminal
// stations.  A train is a timetable entry; the bookable instances of a
// train on concrete calendar dates are TrainRun records.
//
// Fields:
//  ID              – primary key identifier.
//  Number          – unique train number (e.g. "12951").
//  Name            – train name.
//  FromStationCode – origin terminal station code.
//  ToStationCode   – destination terminal station code.
//  DepartureTime   – departure at origin, "HH:MM" (nullable).
//  ArrivalTime     – arrival at destination, "HH:MM" (nullable).
//  DurationH       – journey duration, hours part (nullable).
//  DurationM       – journey duration, minutes part (nullable).
//  Type            – service type (e.g. "Exp", "SF") (nullable).
//  Zone            – operating railway zone (nullable).
//  DistanceKm      – route length in kilometres (nullable).
//  Classes         – comma separated seat classes sold on this train.
type Train struct {
	ID              uint64  `json:"id"`                       // trains.id
	Number          string  `json:"number"`                   // trains.number
	Name            string  `json:"name"`                     // trains.name
	FromStationCode string  `json:"from_station_code"`        // trains.from_station_code
	ToStationCode   string  `json:"to_station_code"`          // trains.to_station_code
	DepartureTime   *string `json:"departure_time,omitempty"` // trains.departure_time (nullable)
	ArrivalTime     *string `json:"arrival_time,omitempty"`   // trains.arrival_time (nullable)
	DurationH       *int    `json:"duration_h,omitempty"`     // trains.duration_h (nullable)
	DurationM       *int    `json:"duration_m,omitempty"`     // trains.duration_m (nullable)
	Type            *string `json:"type,omitempty"`           // trains.type (nullable)
	Zone            *string `json:"zone,omitempty"`           // trains.zone (nullable)
	DistanceKm      *int    `json:"distance_km,omitempty"`    // trains.distance_km (nullable)
	Classes         string  `json:"classes"`                  // trains.classes
}

// TrainStop is one scheduled halt on a train's route.  Stops are
// ordered by StopSequence; search uses the ordering to decide whether a
// journey between two intermediate stations is possible on this train.
//
// Fields:
//  ID                  – primary key identifier.
//  TrainID             – train this stop belongs to.
//  StationCode         – station code of the halt.
//  StopSequence        – 1-based position of the halt on the route.
//  ArrivalTime         – scheduled arrival, "HH:MM" (nullable at origin).
//  DepartureTime       – scheduled departure, "HH:MM" (nullable at destination).
//  DayOffset           – days after origin departure (0 for same day).
//  DistanceFromStartKm – cumulative distance from origin (nullable).
//  Platform            – platform designation (nullable).
//  HaltMinutes         – halt duration in minutes (nullable).
type TrainStop struct {
	ID                  uint64  `json:"id"`                               // train_stops.id
	TrainID             uint64  `json:"train_id"`                         // train_stops.train_id
	StationCode         string  `json:"station_code"`                     // train_stops.station_code
	StationName         *string `json:"station_name,omitempty"`           // joined from stations.name
	StopSequence        uint32  `json:"stop_sequence"`                    // train_stops.stop_sequence
	ArrivalTime         *string `json:"arrival_time,omitempty"`           // train_stops.arrival_time (nullable)
	DepartureTime       *string `json:"departure_time,omitempty"`         // train_stops.departure_time (nullable)
	DayOffset           int     `json:"day_offset"`                       // train_stops.day_offset
	DistanceFromStartKm *int    `json:"distance_from_start_km,omitempty"` // train_stops.distance_from_start_km (nullable)
	Platform            *string `json:"platform,omitempty"`               // train_stops.platform (nullable)
	HaltMinutes         *int    `json:"halt_minutes,omitempty"`           // train_stops.halt_minutes (nullable)
}
