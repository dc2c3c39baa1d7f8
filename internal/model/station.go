package model

// Station represents a railway station in the catalog.  Stations are
// identified by their short alphabetic code (e.g. "NDLS") which is
// unique across the network.  Coordinates are optional because not
// every imported record carries geometry.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – unique station code.
//  Name      – full station name.
//  State     – state or region the station belongs to (nullable).
//  Zone      – railway zone abbreviation (nullable).
//  Address   – free-form address text (nullable).
//  Latitude  – latitude in degrees (nullable).
//  Longitude – longitude in degrees (nullable).
type Station struct {
	ID        uint64   `json:"id"`                  // stations.id
	Code      string   `json:"code"`                // stations.code
	Name      string   `json:"name"`                // stations.name
	State     *string  `json:"state,omitempty"`     // stations.state (nullable)
	Zone      *string  `json:"zone,omitempty"`      // stations.zone (nullable)
	Address   *string  `json:"address,omitempty"`   // stations.address (nullable)
	Latitude  *float64 `json:"latitude,omitempty"`  // stations.latitude (nullable)
	Longitude *float64 `json:"longitude,omitempty"` // stations.longitude (nullable)
}
