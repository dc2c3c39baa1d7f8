package model

// TrainRun is a bookable instance of a train on one calendar date.  It
// aggregates the seats generated for that date and caches the number of
// seats currently AVAILABLE.  The cache is only touched inside the same
// transaction that transitions seat statuses, so after every commit
// AvailableSeats equals the count of AVAILABLE seats for the run.
//
// Fields:
//  ID             – primary key identifier.
//  TrainID        – train this run belongs to.
//  RunDate        – calendar date of the run ("YYYY-MM-DD").
//  Status         – run state (SCHEDULED, CANCELLED, DEPARTED).
//  TotalSeats     – number of seats generated for this run.
//  AvailableSeats – cached count of seats with status AVAILABLE.
type TrainRun struct {
	ID             uint64 `json:"id"`              // train_runs.id
	TrainID        uint64 `json:"train_id"`        // train_runs.train_id
	RunDate        string `json:"run_date"`        // train_runs.run_date
	Status         string `json:"status"`          // train_runs.status
	TotalSeats     uint32 `json:"total_seats"`     // train_runs.total_seats
	AvailableSeats uint32 `json:"available_seats"` // train_runs.available_seats
}

// TrainRun status values.
const (
	RunScheduled = "SCHEDULED"
	RunCancelled = "CANCELLED"
	RunDeparted  = "DEPARTED"
)
