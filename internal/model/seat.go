package model

// Seat status values.  A seat belongs to exactly one train run and at
// any moment is referenced by at most one non-terminal hold or one
// confirmed booking:
//
//  AVAILABLE – no active hold or confirmed booking references the seat.
//  HELD      – exactly one ACTIVE seat hold references the seat.
//  BOOKED    – exactly one CONFIRMED booking references the seat.
const (
	SeatAvailable = "AVAILABLE"
	SeatHeld      = "HELD"
	SeatBooked    = "BOOKED"
)

// Seat is one physical seat on a specific train run.  Seat rows are
// generated per run at import time; the price is fixed per seat and is
// snapshotted into booking_seats at finalize time, so later price
// changes never affect existing bookings.
//
// Fields:
//  ID          – primary key identifier.
//  TrainRunID  – run this seat belongs to.
//  SeatNumber  – seat designation within the coach (e.g. "12").
//  CoachNumber – coach designation (e.g. "S1", "B2").
//  SeatClass   – fare class (e.g. "SL", "3A", "2A", "1A", "CC").
//  PriceCents  – current price of the seat in cents.
//  Status      – one of SeatAvailable, SeatHeld, SeatBooked.
type Seat struct {
	ID          uint64 `json:"id"`           // seats.id
	TrainRunID  uint64 `json:"train_run_id"` // seats.train_run_id
	SeatNumber  string `json:"seat_number"`  // seats.seat_number
	CoachNumber string `json:"coach_number"` // seats.coach_number
	SeatClass   string `json:"seat_class"`   // seats.seat_class
	PriceCents  uint32 `json:"price_cents"`  // seats.price_cents
	Status      string `json:"status"`       // seats.status
}
