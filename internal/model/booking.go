package model

import "time"

// Booking status values.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking is the durable record produced when a seat hold is finalized.
// BookingRef is the human-shareable reference code (PNR); it is unique
// at the database level.  TotalCents is the sum of the per-seat price
// snapshots taken at finalize time.
//
// Fields:
//  ID               – primary key identifier.
//  BookingRef       – unique reference code shown to the user.
//  UserID           – user who owns the booking.
//  TrainRunID       – run the booked seats belong to.
//  FromStationCode  – journey origin station code.
//  ToStationCode    – journey destination station code.
//  JourneyDate      – date of travel ("YYYY-MM-DD").
//  BookingTime      – when the booking was finalized (UTC).
//  TotalCents       – total charged across all seats, in cents.
//  NumPassengers    – number of passengers (equals number of seats).
//  Status           – CONFIRMED or CANCELLED.
//  PaymentStatus    – settlement marker; always PAID at finalize.
//  CancellationTime – when the booking was cancelled (nullable).
type Booking struct {
	ID               uint64     `json:"id"`                          // bookings.id
	BookingRef       string     `json:"booking_ref"`                 // bookings.booking_ref
	UserID           uint64     `json:"user_id"`                     // bookings.user_id
	TrainRunID       uint64     `json:"train_run_id"`                // bookings.train_run_id
	FromStationCode  string     `json:"from_station_code"`           // bookings.from_station_code
	ToStationCode    string     `json:"to_station_code"`             // bookings.to_station_code
	JourneyDate      string     `json:"journey_date"`                // bookings.journey_date
	BookingTime      time.Time  `json:"booking_time"`                // bookings.booking_time
	TotalCents       uint32     `json:"total_cents"`                 // bookings.total_cents
	NumPassengers    uint32     `json:"num_passengers"`              // bookings.num_passengers
	Status           string     `json:"status"`                      // bookings.status
	PaymentStatus    string     `json:"payment_status"`              // bookings.payment_status
	CancellationTime *time.Time `json:"cancellation_time,omitempty"` // bookings.cancellation_time (nullable)
}

// BookingSeat assigns one passenger to one seat inside a booking.  The
// price is an immutable snapshot of the seat price at finalize time.
//
// Fields:
//  ID              – primary key identifier.
//  BookingID       – booking this assignment belongs to.
//  SeatID          – seat assigned to the passenger.
//  PassengerName   – passenger full name.
//  PassengerAge    – passenger age (nullable).
//  PassengerGender – passenger gender (nullable).
//  PriceCents      – price charged for this seat, in cents.
type BookingSeat struct {
	ID              uint64  `json:"id"`                         // booking_seats.id
	BookingID       uint64  `json:"booking_id"`                 // booking_seats.booking_id
	SeatID          uint64  `json:"seat_id"`                    // booking_seats.seat_id
	PassengerName   string  `json:"passenger_name"`             // booking_seats.passenger_name
	PassengerAge    *int    `json:"passenger_age,omitempty"`    // booking_seats.passenger_age (nullable)
	PassengerGender *string `json:"passenger_gender,omitempty"` // booking_seats.passenger_gender (nullable)
	PriceCents      uint32  `json:"price_cents"`                // booking_seats.price_cents
}

// Passenger carries the caller-supplied passenger details for one seat
// when finalizing a booking.  Passengers are zipped positionally with
// the hold's seat ids.
type Passenger struct {
	Name   string  `json:"name"`
	Age    *int    `json:"age,omitempty"`
	Gender *string `json:"gender,omitempty"`
}
