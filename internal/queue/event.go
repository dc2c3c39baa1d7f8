// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a seat hold is successfully
// finalized into a booking. It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	BookingRef  string   `json:"booking_ref"`
	UserID      uint64   `json:"user_id"`
	TrainRunID  uint64   `json:"train_run_id"`
	TrainNumber string   `json:"train_number"`
	TrainName   string   `json:"train_name"`
	FromStation string   `json:"from_station"`
	ToStation   string   `json:"to_station"`
	JourneyDate string   `json:"journey_date"`
	SeatIDs     []uint64 `json:"seat_ids"`
	TotalCents  uint32   `json:"total_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}
