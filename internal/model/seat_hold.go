package model

import "time"

// Seat hold status values.  ACTIVE is the only non-terminal state; a
// hold never returns to ACTIVE once it has left it.
const (
	HoldActive    = "ACTIVE"    // hold owns its seats until expiry
	HoldCompleted = "COMPLETED" // consumed by a finalized booking
	HoldReleased  = "RELEASED"  // explicitly released by the client
	HoldExpired   = "EXPIRED"   // reclaimed by the reaper after expiry
)

// SeatHold is a time-bound exclusive claim over a set of seats on one
// train run for one user.  While a hold is ACTIVE its seats are HELD
// and cannot be claimed by anyone else.  Holds expire automatically at
// ExpiresAt; the background reaper transitions stale ACTIVE holds to
// EXPIRED and returns their seats to AVAILABLE.
//
// Fields:
//  ID         – primary key identifier.
//  HoldToken  – opaque unguessable token returned to the client.
//  UserID     – user the hold belongs to.
//  TrainRunID – run the held seats belong to.
//  SeatIDs    – ordered set of held seat ids (no duplicates).
//  CreatedAt  – when the hold was created (UTC).
//  ExpiresAt  – when the hold stops being finalizable (UTC).
//  Status     – one of the Hold* constants above.
type SeatHold struct {
	ID         uint64    `json:"hold_id"`      // seat_holds.id
	HoldToken  string    `json:"hold_token"`   // seat_holds.hold_token
	UserID     uint64    `json:"user_id"`      // seat_holds.user_id
	TrainRunID uint64    `json:"train_run_id"` // seat_holds.train_run_id
	SeatIDs    []uint64  `json:"seat_ids"`     // seat_holds.seat_ids (JSON array column)
	CreatedAt  time.Time `json:"created_at"`   // seat_holds.created_at
	ExpiresAt  time.Time `json:"expires_at"`   // seat_holds.expires_at
	Status     string    `json:"status"`       // seat_holds.status
}
