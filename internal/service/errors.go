package service

import "errors"

// Sentinel errors returned by the reservation service.  Handlers map
// these onto HTTP status codes; tests assert on them with errors.Is.
var (
	// ErrNoSeats is returned when a hold request names no seats.
	ErrNoSeats = errors.New("no seats requested")

	// ErrDuplicateSeats is returned when a hold request names the
	// same seat more than once.
	ErrDuplicateSeats = errors.New("duplicate seat ids in request")

	// ErrRunNotFound is returned when the referenced train run does
	// not exist.
	ErrRunNotFound = errors.New("train run not found")

	// ErrRunNotBookable is returned when the run exists but is not
	// open for booking (cancelled or already departed).
	ErrRunNotBookable = errors.New("train run is not open for booking")

	// ErrSeatUnavailable is returned when at least one requested seat
	// could not be claimed.  Nothing is changed in that case.  Seat
	// ids that do not exist or belong to a different run surface as
	// this error too.
	ErrSeatUnavailable = errors.New("one or more seats are not available")

	// ErrHoldNotFound is returned when no hold with the given id exists.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldNotActive is returned when the hold has already been
	// completed, released or expired.
	ErrHoldNotActive = errors.New("hold is not active")

	// ErrHoldNotOwned is returned when a caller tries to finalize a
	// hold created by a different user.
	ErrHoldNotOwned = errors.New("hold belongs to another user")

	// ErrHoldExpired is returned when the hold's deadline has passed.
	// The hold is moved to EXPIRED and its seats are freed as a side
	// effect of the failed finalize.
	ErrHoldExpired = errors.New("hold has expired")

	// ErrSeatNoLongerHeld is returned when a seat that should be HELD
	// under the hold has changed state underneath it.
	ErrSeatNoLongerHeld = errors.New("seat is no longer held")

	// ErrPassengerCount is returned when the number of passengers does
	// not match the number of held seats.
	ErrPassengerCount = errors.New("passenger count does not match seat count")

	// ErrBookingNotFound is returned when no booking with the given
	// reference exists.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrForbidden is returned when a caller tries to cancel a
	// booking they do not own without admin rights.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyCancelled is returned when the booking has already
	// been cancelled.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrStorageConflict is returned when the database reported a
	// transient transaction failure (deadlock or lock timeout).  The
	// operation had no effect and may be retried unchanged.
	ErrStorageConflict = errors.New("storage busy, retry")
)
