// Package service implements the reservation core: creating seat
// holds, finalizing them into bookings, releasing and cancelling, and
// reaping expired holds.  Every operation that changes seat state runs
// inside a single database transaction and uses conditional status
// updates, so two concurrent operations can never claim the same seat.
package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/queue"
	"github.com/rajeet-04/railway/internal/repository"
)

// Hold lifetime bounds.  A requested TTL of zero selects the default;
// anything outside the bounds is clamped rather than rejected.
const (
	DefaultHoldTTL = 120 * time.Second
	MinHoldTTL     = 10 * time.Second
	MaxHoldTTL     = 30 * time.Minute
)

// bookingRefRetries bounds how often a colliding reference is
// regenerated before the finalize gives up.
const bookingRefRetries = 3

// PublishFunc delivers a confirmation event to the message broker.
// Publishing is best-effort: a failure never rolls back the booking.
type PublishFunc func(ctx context.Context, event queue.BookingConfirmedEvent) error

// ReservationService owns the seat inventory state machine.
type ReservationService struct {
	db       *sql.DB
	seats    *repository.SeatRepo
	holds    *repository.SeatHoldRepo
	bookings *repository.BookingRepo
	runs     *repository.TrainRunRepo
	trains   *repository.TrainRepo
	publish  PublishFunc

	// now is the clock used for hold expiry; replaceable in tests.
	now func() time.Time
}

// NewReservationService wires a ReservationService.  publish may be
// nil, in which case no confirmation events are emitted.
func NewReservationService(db *sql.DB, seats *repository.SeatRepo, holds *repository.SeatHoldRepo,
	bookings *repository.BookingRepo, runs *repository.TrainRunRepo, trains *repository.TrainRepo,
	publish PublishFunc) *ReservationService {
	return &ReservationService{
		db:       db,
		seats:    seats,
		holds:    holds,
		bookings: bookings,
		runs:     runs,
		trains:   trains,
		publish:  publish,
		now:      time.Now,
	}
}

// clampTTL applies the default and bounds to a requested hold TTL.
func clampTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return DefaultHoldTTL
	}
	if ttl < MinHoldTTL {
		return MinHoldTTL
	}
	if ttl > MaxHoldTTL {
		return MaxHoldTTL
	}
	return ttl
}

// storageErr upgrades transient driver failures (deadlock, busy or
// lock-wait timeout) to ErrStorageConflict.  Every other error passes
// through unchanged.
func storageErr(err error) error {
	if err != nil && repository.IsLockConflict(err) {
		return fmt.Errorf("%w: %v", ErrStorageConflict, err)
	}
	return err
}

// CreateHold claims the given seats on a run for the user.  All seats
// must currently be AVAILABLE; when any of them is not, nothing is
// changed and ErrSeatUnavailable is returned.  On success the seats
// are HELD, the run's available counter is decremented and the
// returned hold carries the token and expiry the client needs to
// finalize.
func (s *ReservationService) CreateHold(ctx context.Context, userID, runID uint64, seatIDs []uint64, ttl time.Duration) (*model.SeatHold, error) {
	hold, err := s.createHold(ctx, userID, runID, seatIDs, ttl)
	return hold, storageErr(err)
}

func (s *ReservationService) createHold(ctx context.Context, userID, runID uint64, seatIDs []uint64, ttl time.Duration) (*model.SeatHold, error) {
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateSeats
		}
		seen[id] = struct{}{}
	}

	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("load run: %w", err)
	}
	if run.Status != model.RunScheduled {
		return nil, ErrRunNotBookable
	}

	ttl = clampTTL(ttl)
	nowT := s.now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	n, err := s.seats.UpdateStatusTx(ctx, tx, runID, seatIDs, model.SeatAvailable, model.SeatHeld)
	if err != nil {
		return nil, fmt.Errorf("claim seats: %w", err)
	}
	if n != int64(len(seatIDs)) {
		return nil, ErrSeatUnavailable
	}

	hold := &model.SeatHold{
		HoldToken:  uuid.NewString(),
		UserID:     userID,
		TrainRunID: runID,
		SeatIDs:    seatIDs,
		CreatedAt:  nowT,
		ExpiresAt:  nowT.Add(ttl),
		Status:     model.HoldActive,
	}
	if err := s.holds.CreateTx(ctx, tx, hold); err != nil {
		return nil, fmt.Errorf("create hold: %w", err)
	}
	if err := s.runs.AdjustAvailableTx(ctx, tx, runID, -int64(len(seatIDs))); err != nil {
		return nil, fmt.Errorf("adjust availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return hold, nil
}

// ReleaseHold gives the seats of a hold back voluntarily.  The call is
// idempotent: releasing a hold that has already left ACTIVE (by a
// previous release, a finalize, or the reaper) succeeds without
// touching anything.  Only ErrHoldNotFound signals a real failure.
func (s *ReservationService) ReleaseHold(ctx context.Context, holdID uint64) error {
	return storageErr(s.releaseHold(ctx, holdID))
}

func (s *ReservationService) releaseHold(ctx context.Context, holdID uint64) error {
	hold, err := s.holds.GetByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrHoldNotFound
		}
		return fmt.Errorf("load hold: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	changed, err := s.holds.MarkStatusTx(ctx, tx, holdID, model.HoldActive, model.HoldReleased)
	if err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	if !changed {
		// Someone already moved the hold out of ACTIVE; its seats
		// were handled by whoever did.
		return nil
	}

	freed, err := s.seats.UpdateStatusTx(ctx, tx, hold.TrainRunID, hold.SeatIDs, model.SeatHeld, model.SeatAvailable)
	if err != nil {
		return fmt.Errorf("free seats: %w", err)
	}
	if err := s.runs.AdjustAvailableTx(ctx, tx, hold.TrainRunID, freed); err != nil {
		return fmt.Errorf("adjust availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// newBookingRef generates a booking reference of the form
// PNR-<unix seconds>-<6 hex chars>.  Uniqueness is enforced by the
// database; a collision makes the caller regenerate.
func newBookingRef(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("PNR-%d-%s", now.Unix(), strings.ToUpper(hex.EncodeToString(b))), nil
}

// FinalizeBooking converts an ACTIVE, unexpired hold owned by the user
// into a CONFIRMED booking.  Passengers are assigned to the hold's
// seats positionally, so len(passengers) must equal the number of held
// seats.  Seat prices are snapshotted at this moment.  A hold can be
// finalized at most once.
//
// When the hold's deadline has passed the hold is moved to EXPIRED,
// its seats are freed, that transition is committed, and
// ErrHoldExpired is returned.  Every other failure leaves the database
// untouched.
func (s *ReservationService) FinalizeBooking(ctx context.Context, userID, holdID uint64, passengers []model.Passenger) (*model.Booking, error) {
	booking, err := s.finalizeBooking(ctx, userID, holdID, passengers)
	return booking, storageErr(err)
}

func (s *ReservationService) finalizeBooking(ctx context.Context, userID, holdID uint64, passengers []model.Passenger) (*model.Booking, error) {
	// Pre-load the run and train outside the transaction; both are
	// immutable for the lifetime of a hold.
	pre, err := s.holds.GetByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("load hold: %w", err)
	}
	run, err := s.runs.GetByID(ctx, pre.TrainRunID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	train, err := s.trains.GetByID(ctx, run.TrainID)
	if err != nil {
		return nil, fmt.Errorf("load train: %w", err)
	}

	nowT := s.now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Authoritative re-read inside the transaction.
	hold, err := s.holds.GetTx(ctx, tx, holdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("load hold: %w", err)
	}
	if hold.Status != model.HoldActive {
		return nil, ErrHoldNotActive
	}
	if hold.UserID != userID {
		return nil, ErrHoldNotOwned
	}
	if nowT.After(hold.ExpiresAt) {
		// Expire in place so the seats come back immediately instead
		// of waiting for the reaper.  This transition commits even
		// though the finalize fails.
		if _, err := s.holds.MarkStatusTx(ctx, tx, holdID, model.HoldActive, model.HoldExpired); err != nil {
			return nil, fmt.Errorf("expire hold: %w", err)
		}
		freed, err := s.seats.UpdateStatusTx(ctx, tx, hold.TrainRunID, hold.SeatIDs, model.SeatHeld, model.SeatAvailable)
		if err != nil {
			return nil, fmt.Errorf("free seats: %w", err)
		}
		if err := s.runs.AdjustAvailableTx(ctx, tx, hold.TrainRunID, freed); err != nil {
			return nil, fmt.Errorf("adjust availability: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		committed = true
		return nil, ErrHoldExpired
	}
	if len(passengers) != len(hold.SeatIDs) {
		return nil, ErrPassengerCount
	}

	// Re-verify every seat is still HELD while booking it.  A
	// shortfall means inventory drifted underneath the hold.
	n, err := s.seats.UpdateStatusTx(ctx, tx, hold.TrainRunID, hold.SeatIDs, model.SeatHeld, model.SeatBooked)
	if err != nil {
		return nil, fmt.Errorf("book seats: %w", err)
	}
	if n != int64(len(hold.SeatIDs)) {
		return nil, ErrSeatNoLongerHeld
	}

	prices, err := s.seats.PricesTx(ctx, tx, hold.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	var total uint32
	for _, id := range hold.SeatIDs {
		total += prices[id]
	}

	booking := &model.Booking{
		UserID:          userID,
		TrainRunID:      hold.TrainRunID,
		FromStationCode: train.FromStationCode,
		ToStationCode:   train.ToStationCode,
		JourneyDate:     run.RunDate,
		BookingTime:     nowT,
		TotalCents:      total,
		NumPassengers:   uint32(len(passengers)),
		Status:          model.BookingConfirmed,
		PaymentStatus:   "PAID",
	}
	for attempt := 0; ; attempt++ {
		if booking.BookingRef, err = newBookingRef(nowT); err != nil {
			return nil, fmt.Errorf("generate reference: %w", err)
		}
		err = s.bookings.CreateTx(ctx, tx, booking)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateRef) || attempt+1 >= bookingRefRetries {
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}

	seatRows := make([]model.BookingSeat, len(hold.SeatIDs))
	for i, seatID := range hold.SeatIDs {
		seatRows[i] = model.BookingSeat{
			BookingID:       booking.ID,
			SeatID:          seatID,
			PassengerName:   passengers[i].Name,
			PassengerAge:    passengers[i].Age,
			PassengerGender: passengers[i].Gender,
			PriceCents:      prices[seatID],
		}
	}
	if err := s.bookings.CreateSeatsBulkTx(ctx, tx, seatRows); err != nil {
		return nil, fmt.Errorf("create booking seats: %w", err)
	}

	if _, err := s.holds.MarkStatusTx(ctx, tx, holdID, model.HoldActive, model.HoldCompleted); err != nil {
		return nil, fmt.Errorf("complete hold: %w", err)
	}
	// available_seats stays put: the seats moved HELD -> BOOKED and
	// were already subtracted when the hold was created.

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	if s.publish != nil {
		// Best effort; the booking stands even if the broker is down.
		_ = s.publish(ctx, queue.BookingConfirmedEvent{
			BookingID:   booking.ID,
			BookingRef:  booking.BookingRef,
			UserID:      userID,
			TrainRunID:  hold.TrainRunID,
			TrainNumber: train.Number,
			TrainName:   train.Name,
			FromStation: train.FromStationCode,
			ToStation:   train.ToStationCode,
			JourneyDate: run.RunDate,
			SeatIDs:     hold.SeatIDs,
			TotalCents:  total,
			ConfirmedAt: booking.BookingTime.Format(time.RFC3339),
		})
	}
	return booking, nil
}

// CancelBooking cancels a CONFIRMED booking and returns its seats to
// AVAILABLE.  Only the booking's owner or an admin may cancel.
func (s *ReservationService) CancelBooking(ctx context.Context, userID uint64, isAdmin bool, ref string) error {
	return storageErr(s.cancelBooking(ctx, userID, isAdmin, ref))
}

func (s *ReservationService) cancelBooking(ctx context.Context, userID uint64, isAdmin bool, ref string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	info, err := s.bookings.GetCancelInfoTx(ctx, tx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("load booking: %w", err)
	}
	if info.UserID != userID && !isAdmin {
		return ErrForbidden
	}

	nowT := s.now().UTC().Truncate(time.Second)
	changed, err := s.bookings.MarkCancelledTx(ctx, tx, info.ID, nowT)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !changed {
		return ErrAlreadyCancelled
	}

	freed, err := s.seats.UpdateStatusTx(ctx, tx, info.TrainRunID, info.SeatIDs, model.SeatBooked, model.SeatAvailable)
	if err != nil {
		return fmt.Errorf("free seats: %w", err)
	}
	if err := s.runs.AdjustAvailableTx(ctx, tx, info.TrainRunID, freed); err != nil {
		return fmt.Errorf("adjust availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// ReapExpiredHolds finds ACTIVE holds whose deadline has passed and
// expires them, freeing their seats.  Each hold is processed in its
// own transaction with a conditional status flip, so a hold finalized
// between the scan and the flip is left alone.  Returns the number of
// holds actually expired.
func (s *ReservationService) ReapExpiredHolds(ctx context.Context, batch int) (int, error) {
	ids, err := s.holds.ListExpiredActive(ctx, s.now().UTC(), batch)
	if err != nil {
		return 0, storageErr(fmt.Errorf("scan expired holds: %w", err))
	}
	reaped := 0
	for _, id := range ids {
		if err := s.reapOne(ctx, id); err != nil {
			log.Printf("reaper: hold %d: %v", id, err)
			continue
		}
		reaped++
	}
	return reaped, nil
}

func (s *ReservationService) reapOne(ctx context.Context, holdID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hold, err := s.holds.GetTx(ctx, tx, holdID)
	if err != nil {
		return fmt.Errorf("load hold: %w", err)
	}
	changed, err := s.holds.MarkStatusTx(ctx, tx, holdID, model.HoldActive, model.HoldExpired)
	if err != nil {
		return fmt.Errorf("expire hold: %w", err)
	}
	if !changed {
		// Finalized or released after the scan; nothing to reclaim.
		return nil
	}

	freed, err := s.seats.UpdateStatusTx(ctx, tx, hold.TrainRunID, hold.SeatIDs, model.SeatHeld, model.SeatAvailable)
	if err != nil {
		return fmt.Errorf("free seats: %w", err)
	}
	if err := s.runs.AdjustAvailableTx(ctx, tx, hold.TrainRunID, freed); err != nil {
		return fmt.Errorf("adjust availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
