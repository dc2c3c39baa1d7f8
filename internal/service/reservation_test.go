package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rajeet-04/railway/internal/database"
	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/queue"
	"github.com/rajeet-04/railway/internal/repository"
)

var testDBSeq int64

// newTestDB opens a private in-memory SQLite database with the full
// schema applied.  The pool is capped at one connection so concurrent
// transactions in tests serialize instead of fighting over the write
// lock.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("svc_test_%d", atomic.AddInt64(&testDBSeq, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)", name)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// testEnv bundles a service instance with seeded inventory: one train,
// one run, ten seats and two regular users plus an admin.
type testEnv struct {
	db       *sql.DB
	svc      *ReservationService
	seats    *repository.SeatRepo
	holds    *repository.SeatHoldRepo
	bookings *repository.BookingRepo
	runs     *repository.TrainRunRepo

	runID   uint64
	seatIDs []uint64
	userA   uint64
	userB   uint64
	admin   uint64

	mu        sync.Mutex
	published []queue.BookingConfirmedEvent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	env := &testEnv{
		db:       db,
		seats:    repository.NewSeatRepo(db),
		holds:    repository.NewSeatHoldRepo(db),
		bookings: repository.NewBookingRepo(db),
		runs:     repository.NewTrainRunRepo(db),
	}
	trains := repository.NewTrainRepo(db)
	users := repository.NewUserRepo(db)

	env.svc = NewReservationService(db, env.seats, env.holds, env.bookings, env.runs, trains,
		func(_ context.Context, ev queue.BookingConfirmedEvent) error {
			env.mu.Lock()
			env.published = append(env.published, ev)
			env.mu.Unlock()
			return nil
		})

	train := model.Train{
		Number:          "12951",
		Name:            "Mumbai Rajdhani",
		FromStationCode: "NDLS",
		ToStationCode:   "BCT",
		Classes:         "1A,SL",
	}
	created, err := trains.Create(ctx, &train)
	require.NoError(t, err)
	require.True(t, created)

	env.runID, err = env.runs.Create(ctx, train.ID, "2026-09-15", 0)
	require.NoError(t, err)

	seats := make([]model.Seat, 0, 10)
	for i := 1; i <= 10; i++ {
		seats = append(seats, model.Seat{
			TrainRunID:  env.runID,
			SeatNumber:  fmt.Sprintf("SL-%02d", i),
			CoachNumber: "S1",
			SeatClass:   "SL",
			PriceCents:  uint32(1000 * i),
		})
	}
	require.NoError(t, env.seats.CreateBulk(ctx, seats))
	require.NoError(t, env.runs.SetTotals(ctx, env.runID, 10, 10))

	listed, err := env.seats.ListByRun(ctx, env.runID, "")
	require.NoError(t, err)
	require.Len(t, listed, 10)
	for _, s := range listed {
		env.seatIDs = append(env.seatIDs, s.ID)
	}

	env.userA, err = users.Create(ctx, "alice@example.com", "secret1", "Alice", nil, 4)
	require.NoError(t, err)
	env.userB, err = users.Create(ctx, "bob@example.com", "secret2", "Bob", nil, 4)
	require.NoError(t, err)
	env.admin, err = users.Create(ctx, "root@example.com", "secret3", "Root", nil, 4)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `UPDATE users SET is_admin = 1 WHERE id = ?`, env.admin)
	require.NoError(t, err)

	return env
}

// setClock pins the service clock to a fixed instant.
func (e *testEnv) setClock(at time.Time) {
	e.svc.now = func() time.Time { return at }
}

// assertConservation checks that seat-status counts sum to the run's
// total and that the cached available counter matches the AVAILABLE
// count exactly.
func (e *testEnv) assertConservation(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	counts, err := e.seats.CountByStatus(ctx, e.runID)
	require.NoError(t, err)
	run, err := e.runs.GetByID(ctx, e.runID)
	require.NoError(t, err)
	sum := counts[model.SeatAvailable] + counts[model.SeatHeld] + counts[model.SeatBooked]
	require.Equal(t, run.TotalSeats, sum, "seat counts must sum to total")
	require.Equal(t, run.AvailableSeats, counts[model.SeatAvailable], "cached counter must match AVAILABLE count")
}

func somePassengers(n int) []model.Passenger {
	ps := make([]model.Passenger, n)
	for i := range ps {
		age := 30 + i
		ps[i] = model.Passenger{Name: fmt.Sprintf("Passenger %d", i+1), Age: &age}
	}
	return ps
}

func TestCreateHoldClaimsSeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:3], 0)
	require.NoError(t, err)
	require.NotZero(t, hold.ID)
	require.NotEmpty(t, hold.HoldToken)
	require.Equal(t, model.HoldActive, hold.Status)
	require.Equal(t, DefaultHoldTTL, hold.ExpiresAt.Sub(hold.CreatedAt))

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(3), counts[model.SeatHeld])
	require.Equal(t, uint32(7), counts[model.SeatAvailable])

	run, err := env.runs.GetByID(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(7), run.AvailableSeats)
	env.assertConservation(t)
}

func TestCreateHoldTTLClamped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:1], time.Second)
	require.NoError(t, err)
	require.Equal(t, MinHoldTTL, hold.ExpiresAt.Sub(hold.CreatedAt))

	hold2, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[1:2], 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, MaxHoldTTL, hold2.ExpiresAt.Sub(hold2.CreatedAt))
}

func TestCreateHoldValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateHold(ctx, env.userA, env.runID, nil, 0)
	require.ErrorIs(t, err, ErrNoSeats)

	_, err = env.svc.CreateHold(ctx, env.userA, env.runID, []uint64{env.seatIDs[0], env.seatIDs[0]}, 0)
	require.ErrorIs(t, err, ErrDuplicateSeats)

	_, err = env.svc.CreateHold(ctx, env.userA, 99999, env.seatIDs[:1], 0)
	require.ErrorIs(t, err, ErrRunNotFound)

	env.assertConservation(t)
}

func TestCreateHoldOverlapConflictLeavesNothingBehind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[0:3], 0)
	require.NoError(t, err)

	// Overlaps on seat index 2; seat index 3 is free but must not be
	// claimed by the failing request.
	_, err = env.svc.CreateHold(ctx, env.userB, env.runID, env.seatIDs[2:5], 0)
	require.ErrorIs(t, err, ErrSeatUnavailable)

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(3), counts[model.SeatHeld])
	require.Equal(t, uint32(7), counts[model.SeatAvailable])
	env.assertConservation(t)
}

func TestConcurrentHoldsNeverDoubleAllocate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 8
	target := env.seatIDs[4:6]

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := env.svc.CreateHold(ctx, user, env.runID, target, 0)
			errs <- err
		}(env.userA)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrSeatUnavailable)
	}
	require.Equal(t, 1, succeeded, "exactly one contender may win the seats")
	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), counts[model.SeatHeld])
	env.assertConservation(t)
}

func TestReleaseHoldIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)

	require.NoError(t, env.svc.ReleaseHold(ctx, hold.ID))
	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(10), counts[model.SeatAvailable])
	env.assertConservation(t)

	got, err := env.holds.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	require.Equal(t, model.HoldReleased, got.Status)

	// Releasing again changes nothing and still succeeds.
	require.NoError(t, env.svc.ReleaseHold(ctx, hold.ID))
	env.assertConservation(t)

	require.ErrorIs(t, env.svc.ReleaseHold(ctx, 99999), ErrHoldNotFound)
}

func TestFinalizeBookingHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:3], 0)
	require.NoError(t, err)

	booking, err := env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(3))
	require.NoError(t, err)
	require.Equal(t, model.BookingConfirmed, booking.Status)
	require.Equal(t, "PAID", booking.PaymentStatus)
	require.Contains(t, booking.BookingRef, "PNR-")
	// Seats 1..3 cost 1000, 2000, 3000.
	require.Equal(t, uint32(6000), booking.TotalCents)
	require.Equal(t, uint32(3), booking.NumPassengers)
	require.Equal(t, "NDLS", booking.FromStationCode)
	require.Equal(t, "BCT", booking.ToStationCode)
	require.Equal(t, "2026-09-15", booking.JourneyDate)

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(3), counts[model.SeatBooked])
	require.Equal(t, uint32(7), counts[model.SeatAvailable])
	env.assertConservation(t)

	got, err := env.holds.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	require.Equal(t, model.HoldCompleted, got.Status)

	passengers, err := env.bookings.PassengersByBookingID(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, passengers, 3)

	env.mu.Lock()
	defer env.mu.Unlock()
	require.Len(t, env.published, 1)
	require.Equal(t, booking.BookingRef, env.published[0].BookingRef)
	require.Equal(t, uint32(6000), env.published[0].TotalCents)
}

func TestFinalizeBookingExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)

	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.NoError(t, err)

	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.ErrorIs(t, err, ErrHoldNotActive)

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), counts[model.SeatBooked])
	env.assertConservation(t)
}

func TestFinalizeBookingErrorLadder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.FinalizeBooking(ctx, env.userA, 99999, somePassengers(1))
	require.ErrorIs(t, err, ErrHoldNotFound)

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)

	_, err = env.svc.FinalizeBooking(ctx, env.userB, hold.ID, somePassengers(2))
	require.ErrorIs(t, err, ErrHoldNotOwned)

	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(3))
	require.ErrorIs(t, err, ErrPassengerCount)

	// The failed attempts changed nothing: the hold is still ACTIVE
	// and its seats are still HELD.
	got, err := env.holds.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	require.Equal(t, model.HoldActive, got.Status)
	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), counts[model.SeatHeld])
	env.assertConservation(t)

	require.NoError(t, env.svc.ReleaseHold(ctx, hold.ID))
	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.ErrorIs(t, err, ErrHoldNotActive)
}

func TestFinalizeSeatNoLongerHeldRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)

	// Pull one seat out from under the ACTIVE hold, the way a lost
	// update would.
	_, err = env.db.ExecContext(ctx, `UPDATE seats SET status = ? WHERE id = ?`,
		model.SeatAvailable, env.seatIDs[0])
	require.NoError(t, err)

	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.ErrorIs(t, err, ErrSeatNoLongerHeld)

	// The transaction rolled back completely: the hold is still
	// ACTIVE, no booking was written, no seat became BOOKED and no
	// event was published.
	got, err := env.holds.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	require.Equal(t, model.HoldActive, got.Status)

	bookings, err := env.bookings.ListByUser(ctx, env.userA)
	require.NoError(t, err)
	require.Empty(t, bookings)

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Zero(t, counts[model.SeatBooked])
	require.Equal(t, uint32(1), counts[model.SeatHeld])

	env.mu.Lock()
	defer env.mu.Unlock()
	require.Empty(t, env.published)
}

func TestStorageErrClassification(t *testing.T) {
	busy := []error{
		errors.New("database is locked (5) (SQLITE_BUSY)"),
		errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction"),
		errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction"),
	}
	for _, err := range busy {
		require.ErrorIs(t, storageErr(err), ErrStorageConflict, "%v", err)
	}

	// Sentinels and ordinary errors pass through untouched.
	require.ErrorIs(t, storageErr(ErrSeatUnavailable), ErrSeatUnavailable)
	require.NotErrorIs(t, storageErr(ErrSeatUnavailable), ErrStorageConflict)
	plain := errors.New("UNIQUE constraint failed: bookings.booking_ref")
	require.Equal(t, plain, storageErr(plain))
	require.NoError(t, storageErr(nil))
}

func TestFinalizeExpiredHoldFreesSeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	env.setClock(t0)

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], time.Minute)
	require.NoError(t, err)

	env.setClock(t0.Add(2 * time.Minute))
	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.ErrorIs(t, err, ErrHoldExpired)

	// The expiry transition committed: seats freed, counter restored.
	got, err := env.holds.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	require.Equal(t, model.HoldExpired, got.Status)
	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(10), counts[model.SeatAvailable])
	env.assertConservation(t)
}

func TestReapExpiredHolds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	env.setClock(t0)

	h1, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], time.Minute)
	require.NoError(t, err)
	h2, err := env.svc.CreateHold(ctx, env.userB, env.runID, env.seatIDs[2:5], time.Minute)
	require.NoError(t, err)
	// Still far from its deadline.
	h3, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[5:6], 10*time.Minute)
	require.NoError(t, err)

	env.setClock(t0.Add(5 * time.Minute))
	reaped, err := env.svc.ReapExpiredHolds(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, 2, reaped)

	for _, tc := range []struct {
		id   uint64
		want string
	}{
		{h1.ID, model.HoldExpired},
		{h2.ID, model.HoldExpired},
		{h3.ID, model.HoldActive},
	} {
		got, err := env.holds.GetByID(ctx, tc.id)
		require.NoError(t, err)
		require.Equal(t, tc.want, got.Status)
	}

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(9), counts[model.SeatAvailable])
	require.Equal(t, uint32(1), counts[model.SeatHeld])
	env.assertConservation(t)

	// Reaping again finds nothing.
	reaped, err = env.svc.ReapExpiredHolds(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, 0, reaped)
}

func TestReaperSkipsFinalizedHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	env.setClock(t0)

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], time.Minute)
	require.NoError(t, err)
	_, err = env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.NoError(t, err)

	env.setClock(t0.Add(5 * time.Minute))
	reaped, err := env.svc.ReapExpiredHolds(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, 0, reaped)

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), counts[model.SeatBooked])
	env.assertConservation(t)
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)
	booking, err := env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.NoError(t, err)

	require.ErrorIs(t, env.svc.CancelBooking(ctx, env.userB, false, booking.BookingRef), ErrForbidden)
	require.ErrorIs(t, env.svc.CancelBooking(ctx, env.userA, false, "PNR-NOPE"), ErrBookingNotFound)

	require.NoError(t, env.svc.CancelBooking(ctx, env.userA, false, booking.BookingRef))

	got, err := env.bookings.GetByRef(ctx, booking.BookingRef)
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, got.Status)
	require.NotNil(t, got.CancellationTime)

	counts, err := env.seats.CountByStatus(ctx, env.runID)
	require.NoError(t, err)
	require.Equal(t, uint32(10), counts[model.SeatAvailable])
	env.assertConservation(t)

	require.ErrorIs(t, env.svc.CancelBooking(ctx, env.userA, false, booking.BookingRef), ErrAlreadyCancelled)
}

func TestAdminCanCancelAnyBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:1], 0)
	require.NoError(t, err)
	booking, err := env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(1))
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelBooking(ctx, env.admin, true, booking.BookingRef))
	env.assertConservation(t)
}

func TestHoldLifecycleAfterCancelAllowsRebooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hold, err := env.svc.CreateHold(ctx, env.userA, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)
	booking, err := env.svc.FinalizeBooking(ctx, env.userA, hold.ID, somePassengers(2))
	require.NoError(t, err)
	require.NoError(t, env.svc.CancelBooking(ctx, env.userA, false, booking.BookingRef))

	// The same seats can be held and booked again by another user.
	hold2, err := env.svc.CreateHold(ctx, env.userB, env.runID, env.seatIDs[:2], 0)
	require.NoError(t, err)
	booking2, err := env.svc.FinalizeBooking(ctx, env.userB, hold2.ID, somePassengers(2))
	require.NoError(t, err)
	require.NotEqual(t, booking.BookingRef, booking2.BookingRef)
	env.assertConservation(t)
}
