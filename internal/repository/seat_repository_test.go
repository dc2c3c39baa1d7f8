package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rajeet-04/railway/internal/database"
	"github.com/rajeet-04/railway/internal/model"
)

var testDBSeq int64

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("repo_test_%d", atomic.AddInt64(&testDBSeq, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)", name)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func seedRunWithSeats(t *testing.T, db *sql.DB, n int) (runID uint64, seatIDs []uint64) {
	t.Helper()
	ctx := context.Background()
	trains := NewTrainRepo(db)
	runs := NewTrainRunRepo(db)
	seats := NewSeatRepo(db)

	train := model.Train{Number: "12301", Name: "Howrah Rajdhani", FromStationCode: "NDLS", ToStationCode: "HWH", Classes: "SL"}
	created, err := trains.Create(ctx, &train)
	require.NoError(t, err)
	require.True(t, created)

	runID, err = runs.Create(ctx, train.ID, "2026-09-20", 0)
	require.NoError(t, err)

	rows := make([]model.Seat, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, model.Seat{
			TrainRunID:  runID,
			SeatNumber:  fmt.Sprintf("SL-%d", i),
			CoachNumber: "S1",
			SeatClass:   "SL",
			PriceCents:  80000,
		})
	}
	require.NoError(t, seats.CreateBulk(ctx, rows))
	require.NoError(t, runs.SetTotals(ctx, runID, uint32(n), uint32(n)))

	listed, err := seats.ListByRun(ctx, runID, "")
	require.NoError(t, err)
	for _, s := range listed {
		seatIDs = append(seatIDs, s.ID)
	}
	return runID, seatIDs
}

func TestUpdateStatusTxIsConditional(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seats := NewSeatRepo(db)
	runID, ids := seedRunWithSeats(t, db, 4)

	// Flip two seats to HELD.
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	n, err := seats.UpdateStatusTx(ctx, tx, runID, ids[:2], model.SeatAvailable, model.SeatHeld)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.NoError(t, tx.Commit())

	// A transition expecting AVAILABLE now only matches the free seats.
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	n, err = seats.UpdateStatusTx(ctx, tx, runID, ids, model.SeatAvailable, model.SeatHeld)
	require.NoError(t, err)
	require.Equal(t, int64(2), n, "already HELD seats must not match")
	require.NoError(t, tx.Rollback())

	// Seat ids from another run never match.
	otherRun, otherIDs := seedRunWithSeats(t, db, 2)
	_ = otherRun
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	n, err = seats.UpdateStatusTx(ctx, tx, runID, otherIDs, model.SeatAvailable, model.SeatHeld)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, tx.Rollback())

	// Empty input is a no-op.
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	n, err = seats.UpdateStatusTx(ctx, tx, runID, nil, model.SeatAvailable, model.SeatHeld)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, tx.Rollback())
}

func TestSeatHoldRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	holds := NewSeatHoldRepo(db)
	users := NewUserRepo(db)
	runID, ids := seedRunWithSeats(t, db, 3)

	uid, err := users.Create(ctx, "dave@example.com", "secret", "Dave", nil, 4)
	require.NoError(t, err)

	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	hold := &model.SeatHold{
		HoldToken:  "tok-1234",
		UserID:     uid,
		TrainRunID: runID,
		SeatIDs:    ids,
		CreatedAt:  now,
		ExpiresAt:  now.Add(2 * time.Minute),
	}
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, holds.CreateTx(ctx, tx, hold))
	require.NoError(t, tx.Commit())
	require.NotZero(t, hold.ID)
	require.Equal(t, model.HoldActive, hold.Status)

	got, err := holds.GetByID(ctx, hold.ID)
	require.NoError(t, err)
	require.Equal(t, ids, got.SeatIDs)
	require.Equal(t, now, got.CreatedAt)
	require.Equal(t, now.Add(2*time.Minute), got.ExpiresAt)

	// Conditional transition only fires from the expected status.
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	changed, err := holds.MarkStatusTx(ctx, tx, hold.ID, model.HoldReleased, model.HoldExpired)
	require.NoError(t, err)
	require.False(t, changed)
	changed, err = holds.MarkStatusTx(ctx, tx, hold.ID, model.HoldActive, model.HoldReleased)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, tx.Commit())
}

func TestListExpiredActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	holds := NewSeatHoldRepo(db)
	users := NewUserRepo(db)
	runID, ids := seedRunWithSeats(t, db, 2)

	uid, err := users.Create(ctx, "erin@example.com", "secret", "Erin", nil, 4)
	require.NoError(t, err)

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	mk := func(token string, expires time.Time) *model.SeatHold {
		h := &model.SeatHold{
			HoldToken: token, UserID: uid, TrainRunID: runID,
			SeatIDs: ids[:1], CreatedAt: now.Add(-time.Hour), ExpiresAt: expires,
		}
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, holds.CreateTx(ctx, tx, h))
		require.NoError(t, tx.Commit())
		return h
	}
	stale := mk("tok-stale", now.Add(-time.Minute))
	mk("tok-fresh", now.Add(time.Hour))

	got, err := holds.ListExpiredActive(ctx, now, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{stale.ID}, got)

	// A deadline exactly at now is not yet expired.
	boundary := mk("tok-boundary", now)
	got, err = holds.ListExpiredActive(ctx, now, 10)
	require.NoError(t, err)
	require.NotContains(t, got, boundary.ID)
}

func TestBookingDuplicateRef(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	bookings := NewBookingRepo(db)
	users := NewUserRepo(db)
	runID, _ := seedRunWithSeats(t, db, 1)

	uid, err := users.Create(ctx, "faye@example.com", "secret", "Faye", nil, 4)
	require.NoError(t, err)

	mk := func() *model.Booking {
		return &model.Booking{
			BookingRef:      "PNR-1757000000-ABCDEF",
			UserID:          uid,
			TrainRunID:      runID,
			FromStationCode: "NDLS",
			ToStationCode:   "HWH",
			JourneyDate:     "2026-09-20",
			BookingTime:     time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
			TotalCents:      80000,
			NumPassengers:   1,
			Status:          model.BookingConfirmed,
			PaymentStatus:   "PAID",
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, bookings.CreateTx(ctx, tx, mk()))
	require.ErrorIs(t, bookings.CreateTx(ctx, tx, mk()), ErrDuplicateRef)
	require.NoError(t, tx.Commit())
}
