package worker

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
	"github.com/rajeet-04/railway/internal/repository"
	"github.com/rajeet-04/railway/internal/service"
)

var testDBSeq int64

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("worker_test_%d", atomic.AddInt64(&testDBSeq, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)", name)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// seedExpiredHold creates a run with two seats held by a hold whose
// deadline already lies in the past.
func seedExpiredHold(t *testing.T, db *sql.DB) (svc *service.ReservationService, runID uint64, seats *repository.SeatRepo, runs *repository.TrainRunRepo) {
	t.Helper()
	ctx := context.Background()

	seats = repository.NewSeatRepo(db)
	holds := repository.NewSeatHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	runs = repository.NewTrainRunRepo(db)
	trains := repository.NewTrainRepo(db)
	users := repository.NewUserRepo(db)
	svc = service.NewReservationService(db, seats, holds, bookings, runs, trains, nil)

	train := model.Train{Number: "12002", Name: "Shatabdi", FromStationCode: "NDLS", ToStationCode: "LKO", Classes: "CC"}
	created, err := trains.Create(ctx, &train)
	require.NoError(t, err)
	require.True(t, created)

	runID, err = runs.Create(ctx, train.ID, "2026-09-10", 0)
	require.NoError(t, err)
	require.NoError(t, seats.CreateBulk(ctx, []model.Seat{
		{TrainRunID: runID, SeatNumber: "CC-1", CoachNumber: "C1", SeatClass: "CC", PriceCents: 50000},
		{TrainRunID: runID, SeatNumber: "CC-2", CoachNumber: "C1", SeatClass: "CC", PriceCents: 50000},
	}))
	require.NoError(t, runs.SetTotals(ctx, runID, 2, 2))

	uid, err := users.Create(ctx, "carol@example.com", "secret", "Carol", nil, 4)
	require.NoError(t, err)

	listed, err := seats.ListByRun(ctx, runID, "")
	require.NoError(t, err)
	ids := []uint64{listed[0].ID, listed[1].ID}

	hold, err := svc.CreateHold(ctx, uid, runID, ids, service.MinHoldTTL)
	require.NoError(t, err)

	// Backdate the deadline so the hold is already stale.
	past := time.Now().UTC().Add(-time.Minute).Format("2006-01-02 15:04:05")
	_, err = db.ExecContext(ctx, `UPDATE seat_holds SET expires_at = ? WHERE id = ?`, past, hold.ID)
	require.NoError(t, err)
	return svc, runID, seats, runs
}

func TestReaperRunOnce(t *testing.T) {
	db := newTestDB(t)
	svc, runID, seats, runs := seedExpiredHold(t, db)
	ctx := context.Background()

	r := NewReaper(svc, DefaultReaperConfig())
	reaped, err := r.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reaped)

	counts, err := seats.CountByStatus(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), counts[model.SeatAvailable])

	run, err := runs.GetByID(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), run.AvailableSeats)
}

func TestReaperBackgroundLoop(t *testing.T) {
	db := newTestDB(t)
	svc, runID, seats, _ := seedExpiredHold(t, db)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewReaper(svc, ReaperConfig{Interval: 10 * time.Millisecond, BatchSize: 10})
	stop := r.Start(ctx)
	defer close(stop)

	require.Eventually(t, func() bool {
		counts, err := seats.CountByStatus(context.Background(), runID)
		return err == nil && counts[model.SeatAvailable] == 2
	}, 2*time.Second, 20*time.Millisecond, "reaper loop should free the stale hold's seats")
}

func TestReaperConfigDefaults(t *testing.T) {
	r := NewReaper(nil, ReaperConfig{})
	require.Equal(t, DefaultReaperConfig().Interval, r.cfg.Interval)
	require.Equal(t, DefaultReaperConfig().BatchSize, r.cfg.BatchSize)
}
