package repository

import (
	"context"
	"database/sql"

	"github.com/rajeet-04/railway/internal/model"
)

// TrainRunRepo provides access to the train_runs table.  The cached
// available_seats counter is only ever adjusted through
// AdjustAvailableTx, inside the same transaction that transitions the
// corresponding seat rows, so the cache and the seat statuses move in
// lockstep.
type TrainRunRepo struct {
	db *sql.DB
}

// NewTrainRunRepo returns a TrainRunRepo bound to the given database.
func NewTrainRunRepo(db *sql.DB) *TrainRunRepo { return &TrainRunRepo{db: db} }

// GetByID fetches a train run by id.  Returns sql.ErrNoRows if absent.
func (r *TrainRunRepo) GetByID(ctx context.Context, id uint64) (*model.TrainRun, error) {
	var run model.TrainRun
	err := r.db.QueryRowContext(ctx,
		`SELECT id, train_id, run_date, status, total_seats, available_seats
		 FROM train_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.TrainID, &run.RunDate, &run.Status, &run.TotalSeats, &run.AvailableSeats)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// AdjustAvailableTx adds delta (which may be negative) to the cached
// available_seats counter of a run inside the caller's transaction.
func (r *TrainRunRepo) AdjustAvailableTx(ctx context.Context, tx *sql.Tx, runID uint64, delta int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE train_runs SET available_seats = available_seats + ? WHERE id = ?`, delta, runID)
	return err
}

// Create inserts a train run and returns its id.  Used by the
// importer when generating runs for upcoming dates.
func (r *TrainRunRepo) Create(ctx context.Context, trainID uint64, runDate string, totalSeats uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO train_runs (train_id, run_date, status, total_seats, available_seats) VALUES (?, ?, ?, ?, ?)`,
		trainID, runDate, model.RunScheduled, totalSeats, totalSeats)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByTrainAndDate returns the run for a train on a date, or
// sql.ErrNoRows when no run exists.
func (r *TrainRunRepo) GetByTrainAndDate(ctx context.Context, trainID uint64, runDate string) (*model.TrainRun, error) {
	var run model.TrainRun
	err := r.db.QueryRowContext(ctx,
		`SELECT id, train_id, run_date, status, total_seats, available_seats
		 FROM train_runs WHERE train_id = ? AND run_date = ?`, trainID, runDate).
		Scan(&run.ID, &run.TrainID, &run.RunDate, &run.Status, &run.TotalSeats, &run.AvailableSeats)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// SetTotals overwrites both seat counters of a run.  The importer
// calls this after generating seat rows so the counters match the
// generated inventory exactly.
func (r *TrainRunRepo) SetTotals(ctx context.Context, runID uint64, total, available uint32) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE train_runs SET total_seats = ?, available_seats = ? WHERE id = ?`, total, available, runID)
	return err
}
