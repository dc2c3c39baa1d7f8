package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rajeet-04/railway/internal/model"
)

// SeatRepo encapsulates database operations on the seats table.  Seat
// status transitions always go through UpdateStatusTx so that every
// transition is conditional on the expected current status; this is
// the primitive that keeps concurrent holds, finalizes and releases
// from double-selling a seat.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// placeholders returns a "?,?,?" list for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// UpdateStatusTx performs a conditional multi-row status transition:
// every seat in seatIDs that belongs to runID and currently has status
// expected is set to next, in a single statement.  It returns the
// number of rows actually changed.  Callers that require all-or-nothing
// semantics must compare the count against len(seatIDs) and roll back
// the surrounding transaction on a shortfall.  Two concurrent holds
// over overlapping seat sets can never both see the full count because
// the second transaction's WHERE clause no longer matches rows the
// first has already flipped.
func (r *SeatRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, runID uint64, seatIDs []uint64, expected, next string) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	query := `UPDATE seats SET status = ? WHERE train_run_id = ? AND status = ? AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+3)
	args = append(args, next, runID, expected)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PricesTx returns the current price for each of the given seats,
// keyed by seat id.  The query runs inside the caller's transaction so
// the prices snapshotted into a booking are the ones in effect at the
// moment the seats transition to BOOKED.
func (r *SeatRepo) PricesTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) (map[uint64]uint32, error) {
	prices := make(map[uint64]uint32, len(seatIDs))
	if len(seatIDs) == 0 {
		return prices, nil
	}
	query := `SELECT id, price_cents FROM seats WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var price uint32
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

// ListByRun returns all seats for a train run ordered by class, coach
// and seat number.  When seatClass is non-empty only seats of that
// class are returned.
func (r *SeatRepo) ListByRun(ctx context.Context, runID uint64, seatClass string) ([]model.Seat, error) {
	query := `SELECT id, train_run_id, seat_number, coach_number, seat_class, price_cents, status
	          FROM seats WHERE train_run_id = ?`
	args := []interface{}{runID}
	if seatClass != "" {
		query += ` AND seat_class = ?`
		args = append(args, seatClass)
	}
	query += ` ORDER BY seat_class, coach_number, seat_number`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.TrainRunID, &s.SeatNumber, &s.CoachNumber, &s.SeatClass, &s.PriceCents, &s.Status); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// CountByStatus returns the number of seats in each status for a run.
// Used by the availability endpoint and by invariant checks in tests.
func (r *SeatRepo) CountByStatus(ctx context.Context, runID uint64) (map[string]uint32, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM seats WHERE train_run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]uint32)
	for rows.Next() {
		var status string
		var n uint32
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CreateBulk inserts multiple seat records in one statement.  The ID
// fields of the passed structures are not populated.  Used by the
// importer when generating seats for a new train run.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (train_run_id, seat_number, coach_number, seat_class, price_cents, status) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, s.TrainRunID, s.SeatNumber, s.CoachNumber, s.SeatClass, s.PriceCents, status)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
