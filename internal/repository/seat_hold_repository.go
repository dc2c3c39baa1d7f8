package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rajeet-04/railway/internal/model"
)

// SeatHoldRepo provides data access to the seat_holds table.  A hold
// row stores its seat ids as a JSON array in a TEXT column so the
// ordered set travels with the hold; passengers are later zipped
// positionally against it at finalize time.  All timestamps are stored
// and compared in UTC.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// CreateTx inserts a new seat hold within the provided transaction and
// populates the generated ID on the passed model.  The caller must
// commit or roll back the transaction.  Status defaults to ACTIVE when
// unset.
func (r *SeatHoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.SeatHold) error {
	seatJSON, err := json.Marshal(h.SeatIDs)
	if err != nil {
		return err
	}
	if h.Status == "" {
		h.Status = model.HoldActive
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO seat_holds (hold_token, user_id, train_run_id, seat_ids, created_at, expires_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.HoldToken, h.UserID, h.TrainRunID, string(seatJSON),
		formatTime(h.CreatedAt), formatTime(h.ExpiresAt), h.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetTx loads a hold by id within the caller's transaction.  It
// returns sql.ErrNoRows when the hold does not exist.
func (r *SeatHoldRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.SeatHold, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, hold_token, user_id, train_run_id, seat_ids, created_at, expires_at, status
		 FROM seat_holds WHERE id = ?`, id)
	return scanHold(row)
}

// GetByID loads a hold by id outside any transaction.
func (r *SeatHoldRepo) GetByID(ctx context.Context, id uint64) (*model.SeatHold, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, hold_token, user_id, train_run_id, seat_ids, created_at, expires_at, status
		 FROM seat_holds WHERE id = ?`, id)
	return scanHold(row)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHold(row rowScanner) (*model.SeatHold, error) {
	var h model.SeatHold
	var seatJSON, createdAt, expiresAt string
	if err := row.Scan(&h.ID, &h.HoldToken, &h.UserID, &h.TrainRunID, &seatJSON, &createdAt, &expiresAt, &h.Status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seatJSON), &h.SeatIDs); err != nil {
		return nil, err
	}
	var err error
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if h.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// MarkStatusTx transitions a hold from one status to another inside
// the caller's transaction.  The transition is conditional: it only
// happens when the hold currently has status from.  The boolean result
// reports whether a row changed, which lets callers implement
// idempotent release (false means someone else already moved the hold
// out of ACTIVE).
func (r *SeatHoldRepo) MarkStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seat_holds SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListExpiredActive returns the ids of ACTIVE holds whose expires_at
// lies strictly before now.  The reaper processes each id in its own
// transaction, so this read deliberately runs outside one; a hold that
// gets finalized between this read and the reap transaction is skipped
// by the conditional status update there.
func (r *SeatHoldRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM seat_holds WHERE status = ? AND expires_at < ? ORDER BY expires_at LIMIT ?`,
		model.HoldActive, formatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
