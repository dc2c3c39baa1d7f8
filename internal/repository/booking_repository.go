package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rajeet-04/railway/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their seats.
// A booking groups one or more booking_seats rows, each carrying the
// passenger assignment and the price snapshotted at finalize time.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ErrDuplicateRef is returned by CreateTx when the generated booking
// reference collides with an existing one.  The caller regenerates the
// reference and retries inside the same transaction.
var ErrDuplicateRef = errors.New("duplicate booking reference")

// CreateTx inserts a booking within the provided transaction and
// populates the generated ID.  The database enforces uniqueness of
// booking_ref; a collision is reported as ErrDuplicateRef rather than
// a raw driver error so the caller can retry with a fresh reference.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (booking_ref, user_id, train_run_id, from_station_code, to_station_code,
		                       journey_date, booking_time, total_cents, num_passengers, status, payment_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BookingRef, b.UserID, b.TrainRunID, b.FromStationCode, b.ToStationCode,
		b.JourneyDate, formatTime(b.BookingTime), b.TotalCents, b.NumPassengers, b.Status, b.PaymentStatus)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRef
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// CreateSeatsBulkTx inserts multiple booking_seats rows in a single
// statement.  The caller must supply the booking ID in each record.
// Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id, passenger_name, passenger_age, passenger_gender, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, s.BookingID, s.SeatID, s.PassengerName, s.PassengerAge, s.PassengerGender, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CancelInfo is the subset of booking state the cancellation path
// needs: identity, ownership, current status and the booked seat ids.
type CancelInfo struct {
	ID         uint64
	UserID     uint64
	TrainRunID uint64
	Status     string
	SeatIDs    []uint64
}

// GetCancelInfoTx loads the cancellation-relevant fields of a booking
// by reference inside the caller's transaction.  It returns
// sql.ErrNoRows when no booking with that reference exists.
func (r *BookingRepo) GetCancelInfoTx(ctx context.Context, tx *sql.Tx, ref string) (*CancelInfo, error) {
	var info CancelInfo
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, train_run_id, status FROM bookings WHERE booking_ref = ?`, ref).
		Scan(&info.ID, &info.UserID, &info.TrainRunID, &info.Status)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM booking_seats WHERE booking_id = ?`, info.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		info.SeatIDs = append(info.SeatIDs, sid)
	}
	return &info, rows.Err()
}

// MarkCancelledTx marks a booking CANCELLED with the given timestamp,
// conditional on it still being CONFIRMED.  The boolean result reports
// whether the row changed.
func (r *BookingRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64, when time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancellation_time = ? WHERE id = ? AND status = ?`,
		model.BookingCancelled, formatTime(when), id, model.BookingConfirmed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetByRef loads a booking by its reference code.  Returns
// sql.ErrNoRows when absent.
func (r *BookingRepo) GetByRef(ctx context.Context, ref string) (*model.Booking, error) {
	var b model.Booking
	var bookingTime string
	var cancellation sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, booking_ref, user_id, train_run_id, from_station_code, to_station_code,
		        journey_date, booking_time, total_cents, num_passengers, status, payment_status, cancellation_time
		 FROM bookings WHERE booking_ref = ?`, ref).
		Scan(&b.ID, &b.BookingRef, &b.UserID, &b.TrainRunID, &b.FromStationCode, &b.ToStationCode,
			&b.JourneyDate, &bookingTime, &b.TotalCents, &b.NumPassengers, &b.Status, &b.PaymentStatus, &cancellation)
	if err != nil {
		return nil, err
	}
	if b.BookingTime, err = parseTime(bookingTime); err != nil {
		return nil, err
	}
	if cancellation.Valid {
		t, err := parseTime(cancellation.String)
		if err != nil {
			return nil, err
		}
		b.CancellationTime = &t
	}
	return &b, nil
}

// PassengerDetail joins a booking_seats row with its seat so booking
// detail responses can show coach, seat number and class alongside the
// passenger and the price charged.
type PassengerDetail struct {
	model.BookingSeat
	SeatNumber  string `json:"seat_number"`
	CoachNumber string `json:"coach_number"`
	SeatClass   string `json:"seat_class"`
}

// PassengersByBookingID returns the passenger/seat assignments of a
// booking ordered by coach and seat number.
func (r *BookingRepo) PassengersByBookingID(ctx context.Context, bookingID uint64) ([]PassengerDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT bs.id, bs.booking_id, bs.seat_id, bs.passenger_name, bs.passenger_age, bs.passenger_gender, bs.price_cents,
		        s.seat_number, s.coach_number, s.seat_class
		 FROM booking_seats bs
		 JOIN seats s ON s.id = bs.seat_id
		 WHERE bs.booking_id = ?
		 ORDER BY s.coach_number, s.seat_number`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]PassengerDetail, 0)
	for rows.Next() {
		var d PassengerDetail
		if err := rows.Scan(&d.ID, &d.BookingID, &d.SeatID, &d.PassengerName, &d.PassengerAge, &d.PassengerGender, &d.PriceCents,
			&d.SeatNumber, &d.CoachNumber, &d.SeatClass); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// BookingSummary is one row of a user's booking list, enriched with
// station and train names for display.
type BookingSummary struct {
	model.Booking
	FromStationName *string `json:"from_station_name,omitempty"`
	ToStationName   *string `json:"to_station_name,omitempty"`
	TrainNumber     *string `json:"train_number,omitempty"`
	TrainName       *string `json:"train_name,omitempty"`
}

// ListByUser returns all bookings for the given user, newest first,
// with station and train names resolved via LEFT JOINs so missing
// catalog rows never hide a booking.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.booking_ref, b.user_id, b.train_run_id, b.from_station_code, b.to_station_code,
		        b.journey_date, b.booking_time, b.total_cents, b.num_passengers, b.status, b.payment_status,
		        fs.name, ts.name, t.number, t.name
		 FROM bookings b
		 LEFT JOIN stations fs ON fs.code = b.from_station_code
		 LEFT JOIN stations ts ON ts.code = b.to_station_code
		 LEFT JOIN train_runs tr ON tr.id = b.train_run_id
		 LEFT JOIN trains t ON t.id = tr.train_id
		 WHERE b.user_id = ?
		 ORDER BY b.booking_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summaries := make([]BookingSummary, 0)
	for rows.Next() {
		var s BookingSummary
		var bookingTime string
		if err := rows.Scan(&s.ID, &s.BookingRef, &s.UserID, &s.TrainRunID, &s.FromStationCode, &s.ToStationCode,
			&s.JourneyDate, &bookingTime, &s.TotalCents, &s.NumPassengers, &s.Status, &s.PaymentStatus,
			&s.FromStationName, &s.ToStationName, &s.TrainNumber, &s.TrainName); err != nil {
			return nil, err
		}
		if s.BookingTime, err = parseTime(bookingTime); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
