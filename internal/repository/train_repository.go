package repository

import (
	"context"
	"database/sql"

	"github.com/rajeet-04/railway/internal/model"
)

// TrainRepo provides access to the trains and train_stops tables.
type TrainRepo struct {
	db *sql.DB
}

// NewTrainRepo returns a TrainRepo bound to the given database.
func NewTrainRepo(db *sql.DB) *TrainRepo { return &TrainRepo{db: db} }

const trainColumns = `id, number, name, from_station_code, to_station_code,
	departure_time, arrival_time, duration_h, duration_m, type, zone, distance_km, classes`

func scanTrain(row rowScanner) (*model.Train, error) {
	var t model.Train
	err := row.Scan(&t.ID, &t.Number, &t.Name, &t.FromStationCode, &t.ToStationCode,
		&t.DepartureTime, &t.ArrivalTime, &t.DurationH, &t.DurationM, &t.Type, &t.Zone, &t.DistanceKm, &t.Classes)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Search returns trains serving a journey from one station to another.
// A train matches when both stations appear on its route with the
// origin strictly before the destination in stop order.  Trains whose
// stop list was not imported fall back to matching on the terminal
// station codes.
func (r *TrainRepo) Search(ctx context.Context, fromCode, toCode string) ([]model.Train, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+trainColumns+` FROM trains t
		WHERE EXISTS (
			SELECT 1 FROM train_stops a
			JOIN train_stops b ON b.train_id = a.train_id
			WHERE a.train_id = t.id
			  AND a.station_code = ? AND b.station_code = ?
			  AND a.stop_sequence < b.stop_sequence
		)
		OR (t.from_station_code = ? AND t.to_station_code = ?
		    AND NOT EXISTS (SELECT 1 FROM train_stops s WHERE s.train_id = t.id))
		ORDER BY t.departure_time, t.number`,
		fromCode, toCode, fromCode, toCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trains := make([]model.Train, 0)
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, err
		}
		trains = append(trains, *t)
	}
	return trains, rows.Err()
}

// GetByID fetches a train by id.  Returns sql.ErrNoRows when absent.
func (r *TrainRepo) GetByID(ctx context.Context, id uint64) (*model.Train, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+trainColumns+` FROM trains WHERE id = ?`, id)
	return scanTrain(row)
}

// GetByNumber fetches a train by its train number.  Returns
// sql.ErrNoRows when absent.
func (r *TrainRepo) GetByNumber(ctx context.Context, number string) (*model.Train, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+trainColumns+` FROM trains WHERE number = ?`, number)
	return scanTrain(row)
}

// StopsByTrainID returns a train's route in stop order, with station
// names resolved when the station exists in the catalog.
func (r *TrainRepo) StopsByTrainID(ctx context.Context, trainID uint64) ([]model.TrainStop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts.id, ts.train_id, ts.station_code, st.name, ts.stop_sequence,
		       ts.arrival_time, ts.departure_time, ts.day_offset,
		       ts.distance_from_start_km, ts.platform, ts.halt_minutes
		FROM train_stops ts
		LEFT JOIN stations st ON st.code = ts.station_code
		WHERE ts.train_id = ?
		ORDER BY ts.stop_sequence`, trainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stops := make([]model.TrainStop, 0)
	for rows.Next() {
		var s model.TrainStop
		if err := rows.Scan(&s.ID, &s.TrainID, &s.StationCode, &s.StationName, &s.StopSequence,
			&s.ArrivalTime, &s.DepartureTime, &s.DayOffset,
			&s.DistanceFromStartKm, &s.Platform, &s.HaltMinutes); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// List returns every train in the catalog ordered by number.
func (r *TrainRepo) List(ctx context.Context) ([]model.Train, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trainColumns+` FROM trains ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trains := make([]model.Train, 0)
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, err
		}
		trains = append(trains, *t)
	}
	return trains, rows.Err()
}

// HasStops reports whether any stop rows exist for the train.
func (r *TrainRepo) HasStops(ctx context.Context, trainID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM train_stops WHERE train_id = ?`, trainID).Scan(&n)
	return n > 0, err
}

// Create inserts a train, skipping numbers that already exist.  The
// boolean result reports whether a new row was written; when it is
// true the ID field is populated.
func (r *TrainRepo) Create(ctx context.Context, t *model.Train) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trains (number, name, from_station_code, to_station_code,
		                     departure_time, arrival_time, duration_h, duration_m, type, zone, distance_km, classes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Number, t.Name, t.FromStationCode, t.ToStationCode,
		t.DepartureTime, t.ArrivalTime, t.DurationH, t.DurationM, t.Type, t.Zone, t.DistanceKm, t.Classes)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	t.ID = uint64(id)
	return true, nil
}

// CreateStopsBulk inserts a train's stops in a single statement.
func (r *TrainRepo) CreateStopsBulk(ctx context.Context, stops []model.TrainStop) error {
	if len(stops) == 0 {
		return nil
	}
	query := `INSERT INTO train_stops (train_id, station_code, stop_sequence, arrival_time, departure_time,
	                                   day_offset, distance_from_start_km, platform, halt_minutes) VALUES `
	args := make([]interface{}, 0, len(stops)*9)
	for i, s := range stops {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.TrainID, s.StationCode, s.StopSequence, s.ArrivalTime, s.DepartureTime,
			s.DayOffset, s.DistanceFromStartKm, s.Platform, s.HaltMinutes)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
