package repository

import (
	"context"
	"database/sql"

	"github.com/rajeet-04/railway/internal/model"
)

// StationRepo provides read and import access to the stations catalog.
type StationRepo struct {
	db *sql.DB
}

// NewStationRepo returns a StationRepo bound to the given database.
func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{db: db} }

// Search returns stations whose name or code matches q, ranked so that
// prefix matches on the name come first, then prefix matches on the
// code, then substring matches.  With an empty query the first stations
// by name are returned.  Results are capped at limit.
func (r *StationRepo) Search(ctx context.Context, q string, limit int) ([]model.Station, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if q != "" {
		sub := "%" + q + "%"
		prefix := q + "%"
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, code, name, state, zone, address, latitude, longitude
			 FROM stations
			 WHERE name LIKE ? OR code LIKE ?
			 ORDER BY
			   CASE WHEN name LIKE ? THEN 0 WHEN code LIKE ? THEN 1 ELSE 2 END,
			   name
			 LIMIT ?`, sub, sub, prefix, prefix, limit)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, code, name, state, zone, address, latitude, longitude
			 FROM stations ORDER BY name LIMIT ?`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stations := make([]model.Station, 0)
	for rows.Next() {
		var s model.Station
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.State, &s.Zone, &s.Address, &s.Latitude, &s.Longitude); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// GetByCode fetches a station by its code.  Returns sql.ErrNoRows if
// absent.
func (r *StationRepo) GetByCode(ctx context.Context, code string) (*model.Station, error) {
	var s model.Station
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, state, zone, address, latitude, longitude
		 FROM stations WHERE code = ?`, code).
		Scan(&s.ID, &s.Code, &s.Name, &s.State, &s.Zone, &s.Address, &s.Latitude, &s.Longitude)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert inserts a station, skipping codes that already exist.  The
// boolean result reports whether a new row was written.
func (r *StationRepo) Upsert(ctx context.Context, s *model.Station) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stations (code, name, state, zone, address, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Code, s.Name, s.State, s.Zone, s.Address, s.Latitude, s.Longitude)
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
	s.ID = uint64(id)
	return true, nil
}
