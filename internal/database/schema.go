package database

import (
	"context"
	"database/sql"
)

// schemaStatements holds the SQLite DDL for all application tables.
// Statements are idempotent so Migrate can run on every startup.
// MySQL deployments manage the equivalent schema with their own
// migration tooling; Migrate must only be called for the sqlite driver.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		phone         TEXT,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		is_active     INTEGER NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stations (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		code      TEXT NOT NULL UNIQUE,
		name      TEXT NOT NULL,
		state     TEXT,
		zone      TEXT,
		address   TEXT,
		latitude  REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS trains (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		number            TEXT NOT NULL UNIQUE,
		name              TEXT NOT NULL,
		from_station_code TEXT NOT NULL,
		to_station_code   TEXT NOT NULL,
		departure_time    TEXT,
		arrival_time      TEXT,
		duration_h        INTEGER,
		duration_m        INTEGER,
		type              TEXT,
		zone              TEXT,
		distance_km       INTEGER,
		classes           TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS train_stops (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		train_id               INTEGER NOT NULL REFERENCES trains(id),
		station_code           TEXT NOT NULL,
		stop_sequence          INTEGER NOT NULL,
		arrival_time           TEXT,
		departure_time         TEXT,
		day_offset             INTEGER NOT NULL DEFAULT 0,
		distance_from_start_km INTEGER,
		platform               TEXT,
		halt_minutes           INTEGER,
		UNIQUE (train_id, stop_sequence)
	)`,
	`CREATE TABLE IF NOT EXISTS train_runs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		train_id        INTEGER NOT NULL REFERENCES trains(id),
		run_date        TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'SCHEDULED'
			CHECK (status IN ('SCHEDULED','CANCELLED','DEPARTED')),
		total_seats     INTEGER NOT NULL DEFAULT 0,
		available_seats INTEGER NOT NULL DEFAULT 0,
		UNIQUE (train_id, run_date)
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		train_run_id INTEGER NOT NULL REFERENCES train_runs(id),
		seat_number  TEXT NOT NULL,
		coach_number TEXT NOT NULL,
		seat_class   TEXT NOT NULL,
		price_cents  INTEGER NOT NULL,
		status       TEXT NOT NULL DEFAULT 'AVAILABLE'
			CHECK (status IN ('AVAILABLE','HELD','BOOKED')),
		UNIQUE (train_run_id, coach_number, seat_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_seats_run_status ON seats (train_run_id, status)`,
	`CREATE TABLE IF NOT EXISTS seat_holds (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		hold_token   TEXT NOT NULL UNIQUE,
		user_id      INTEGER NOT NULL REFERENCES users(id),
		train_run_id INTEGER NOT NULL REFERENCES train_runs(id),
		seat_ids     TEXT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at   DATETIME NOT NULL,
		status       TEXT NOT NULL DEFAULT 'ACTIVE'
			CHECK (status IN ('ACTIVE','COMPLETED','RELEASED','EXPIRED'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_seat_holds_status_expiry ON seat_holds (status, expires_at)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_ref       TEXT NOT NULL UNIQUE,
		user_id           INTEGER NOT NULL REFERENCES users(id),
		train_run_id      INTEGER NOT NULL REFERENCES train_runs(id),
		from_station_code TEXT NOT NULL,
		to_station_code   TEXT NOT NULL,
		journey_date      TEXT NOT NULL,
		booking_time      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		total_cents       INTEGER NOT NULL,
		num_passengers    INTEGER NOT NULL,
		status            TEXT NOT NULL DEFAULT 'CONFIRMED'
			CHECK (status IN ('CONFIRMED','CANCELLED')),
		payment_status    TEXT NOT NULL DEFAULT 'PAID',
		cancellation_time DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS booking_seats (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_id       INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
		seat_id          INTEGER NOT NULL REFERENCES seats(id),
		passenger_name   TEXT NOT NULL,
		passenger_age    INTEGER,
		passenger_gender TEXT,
		price_cents      INTEGER NOT NULL
	)`,
}

// Migrate creates all tables and indexes that do not yet exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
