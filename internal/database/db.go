package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// No parseTime: repositories scan DATETIME columns as strings and
	// parse them in UTC, keeping SQLite and MySQL on one code path.
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, ping(db)
}

// OpenSQLite opens the SQLite database at path and verifies the
// connection.  _txlock=immediate makes every write transaction take the
// reserved lock up front, so check-then-act sequences inside a
// transaction cannot interleave with another writer.  busy_timeout lets
// a second writer queue instead of failing with SQLITE_BUSY.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; a small pool avoids needless
	// lock contention between connections of the same process.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, ping(db)
}

// Open selects the driver by name ("sqlite" or "mysql") and opens the
// corresponding database.  SQLite is the default store; MySQL is kept
// for deployments that already run one.
func Open(driver, sqlitePath, user, pass, host, port, name string) (*sql.DB, error) {
	switch driver {
	case "mysql":
		return OpenMySQL(user, pass, host, port, name)
	case "", "sqlite":
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// ping verifies the connection with a short timeout.
func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
