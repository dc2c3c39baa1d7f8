// Package repository defines the data access layer: one repository per
// table, plus helpers shared across them for timestamp storage and
// driver error classification.
package repository

import (
	"strings"
	"time"
)

// sqlTimeLayout is the canonical storage format for DATETIME columns.
// All timestamps are written and compared in UTC.
const sqlTimeLayout = "2006-01-02 15:04:05"

// formatTime renders t for storage in a DATETIME column.
func formatTime(t time.Time) string {
	return t.UTC().Format(sqlTimeLayout)
}

// parseTime reads a DATETIME column value back into a UTC time.Time.
// Sub-second precision, if present, is tolerated and truncated.
func parseTime(s string) (time.Time, error) {
	if len(s) > len(sqlTimeLayout) {
		s = s[:len(sqlTimeLayout)]
	}
	return time.ParseInLocation(sqlTimeLayout, s, time.UTC)
}

// IsLockConflict reports whether err is a transient transaction
// failure: a deadlock or a lock/busy timeout.  The statement lost a
// race for a lock, nothing is structurally wrong, and the operation
// may be retried as-is.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || // sqlite SQLITE_BUSY
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked") || // sqlite SQLITE_LOCKED
		strings.Contains(msg, "1213") || // mysql ER_LOCK_DEADLOCK
		strings.Contains(msg, "deadlock found") ||
		strings.Contains(msg, "1205") || // mysql ER_LOCK_WAIT_TIMEOUT
		strings.Contains(msg, "lock wait timeout")
}

// isUniqueViolation reports whether err looks like a unique constraint
// failure on either supported driver (SQLite or MySQL).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "constraint failed") || // sqlite (older message form)
		strings.Contains(msg, "1062") || // mysql ER_DUP_ENTRY
		strings.Contains(msg, "duplicate entry") // mysql
}
