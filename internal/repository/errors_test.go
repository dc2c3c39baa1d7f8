package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsLockConflict(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("database table is locked (6) (SQLITE_LOCKED)"), true},
		{errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction"), true},
		{errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction"), true},
		{errors.New("UNIQUE constraint failed: bookings.booking_ref"), false},
		{errors.New("Error 1062 (23000): Duplicate entry 'PNR-1-A' for key 'booking_ref'"), false},
	} {
		require.Equal(t, tc.want, IsLockConflict(tc.err), "%v", tc.err)
	}
}
