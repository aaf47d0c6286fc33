package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/event-ticketing/internal/reservation"
)

func TestMapLockError(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	waitTimeout := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	duplicate := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	assert.ErrorIs(t, mapLockError(deadlock), reservation.ErrConflict)
	assert.ErrorIs(t, mapLockError(waitTimeout), reservation.ErrConflict)

	// wrapped driver errors are still recognised
	wrapped := fmt.Errorf("commit reservation tx: %w", deadlock)
	assert.ErrorIs(t, mapLockError(wrapped), reservation.ErrConflict)

	// other driver errors pass through untouched
	assert.NotErrorIs(t, mapLockError(duplicate), reservation.ErrConflict)
	plain := errors.New("connection refused")
	assert.Equal(t, plain, mapLockError(plain))
	assert.NoError(t, mapLockError(nil))
}
