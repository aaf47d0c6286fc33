package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uint32Ptr(v uint32) *uint32 { return &v }

const ticketSelectColumns = `SELECT t\.id, t\.event_id, t\.name, t\.price_cents, t\.currency`

func ticketRow(mock sqlmock.Sqlmock, total, sold uint32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_id", "name", "price_cents", "currency",
		"quantity_total", "quantity_sold", "per_user_limit", "created_at", "updated_at",
	}).AddRow(3, 1, "Early Bird", 2500, "EUR", total, sold, 4, time.Now().UTC(), time.Now().UTC())
}

func expectTicketOwnership(mock sqlmock.Sqlmock, ticketID, companyID uint64) {
	mock.ExpectQuery(`SELECT e\.company_id`).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows([]string{"company_id"}).AddRow(companyID))
}

func TestUpdateRejectsCapacityBelowSold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	expectTicketOwnership(mock, 3, 5)
	mock.ExpectQuery(`SELECT quantity_sold FROM tickets`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity_sold"}).AddRow(40))

	// 40 already sold, shrinking to 30 must be refused before any write
	_, err = repo.Update(context.Background(), 3, 5, UpdateParams{QuantityTotal: uint32Ptr(30)})
	assert.ErrorIs(t, err, ErrCapacityBelowSold)
	assert.NoError(t, mock.ExpectationsWereMet(), "no UPDATE must reach the database")
}

func TestUpdateAllowsCapacityAtSold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	expectTicketOwnership(mock, 3, 5)
	mock.ExpectQuery(`SELECT quantity_sold FROM tickets`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity_sold"}).AddRow(40))
	mock.ExpectExec(`UPDATE tickets SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(ticketSelectColumns).
		WithArgs(uint64(3), uint64(5)).
		WillReturnRows(ticketRow(mock, 40, 40))

	// shrinking exactly to the sold count keeps the row consistent
	got, err := repo.Update(context.Background(), 3, 5, UpdateParams{QuantityTotal: uint32Ptr(40)})
	require.NoError(t, err)
	assert.Equal(t, uint32(40), got.QuantityTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithoutCapacitySkipsSoldCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	expectTicketOwnership(mock, 3, 5)
	mock.ExpectExec(`UPDATE tickets SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(ticketSelectColumns).
		WithArgs(uint64(3), uint64(5)).
		WillReturnRows(ticketRow(mock, 100, 40))

	name := "Door Price"
	_, err = repo.Update(context.Background(), 3, 5, UpdateParams{Name: &name})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
