package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticketing/internal/reservation"
)

// ReservationStore is the MySQL implementation of reservation.Store.  The
// catalog read, the ledger aggregate, the ledger append and the sold-counter
// increment all run on the same *sql.Tx, so the engine's read-validate-write
// sequence commits or rolls back as one unit.  TicketForUpdate takes the
// InnoDB row lock that serializes concurrent reservations of one ticket
// class; AddSold keeps a conditional guard on top of that so the capacity
// invariant holds even if a future call path skips the lock.
type ReservationStore struct {
	db *sql.DB
}

// NewReservationStore returns a ReservationStore bound to the given database.
func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

// InTx runs fn inside a transaction.  The transaction is committed when fn
// returns nil and rolled back otherwise.  Deadlocks and lock wait timeouts
// are mapped to reservation.ErrConflict so the engine can retry.
func (s *ReservationStore) InTx(ctx context.Context, fn func(tx reservation.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&reservationTx{tx: tx}); err != nil {
		return mapLockError(err)
	}
	if err := tx.Commit(); err != nil {
		return mapLockError(fmt.Errorf("commit reservation tx: %w", err))
	}
	committed = true
	return nil
}

// reservationTx adapts a *sql.Tx to the engine's Tx interface.
type reservationTx struct {
	tx *sql.Tx
}

// TicketForUpdate loads the ticket class and locks its row for the rest of
// the transaction.
func (t *reservationTx) TicketForUpdate(ctx context.Context, ticketID uint64) (*reservation.TicketClass, error) {
	const q = `SELECT id, event_id, quantity_total, quantity_sold, per_user_limit, price_cents, currency
	           FROM tickets WHERE id = ? FOR UPDATE`
	var tc reservation.TicketClass
	err := t.tx.QueryRowContext(ctx, q, ticketID).Scan(
		&tc.ID, &tc.EventID, &tc.QuantityTotal, &tc.QuantitySold,
		&tc.PerUserLimit, &tc.PriceCents, &tc.Currency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select ticket for update: %w", err)
	}
	return &tc, nil
}

// UserQuantity sums all prior sale quantities for the (user, ticket) pair.
// The ticket row lock is already held, so the sum cannot go stale before
// the commit.
func (t *reservationTx) UserQuantity(ctx context.Context, userID, ticketID uint64) (uint32, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM sales WHERE user_id = ? AND ticket_id = ?`
	var total uint32
	if err := t.tx.QueryRowContext(ctx, q, userID, ticketID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum user sales: %w", err)
	}
	return total, nil
}

// InsertSale appends the sale row and reads back the generated ID and
// creation timestamp.
func (t *reservationTx) InsertSale(ctx context.Context, s *reservation.Sale) error {
	const q = `INSERT INTO sales (user_id, ticket_id, quantity) VALUES (?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, s.UserID, s.TicketID, s.Quantity)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sale insert id: %w", err)
	}
	s.ID = uint64(id)
	const sel = `SELECT created_at FROM sales WHERE id = ?`
	if err := t.tx.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("read back sale: %w", err)
	}
	return nil
}

// AddSold increments quantity_sold, guarded so the result can never exceed
// quantity_total.  Zero affected rows means the guard failed.
func (t *reservationTx) AddSold(ctx context.Context, ticketID uint64, qty uint32) error {
	const q = `UPDATE tickets SET quantity_sold = quantity_sold + ?
	           WHERE id = ? AND quantity_sold + ? <= quantity_total`
	res, err := t.tx.ExecContext(ctx, q, qty, ticketID, qty)
	if err != nil {
		return fmt.Errorf("increment quantity_sold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment rows affected: %w", err)
	}
	if n == 0 {
		return reservation.ErrSoldOut
	}
	return nil
}

// MySQL server error numbers for lost lock races.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// mapLockError converts MySQL contention errors into
// reservation.ErrConflict and passes everything else through.
func mapLockError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return fmt.Errorf("%w: %v", reservation.ErrConflict, err)
		}
	}
	return err
}
