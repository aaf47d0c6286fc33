// Package reservation implements the ticket inventory reservation engine.
// Given a buyer, a ticket class and a requested quantity it decides whether
// the sale can be committed, enforcing the global capacity of the ticket
// class and the per-user purchase cap, and records the outcome exactly once.
// All reads that feed the commit decision and both writes (the sale row and
// the sold-counter increment) execute inside a single atomic unit supplied
// by the Store, so concurrent purchases can never oversell a ticket class
// or double-count a user's total.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by Reserve.  All of them describe expected
// business outcomes rather than faults; handlers translate them into
// client-facing statuses and must not log them as errors.  Any other
// error returned by Reserve is a storage failure.
var (
	// ErrInvalidQuantity is returned when the requested quantity is not a
	// positive integer.  The store is never touched in this case.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrTicketNotFound is returned when no ticket class matches the
	// requested ID.
	ErrTicketNotFound = errors.New("ticket class not found")

	// ErrSoldOut is returned when the requested quantity exceeds the
	// remaining capacity of the ticket class.
	ErrSoldOut = errors.New("not enough tickets available")

	// ErrLimitExceeded is returned when the purchase would push the buyer's
	// cumulative quantity for this ticket class past its per-user limit.
	ErrLimitExceeded = errors.New("per-user ticket limit exceeded")

	// ErrConflict is returned when the transaction repeatedly lost against
	// concurrent reservations for the same ticket class.  Callers may retry
	// with backoff.
	ErrConflict = errors.New("reservation conflict")
)

// TicketClass holds the catalog facts the engine validates against.  The
// values are read under the store's row lock and are therefore stable for
// the duration of the atomic unit.
type TicketClass struct {
	ID            uint64
	EventID       uint64
	QuantityTotal uint32
	QuantitySold  uint32
	PerUserLimit  uint32
	PriceCents    uint32
	Currency      string
}

// Remaining returns how many tickets of this class are still unsold.
func (t *TicketClass) Remaining() uint32 {
	if t.QuantitySold >= t.QuantityTotal {
		return 0
	}
	return t.QuantityTotal - t.QuantitySold
}

// Sale is one committed purchase.  Rows are append-only: the engine creates
// them exactly once and never updates or deletes them.
type Sale struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	TicketID  uint64    `json:"ticket_id"`
	Quantity  uint32    `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is returned on a successful reservation.  Remaining reflects the
// ticket class right after the commit.
type Result struct {
	Sale      *Sale  `json:"sale"`
	Remaining uint32 `json:"remaining"`
}

// Tx exposes the catalog and ledger operations that must compose into one
// atomic unit.  TicketForUpdate locks the ticket row for the rest of the
// transaction, which serializes concurrent reservations of the same class.
type Tx interface {
	// TicketForUpdate reads the ticket class and acquires its row lock.
	// Returns ErrTicketNotFound when the class does not exist.
	TicketForUpdate(ctx context.Context, ticketID uint64) (*TicketClass, error)

	// UserQuantity sums the quantities of all prior sales for the pair
	// (userID, ticketID).  Called with the ticket row lock held.
	UserQuantity(ctx context.Context, userID, ticketID uint64) (uint32, error)

	// InsertSale appends the sale to the ledger and fills in its generated
	// ID and creation timestamp.
	InsertSale(ctx context.Context, s *Sale) error

	// AddSold increments the ticket class's sold counter by qty, but only
	// when the result does not exceed the total capacity.  Returns
	// ErrSoldOut when the guard fails.
	AddSold(ctx context.Context, ticketID uint64, qty uint32) error
}

// Store runs a function inside a transaction.  The transaction is committed
// when fn returns nil and rolled back otherwise, so a failure after the
// ledger append also discards the append.  Implementations return
// ErrConflict (possibly wrapped) when the transaction lost a lock race.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Reserver is the engine's public contract, extracted so the HTTP layer can
// be tested against a stub.
type Reserver interface {
	Reserve(ctx context.Context, userID, ticketID uint64, quantity uint32) (*Result, error)
}

// maxAttempts bounds how often a conflicting transaction is re-run before
// the conflict is surfaced to the caller.
const maxAttempts = 3

// Engine validates and commits reservations against a Store.
type Engine struct {
	store Store
}

// NewEngine returns an Engine bound to the given store.
func NewEngine(store Store) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{store: store}
}

// Reserve attempts to sell quantity tickets of the given class to the given
// user.  On success it returns the created sale and the remaining capacity
// observed at commit time.  The call may block on the ticket row lock; the
// caller's context bounds the wait.
func (e *Engine) Reserve(ctx context.Context, userID, ticketID uint64, quantity uint32) (*Result, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	var res *Result
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reserve aborted: %w", err)
		}
		res, lastErr = e.reserveOnce(ctx, userID, ticketID, quantity)
		if errors.Is(lastErr, ErrConflict) {
			continue // lost a lock race, re-run the whole read-validate-write
		}
		return res, lastErr
	}
	return nil, lastErr
}

// reserveOnce runs one read-validate-write pass inside a fresh transaction.
func (e *Engine) reserveOnce(ctx context.Context, userID, ticketID uint64, quantity uint32) (*Result, error) {
	var result Result
	err := e.store.InTx(ctx, func(tx Tx) error {
		ticket, err := tx.TicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if quantity > ticket.Remaining() {
			return ErrSoldOut
		}
		userTotal, err := tx.UserQuantity(ctx, userID, ticketID)
		if err != nil {
			return err
		}
		if userTotal+quantity > ticket.PerUserLimit {
			return ErrLimitExceeded
		}
		sale := &Sale{UserID: userID, TicketID: ticketID, Quantity: quantity}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}
		if err := tx.AddSold(ctx, ticketID, quantity); err != nil {
			return err
		}
		result.Sale = sale
		result.Remaining = ticket.Remaining() - quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
