package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo provides catalog operations for ticket classes.  It covers
// the company-facing management path only; quantity_sold is owned by the
// reservation engine and is never written here.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// Create inserts a ticket class under an event after verifying the event
// belongs to the company.  It returns ErrEventNotFound when the event does
// not exist and ErrForbidden when it is owned by another company.
func (r *TicketRepo) Create(ctx context.Context, companyID uint64, t *model.TicketClass) error {
	if err := r.checkEventOwnership(ctx, t.EventID, companyID); err != nil {
		return err
	}
	const q = `INSERT INTO tickets (event_id, name, price_cents, currency, quantity_total, per_user_limit)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.EventID, t.Name, t.PriceCents, t.Currency, t.QuantityTotal, t.PerUserLimit)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT id, event_id, name, price_cents, currency, quantity_total, quantity_sold, per_user_limit, created_at, updated_at
	             FROM tickets WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(
		&t.ID, &t.EventID, &t.Name, &t.PriceCents, &t.Currency,
		&t.QuantityTotal, &t.QuantitySold, &t.PerUserLimit, &t.CreatedAt, &t.UpdatedAt,
	)
}

// GetForCompany returns a single ticket class when its event belongs to the
// company.  sql.ErrNoRows is returned when no such ticket exists for the
// company, matching the not-found/unauthorized collapse of the public API.
func (r *TicketRepo) GetForCompany(ctx context.Context, ticketID, companyID uint64) (*model.TicketClass, error) {
	const q = `SELECT t.id, t.event_id, t.name, t.price_cents, t.currency,
	                  t.quantity_total, t.quantity_sold, t.per_user_limit, t.created_at, t.updated_at
	           FROM tickets t
	           JOIN events e ON e.id = t.event_id
	           WHERE t.id = ? AND e.company_id = ?`
	var t model.TicketClass
	err := r.db.QueryRowContext(ctx, q, ticketID, companyID).Scan(
		&t.ID, &t.EventID, &t.Name, &t.PriceCents, &t.Currency,
		&t.QuantityTotal, &t.QuantitySold, &t.PerUserLimit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByEvent returns all ticket classes of an event after verifying the
// event belongs to the company.  Ordered by creation time ascending.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID, companyID uint64) ([]model.TicketClass, error) {
	if err := r.checkEventOwnership(ctx, eventID, companyID); err != nil {
		return nil, err
	}
	const q = `SELECT id, event_id, name, price_cents, currency,
	                  quantity_total, quantity_sold, per_user_limit, created_at, updated_at
	           FROM tickets WHERE event_id = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TicketClass, 0)
	for rows.Next() {
		var t model.TicketClass
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.PriceCents, &t.Currency,
			&t.QuantityTotal, &t.QuantitySold, &t.PerUserLimit, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateParams carries the optional fields of a ticket update.  Nil
// pointers leave the corresponding column untouched (COALESCE in SQL).
type UpdateParams struct {
	Name          *string
	PriceCents    *uint32
	Currency      *string
	QuantityTotal *uint32
	PerUserLimit  *uint32
}

// Update patches a ticket class owned by the company and returns the
// updated row.  quantity_sold is deliberately not updatable.
func (r *TicketRepo) Update(ctx context.Context, ticketID, companyID uint64, p UpdateParams) (*model.TicketClass, error) {
	if err := r.checkTicketOwnership(ctx, ticketID, companyID); err != nil {
		return nil, err
	}
	if p.QuantityTotal != nil {
		// shrinking capacity below the committed quantity would leave the
		// row violating quantity_sold <= quantity_total
		var sold uint32
		if err := r.db.QueryRowContext(ctx, `SELECT quantity_sold FROM tickets WHERE id = ?`, ticketID).Scan(&sold); err != nil {
			return nil, err
		}
		if *p.QuantityTotal < sold {
			return nil, ErrCapacityBelowSold
		}
	}
	const q = `UPDATE tickets SET
	             name = COALESCE(?, name),
	             price_cents = COALESCE(?, price_cents),
	             currency = COALESCE(?, currency),
	             quantity_total = COALESCE(?, quantity_total),
	             per_user_limit = COALESCE(?, per_user_limit)
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, p.Name, p.PriceCents, p.Currency, p.QuantityTotal, p.PerUserLimit, ticketID); err != nil {
		return nil, err
	}
	return r.GetForCompany(ctx, ticketID, companyID)
}

// Delete removes a ticket class owned by the company.  Classes with
// committed sales cannot be deleted; ErrHasSales is returned instead so
// the ledger keeps its references.
func (r *TicketRepo) Delete(ctx context.Context, ticketID, companyID uint64) error {
	if err := r.checkTicketOwnership(ctx, ticketID, companyID); err != nil {
		return err
	}
	var sold uint32
	if err := r.db.QueryRowContext(ctx, `SELECT quantity_sold FROM tickets WHERE id = ?`, ticketID).Scan(&sold); err != nil {
		return err
	}
	if sold > 0 {
		return ErrHasSales
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, ticketID)
	return err
}

// checkEventOwnership verifies the event exists and belongs to the company.
func (r *TicketRepo) checkEventOwnership(ctx context.Context, eventID, companyID uint64) error {
	var actual uint64
	err := r.db.QueryRowContext(ctx, `SELECT company_id FROM events WHERE id = ?`, eventID).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if actual != companyID {
		return ErrForbidden
	}
	return nil
}

// checkTicketOwnership verifies the ticket exists and its event belongs to
// the company.
func (r *TicketRepo) checkTicketOwnership(ctx context.Context, ticketID, companyID uint64) error {
	const q = `SELECT e.company_id
	           FROM tickets t
	           JOIN events e ON e.id = t.event_id
	           WHERE t.id = ?`
	var actual uint64
	err := r.db.QueryRowContext(ctx, q, ticketID).Scan(&actual)
	if err != nil {
		return err
	}
	if actual != companyID {
		return ErrForbidden
	}
	return nil
}
