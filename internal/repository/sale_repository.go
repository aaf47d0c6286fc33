package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// SaleRepo provides read-only reporting queries over the sale ledger.
// Sales are written exclusively by the reservation engine (through
// ReservationStore); this repository never inserts, updates or deletes
// ledger rows.  All timestamp fields are assumed to be stored in UTC.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo returns a SaleRepo bound to the given database.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// CompanySale is one ledger row joined with its ticket and event names,
// as shown on the company sales listing.
type CompanySale struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	TicketID   uint64    `json:"ticket_id"`
	Quantity   uint32    `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	TicketName string    `json:"ticket_name"`
	EventTitle string    `json:"event_title"`
}

// SaleFilter narrows ListForCompany to one event and/or one ticket class.
// Zero values mean no filtering.
type SaleFilter struct {
	EventID  uint64
	TicketID uint64
}

// ListForCompany returns all sales against the company's events, newest
// first, optionally filtered by event or ticket class.
func (r *SaleRepo) ListForCompany(ctx context.Context, companyID uint64, f SaleFilter) ([]CompanySale, error) {
	q := `SELECT s.id, s.user_id, s.ticket_id, s.quantity, s.created_at,
	             t.name, e.title
	      FROM sales s
	      JOIN tickets t ON t.id = s.ticket_id
	      JOIN events e ON e.id = t.event_id
	      WHERE e.company_id = ?`
	args := []interface{}{companyID}
	if f.EventID != 0 {
		q += " AND t.event_id = ?"
		args = append(args, f.EventID)
	}
	if f.TicketID != 0 {
		q += " AND s.ticket_id = ?"
		args = append(args, f.TicketID)
	}
	q += " ORDER BY s.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CompanySale, 0)
	for rows.Next() {
		var s CompanySale
		if err := rows.Scan(&s.ID, &s.UserID, &s.TicketID, &s.Quantity, &s.CreatedAt, &s.TicketName, &s.EventTitle); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UserSale is one ledger row enriched for the buyer's purchase history.
type UserSale struct {
	ID            uint64     `json:"id"`
	Quantity      uint32     `json:"quantity"`
	CreatedAt     time.Time  `json:"created_at"`
	TicketName    string     `json:"ticket_name"`
	PriceCents    uint32     `json:"price_cents"`
	Currency      string     `json:"currency"`
	EventTitle    string     `json:"event_title"`
	EventDate     *string    `json:"event_date,omitempty"`
	EventLocation *string    `json:"event_location,omitempty"`
}

// ListByUser returns the user's full purchase history, newest first.  When
// companyID is non-zero the history is restricted to that company's events
// (the reporting path used by company staff).
func (r *SaleRepo) ListByUser(ctx context.Context, userID, companyID uint64) ([]UserSale, error) {
	q := `SELECT s.id, s.quantity, s.created_at,
	             t.name, t.price_cents, t.currency,
	             e.title, e.start_time, e.venue
	      FROM sales s
	      JOIN tickets t ON t.id = s.ticket_id
	      JOIN events e ON e.id = t.event_id
	      WHERE s.user_id = ?`
	args := []interface{}{userID}
	if companyID != 0 {
		q += " AND e.company_id = ?"
		args = append(args, companyID)
	}
	q += " ORDER BY s.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserSale, 0)
	for rows.Next() {
		var s UserSale
		var start sql.NullTime
		var venue sql.NullString
		if err := rows.Scan(&s.ID, &s.Quantity, &s.CreatedAt,
			&s.TicketName, &s.PriceCents, &s.Currency,
			&s.EventTitle, &start, &venue); err != nil {
			return nil, err
		}
		if start.Valid {
			iso := start.Time.UTC().Format(time.RFC3339)
			s.EventDate = &iso
		}
		if venue.Valid && strings.TrimSpace(venue.String) != "" {
			v := venue.String
			s.EventLocation = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EventSale is one ledger row with buyer details, shown to the company on
// the per-event sales view.
type EventSale struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"email"`
	Quantity   uint32    `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	TicketName string    `json:"ticket_name"`
}

// ListByEvent returns all sales for one event after verifying the event
// belongs to the company.
func (r *SaleRepo) ListByEvent(ctx context.Context, eventID, companyID uint64) ([]EventSale, error) {
	var actual uint64
	err := r.db.QueryRowContext(ctx, `SELECT company_id FROM events WHERE id = ?`, eventID).Scan(&actual)
	if err != nil {
		return nil, err
	}
	if actual != companyID {
		return nil, ErrForbidden
	}
	const q = `SELECT s.id, s.user_id, u.name, u.email, s.quantity, s.created_at, t.name
	           FROM sales s
	           JOIN users u ON u.id = s.user_id
	           JOIN tickets t ON t.id = s.ticket_id
	           WHERE t.event_id = ?
	           ORDER BY s.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventSale, 0)
	for rows.Next() {
		var s EventSale
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.UserEmail, &s.Quantity, &s.CreatedAt, &s.TicketName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EventSummary aggregates sales per event for the company dashboard.
type EventSummary struct {
	EventID      uint64 `json:"event_id"`
	EventTitle   string `json:"event_title"`
	TotalSales   uint64 `json:"total_sales"`
	TicketsSold  uint64 `json:"tickets_sold"`
	RevenueCents uint64 `json:"revenue_cents"`
}

// DashboardSummary returns per-event totals for all of the company's
// events, including events without any sales yet.
func (r *SaleRepo) DashboardSummary(ctx context.Context, companyID uint64) ([]EventSummary, error) {
	const q = `SELECT e.id, e.title,
	                  COUNT(s.id),
	                  COALESCE(SUM(s.quantity), 0),
	                  COALESCE(SUM(s.quantity * t.price_cents), 0)
	           FROM events e
	           LEFT JOIN tickets t ON t.event_id = e.id
	           LEFT JOIN sales s ON s.ticket_id = t.id
	           WHERE e.company_id = ?
	           GROUP BY e.id, e.title
	           ORDER BY e.title ASC`
	rows, err := r.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventSummary, 0)
	for rows.Next() {
		var s EventSummary
		if err := rows.Scan(&s.EventID, &s.EventTitle, &s.TotalSales, &s.TicketsSold, &s.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UserSummary aggregates one user's purchases per event within a company.
type UserSummary struct {
	EventID          uint64 `json:"event_id"`
	EventTitle       string `json:"event_title"`
	TicketsPurchased uint64 `json:"tickets_purchased"`
	RevenueCents     uint64 `json:"revenue_cents"`
}

// UserPurchaseSummary returns per-event totals for one buyer across the
// company's events.
func (r *SaleRepo) UserPurchaseSummary(ctx context.Context, userID, companyID uint64) ([]UserSummary, error) {
	const q = `SELECT e.id, e.title,
	                  COALESCE(SUM(s.quantity), 0),
	                  COALESCE(SUM(s.quantity * t.price_cents), 0)
	           FROM sales s
	           JOIN tickets t ON t.id = s.ticket_id
	           JOIN events e ON e.id = t.event_id
	           WHERE s.user_id = ? AND e.company_id = ?
	           GROUP BY e.id, e.title
	           ORDER BY e.title ASC`
	rows, err := r.db.QueryContext(ctx, q, userID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserSummary, 0)
	for rows.Next() {
		var s UserSummary
		if err := rows.Scan(&s.EventID, &s.EventTitle, &s.TicketsPurchased, &s.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPublicTicket returns the buyer-facing view of a ticket class without
// any company scoping.  Used by the purchase flow to show availability; the
// authoritative availability check happens inside the reservation engine.
func (r *SaleRepo) GetPublicTicket(ctx context.Context, ticketID uint64) (*model.TicketClass, error) {
	const q = `SELECT id, event_id, name, price_cents, currency,
	                  quantity_total, quantity_sold, per_user_limit, created_at, updated_at
	           FROM tickets WHERE id = ?`
	var t model.TicketClass
	err := r.db.QueryRowContext(ctx, q, ticketID).Scan(
		&t.ID, &t.EventID, &t.Name, &t.PriceCents, &t.Currency,
		&t.QuantityTotal, &t.QuantitySold, &t.PerUserLimit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
