package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo provides CRUD operations for events.  All queries are scoped
// to the owning company; an event of another company behaves exactly like
// a missing event.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, company_id, title, description, start_time, end_time, venue, banner_url, status, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }, e *model.Event) error {
	return row.Scan(
		&e.ID, &e.CompanyID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.Venue, &e.BannerURL, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
}

// Create inserts an event for the company and populates the generated ID
// and timestamps on the passed model.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (company_id, title, description, start_time, end_time, venue, banner_url)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.CompanyID, e.Title, e.Description, e.StartTime, e.EndTime, e.Venue, e.BannerURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, e.ID), e)
}

// ListByCompany returns the company's events ordered by start time.
func (r *EventRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE company_id = ? ORDER BY start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID returns one event of the company.  ErrEventNotFound is returned
// when the event does not exist or belongs to another company.
func (r *EventRepo) GetByID(ctx context.Context, eventID, companyID uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? AND company_id = ?`
	var e model.Event
	if err := scanEvent(r.db.QueryRowContext(ctx, q, eventID, companyID), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Update overwrites the mutable columns of an event owned by the company
// and returns the updated row.  ErrEventNotFound is returned when no row
// matched.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) (*model.Event, error) {
	const q = `UPDATE events
	           SET title = ?, description = ?, start_time = ?, end_time = ?, venue = ?, banner_url = ?, status = ?
	           WHERE id = ? AND company_id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.StartTime, e.EndTime, e.Venue, e.BannerURL, e.Status, e.ID, e.CompanyID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// distinguish "no change" from "no row"
		if _, err := r.GetByID(ctx, e.ID, e.CompanyID); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, e.ID, e.CompanyID)
}

// Delete removes an event owned by the company.  ErrEventNotFound is
// returned when no row matched.
func (r *EventRepo) Delete(ctx context.Context, eventID, companyID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND company_id = ?`, eventID, companyID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
