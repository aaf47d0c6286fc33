package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// CompanyRepo provides CRUD operations for companies.
type CompanyRepo struct {
	db *sql.DB
}

// NewCompanyRepo returns a CompanyRepo bound to the given database.
func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{db: db} }

const companyColumns = `id, name, logo_url, description, contact_email, created_at, updated_at`

func scanCompany(row interface{ Scan(...interface{}) error }, c *model.Company) error {
	return row.Scan(&c.ID, &c.Name, &c.LogoURL, &c.Description, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)
}

// Create inserts a company and populates the generated ID and timestamps.
func (r *CompanyRepo) Create(ctx context.Context, c *model.Company) error {
	const q = `INSERT INTO companies (name, logo_url, description, contact_email) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.LogoURL, c.Description, c.ContactEmail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return scanCompany(r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, c.ID), c)
}

// CreateTx is Create within an existing transaction, used by registration
// so the company row and its first user commit together.
func (r *CompanyRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Company) error {
	const q = `INSERT INTO companies (name, logo_url, description, contact_email) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, c.Name, c.LogoURL, c.Description, c.ContactEmail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return scanCompany(tx.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, c.ID), c)
}

// List returns all companies, newest first.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Company, 0)
	for rows.Next() {
		var c model.Company
		if err := scanCompany(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns one company or ErrCompanyNotFound.
func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (*model.Company, error) {
	var c model.Company
	err := scanCompany(r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update overwrites the mutable columns of a company and returns the
// updated row, or ErrCompanyNotFound.
func (r *CompanyRepo) Update(ctx context.Context, c *model.Company) (*model.Company, error) {
	const q = `UPDATE companies SET name = ?, logo_url = ?, description = ?, contact_email = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, c.Name, c.LogoURL, c.Description, c.ContactEmail, c.ID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, c.ID)
}

// HasSales reports whether any committed sale exists against the
// company's events.  Companies with sales cannot be deleted; the ledger
// keeps its references the same way ticket classes with sales do.
func (r *CompanyRepo) HasSales(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM sales s
	             JOIN tickets t ON t.id = s.ticket_id
	             JOIN events e ON e.id = t.event_id
	             WHERE e.company_id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a company or returns ErrCompanyNotFound.
func (r *CompanyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
