package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// UserRepo persists application users.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  companyID may be nil for
// ATTENDEE users.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, companyID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, company_id) VALUES (?,?,?,?,?)",
		name, email, hash, role, companyID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateTx is Create within an existing transaction, so registration can
// commit the user together with its freshly created company row.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, name, email, password, role string, companyID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, company_id) VALUES (?,?,?,?,?)",
		name, email, hash, role, companyID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = "id,name,email,password_hash,role,company_id,is_active,created_at,updated_at"

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CompanyID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CompanyID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Buyer is the minimal view of a user exposed to company staff.
type Buyer struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListBuyersForCompany returns the distinct users who bought tickets for
// any of the company's events, ordered by name.
func (r *UserRepo) ListBuyersForCompany(ctx context.Context, companyID uint64) ([]Buyer, error) {
	const q = `SELECT DISTINCT u.id, u.name, u.email
	           FROM users u
	           JOIN sales s ON s.user_id = u.id
	           JOIN tickets t ON t.id = s.ticket_id
	           JOIN events e ON e.id = t.event_id
	           WHERE e.company_id = ?
	           ORDER BY u.name ASC`
	rows, err := r.DB.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Buyer, 0)
	for rows.Next() {
		var b Buyer
		if err := rows.Scan(&b.ID, &b.Name, &b.Email); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BuyerProfile combines a user's identity with their purchase totals
// within one company.
type BuyerProfile struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	TicketsPurchased uint64 `json:"tickets_purchased"`
	RevenueCents     uint64 `json:"revenue_cents"`
}

// GetBuyerProfile returns the user plus their sales totals scoped to the
// company's events.  sql.ErrNoRows is returned when the user does not
// exist; a user without purchases yields zero totals.
func (r *UserRepo) GetBuyerProfile(ctx context.Context, userID, companyID uint64) (*BuyerProfile, error) {
	var p BuyerProfile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email FROM users WHERE id=? LIMIT 1",
		userID).Scan(&p.ID, &p.Name, &p.Email)
	if err != nil {
		return nil, err
	}
	const q = `SELECT COALESCE(SUM(s.quantity), 0),
	                  COALESCE(SUM(s.quantity * t.price_cents), 0)
	           FROM sales s
	           JOIN tickets t ON t.id = s.ticket_id
	           JOIN events e ON e.id = t.event_id
	           WHERE s.user_id = ? AND e.company_id = ?`
	if err := r.DB.QueryRowContext(ctx, q, userID, companyID).Scan(&p.TicketsPurchased, &p.RevenueCents); err != nil {
		return nil, err
	}
	return &p, nil
}
