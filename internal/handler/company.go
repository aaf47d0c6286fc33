package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// CompanyStore is the slice of the company repository the handler needs,
// extracted so the HTTP layer can be tested against a stub.
type CompanyStore interface {
	List(ctx context.Context) ([]model.Company, error)
	GetByID(ctx context.Context, id uint64) (*model.Company, error)
	Update(ctx context.Context, c *model.Company) (*model.Company, error)
	HasSales(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
}

// CompanyHandler serves the company directory and the caller's own company
// profile.  Browsing is public; mutations always act on the company from
// the JWT claim, so a company user can only ever edit or delete their own
// record regardless of what the path says.
type CompanyHandler struct {
	Companies CompanyStore
}

func NewCompanyHandler(co CompanyStore) *CompanyHandler {
	return &CompanyHandler{Companies: co}
}

type companyUpdateReq struct {
	Name         string  `json:"name"`
	LogoURL      *string `json:"logo_url"`
	Description  *string `json:"description"`
	ContactEmail string  `json:"contact_email"`
}

type companyView struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	LogoURL      *string   `json:"logo_url,omitempty"`
	Description  *string   `json:"description,omitempty"`
	ContactEmail string    `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCompanyView(c *model.Company) companyView {
	return companyView{
		ID: c.ID, Name: c.Name, LogoURL: c.LogoURL, Description: c.Description,
		ContactEmail: c.ContactEmail, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

// List returns the public company directory.
func (h *CompanyHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	companies, err := h.Companies.List(ctx)
	if err != nil {
		c.Logger().Errorf("list companies: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list companies failed"})
	}
	out := make([]companyView, 0, len(companies))
	for i := range companies {
		out = append(out, toCompanyView(&companies[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"companies": out})
}

// Get returns one company's public profile.
func (h *CompanyHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	co, err := h.Companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		c.Logger().Errorf("get company: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get company failed"})
	}
	return c.JSON(http.StatusOK, toCompanyView(co))
}

// Mine returns the caller's company profile.
func (h *CompanyHandler) Mine(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	co, err := h.Companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		c.Logger().Errorf("get company: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get company failed"})
	}
	return c.JSON(http.StatusOK, toCompanyView(co))
}

// UpdateMine overwrites the caller's company profile.
func (h *CompanyHandler) UpdateMine(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	var req companyUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactEmail))
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.ContactEmail == "" || !strings.Contains(req.ContactEmail, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid contact_email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Companies.Update(ctx, &model.Company{
		ID:           companyID,
		Name:         req.Name,
		LogoURL:      req.LogoURL,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		c.Logger().Errorf("update company: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update company failed"})
	}
	return c.JSON(http.StatusOK, toCompanyView(updated))
}

// Delete removes the caller's company.  The path id must match the JWT
// claim, and companies with committed sales are refused so the ledger
// keeps its references.
func (h *CompanyHandler) Delete(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	if id != companyID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company belongs to another account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hasSales, err := h.Companies.HasSales(ctx, id)
	if err != nil {
		c.Logger().Errorf("check company sales: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete company failed"})
	}
	if hasSales {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company has committed sales"})
	}
	if err := h.Companies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		c.Logger().Errorf("delete company: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete company failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
