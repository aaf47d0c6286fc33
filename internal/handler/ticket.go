package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// TicketHandler serves the company-scoped ticket class catalog.  The
// catalog owns capacity and limit configuration; quantity_sold is shown
// read-only and only ever moves through the reservation engine.
type TicketHandler struct {
	Tickets *repository.TicketRepo
}

func NewTicketHandler(t *repository.TicketRepo) *TicketHandler { return &TicketHandler{Tickets: t} }

type ticketCreateReq struct {
	EventID       uint64 `json:"event_id"`
	Name          string `json:"name"`
	PriceCents    uint32 `json:"price_cents"`
	Currency      string `json:"currency"`
	QuantityTotal uint32 `json:"quantity_total"`
	PerUserLimit  uint32 `json:"per_user_limit"`
}

type ticketUpdateReq struct {
	Name          *string `json:"name"`
	PriceCents    *uint32 `json:"price_cents"`
	Currency      *string `json:"currency"`
	QuantityTotal *uint32 `json:"quantity_total"`
	PerUserLimit  *uint32 `json:"per_user_limit"`
}

type ticketView struct {
	ID            uint64    `json:"id"`
	EventID       uint64    `json:"event_id"`
	Name          string    `json:"name"`
	PriceCents    uint32    `json:"price_cents"`
	Currency      string    `json:"currency"`
	QuantityTotal uint32    `json:"quantity_total"`
	QuantitySold  uint32    `json:"quantity_sold"`
	Remaining     uint32    `json:"remaining"`
	PerUserLimit  uint32    `json:"per_user_limit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTicketView(t *model.TicketClass) ticketView {
	remaining := uint32(0)
	if t.QuantityTotal > t.QuantitySold {
		remaining = t.QuantityTotal - t.QuantitySold
	}
	return ticketView{
		ID: t.ID, EventID: t.EventID, Name: t.Name,
		PriceCents: t.PriceCents, Currency: t.Currency,
		QuantityTotal: t.QuantityTotal, QuantitySold: t.QuantitySold,
		Remaining: remaining, PerUserLimit: t.PerUserLimit,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

// Create adds a ticket class under an event owned by the caller's company.
func (h *TicketHandler) Create(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	var req ticketCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	switch {
	case req.EventID == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id required"})
	case req.Name == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	case len(req.Currency) != 3:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "currency must be a 3-letter code"})
	case req.QuantityTotal == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity_total must be positive"})
	case req.PerUserLimit == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "per_user_limit must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.TicketClass{
		EventID:       req.EventID,
		Name:          req.Name,
		PriceCents:    req.PriceCents,
		Currency:      req.Currency,
		QuantityTotal: req.QuantityTotal,
		PerUserLimit:  req.PerUserLimit,
	}
	if err := h.Tickets.Create(ctx, companyID, t); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "event belongs to another company"})
		}
		c.Logger().Errorf("create ticket: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
	}
	return c.JSON(http.StatusCreated, toTicketView(t))
}

// ListByEvent returns all ticket classes of an owned event.  The event id
// comes from the :id path parameter.
func (h *TicketHandler) ListByEvent(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	eventID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListByEvent(ctx, eventID, companyID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "event belongs to another company"})
		}
		c.Logger().Errorf("list tickets: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tickets failed"})
	}
	out := make([]ticketView, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicketView(&tickets[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}

// Get returns one ticket class owned by the caller's company.
func (h *TicketHandler) Get(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetForCompany(ctx, id, companyID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "ticket belongs to another company"})
		}
		c.Logger().Errorf("get ticket: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get ticket failed"})
	}
	return c.JSON(http.StatusOK, toTicketView(t))
}

// Update patches a ticket class.  Absent fields keep their current values;
// quantity_sold is not updatable through the catalog.
func (h *TicketHandler) Update(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req ticketUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
	}
	if req.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(cur) != 3 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "currency must be a 3-letter code"})
		}
		req.Currency = &cur
	}
	if req.QuantityTotal != nil && *req.QuantityTotal == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity_total must be positive"})
	}
	if req.PerUserLimit != nil && *req.PerUserLimit == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "per_user_limit must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.Update(ctx, id, companyID, repository.UpdateParams{
		Name:          req.Name,
		PriceCents:    req.PriceCents,
		Currency:      req.Currency,
		QuantityTotal: req.QuantityTotal,
		PerUserLimit:  req.PerUserLimit,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "ticket belongs to another company"})
		case errors.Is(err, repository.ErrCapacityBelowSold):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity_total below tickets already sold"})
		}
		c.Logger().Errorf("update ticket: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update ticket failed"})
	}
	return c.JSON(http.StatusOK, toTicketView(t))
}

// Delete removes a ticket class without committed sales.
func (h *TicketHandler) Delete(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.Delete(ctx, id, companyID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "ticket belongs to another company"})
		case errors.Is(err, repository.ErrHasSales):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket has committed sales"})
		}
		c.Logger().Errorf("delete ticket: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete ticket failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
