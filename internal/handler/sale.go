package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/reservation"
	queue_publisher "github.com/iliyamo/event-ticketing/internal/service"
)

// SaleHandler owns the purchase endpoint and the sales reporting surface.
// Purchases go through the reservation engine; everything else is
// read-only over the ledger.
type SaleHandler struct {
	Reserver reservation.Reserver
	Sales    *repository.SaleRepo
	Users    *repository.UserRepo
	AMQPURL  string // empty disables purchase notifications
}

// NewSaleHandler constructs a SaleHandler.
func NewSaleHandler(r reservation.Reserver, s *repository.SaleRepo, u *repository.UserRepo, amqpURL string) *SaleHandler {
	return &SaleHandler{Reserver: r, Sales: s, Users: u, AMQPURL: amqpURL}
}

type purchaseReq struct {
	TicketID uint64 `json:"ticket_id"`
	Quantity uint32 `json:"quantity"`
}

type purchaseResp struct {
	SaleID      uint64    `json:"sale_id"`
	TicketID    uint64    `json:"ticket_id"`
	Quantity    uint32    `json:"quantity"`
	Remaining   uint32    `json:"remaining"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// Purchase reserves quantity tickets of one class for the caller.  The
// engine decides; this handler only translates its verdict to HTTP.
// Rejections are normal outcomes and are not logged as errors.
func (h *SaleHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TicketID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Reserver.Reserve(ctx, userID, req.TicketID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
		case errors.Is(err, reservation.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, reservation.ErrSoldOut):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "not enough tickets remaining"})
		case errors.Is(err, reservation.ErrLimitExceeded):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "per-user purchase limit exceeded"})
		case errors.Is(err, reservation.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "purchase conflicted, please retry"})
		}
		c.Logger().Errorf("reserve ticket %d for user %d: %v", req.TicketID, userID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed"})
	}

	if h.AMQPURL != "" {
		go h.publishPurchase(res, userID)
	}

	return c.JSON(http.StatusCreated, purchaseResp{
		SaleID:      res.Sale.ID,
		TicketID:    res.Sale.TicketID,
		Quantity:    res.Sale.Quantity,
		Remaining:   res.Remaining,
		PurchasedAt: res.Sale.CreatedAt,
	})
}

// publishPurchase enriches the committed sale and hands it to the broker.
// Runs after the response; failures are logged and never surface to the
// buyer, the sale is already committed.
func (h *SaleHandler) publishPurchase(res *reservation.Result, userID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := queue.TicketPurchasedEvent{
		SaleID:      res.Sale.ID,
		UserID:      userID,
		TicketID:    res.Sale.TicketID,
		Quantity:    res.Sale.Quantity,
		Remaining:   res.Remaining,
		PurchasedAt: res.Sale.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t, err := h.Sales.GetPublicTicket(ctx, res.Sale.TicketID); err == nil {
		ev.TicketName = t.Name
		ev.EventID = t.EventID
		ev.PriceCents = t.PriceCents
		ev.Currency = t.Currency
	}
	if u, err := h.Users.GetByID(ctx, userID); err == nil {
		ev.UserEmail = u.Email
	}
	_ = queue_publisher.PublishTicketPurchased(ctx, h.AMQPURL, ev)
}

// TicketAvailability returns the public view of one ticket class, including
// remaining quantity.  Informational only; a purchase may still fail.
func (h *SaleHandler) TicketAvailability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Sales.GetPublicTicket(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		c.Logger().Errorf("get public ticket: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get ticket failed"})
	}
	return c.JSON(http.StatusOK, toTicketView(t))
}

// MySales returns the caller's full purchase history.
func (h *SaleHandler) MySales(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sales, err := h.Sales.ListByUser(ctx, userID, 0)
	if err != nil {
		c.Logger().Errorf("list user sales: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sales failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": sales})
}

// ----- company reporting -----

// ListSales returns all sales against the company's events, optionally
// filtered with ?event_id= and ?ticket_id=.
func (h *SaleHandler) ListSales(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	var f repository.SaleFilter
	if v := c.QueryParam("event_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
		}
		f.EventID = n
	}
	if v := c.QueryParam("ticket_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket_id"})
		}
		f.TicketID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sales, err := h.Sales.ListForCompany(ctx, companyID, f)
	if err != nil {
		c.Logger().Errorf("list company sales: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sales failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": sales})
}

// SalesByEvent returns all sales of one owned event, with buyer details.
func (h *SaleHandler) SalesByEvent(c echo.Context) error {
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

	sales, err := h.Sales.ListByEvent(ctx, eventID, companyID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "event belongs to another company"})
		}
		c.Logger().Errorf("list event sales: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sales failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": sales})
}

// SalesByUser returns one buyer's purchases within the company's events.
func (h *SaleHandler) SalesByUser(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	userID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sales, err := h.Sales.ListByUser(ctx, userID, companyID)
	if err != nil {
		c.Logger().Errorf("list buyer sales: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sales failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": sales})
}

// UserSummary returns per-event purchase totals for one buyer.
func (h *SaleHandler) UserSummary(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	userID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	summary, err := h.Sales.UserPurchaseSummary(ctx, userID, companyID)
	if err != nil {
		c.Logger().Errorf("user purchase summary: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "summary failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": summary})
}

// Dashboard returns per-event sales totals for the company.
func (h *SaleHandler) Dashboard(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	summary, err := h.Sales.DashboardSummary(ctx, companyID)
	if err != nil {
		c.Logger().Errorf("dashboard summary: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "summary failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": summary})
}

// Buyers lists the distinct buyers who purchased against the company's
// events.
func (h *SaleHandler) Buyers(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	buyers, err := h.Users.ListBuyersForCompany(ctx, companyID)
	if err != nil {
		c.Logger().Errorf("list buyers: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list buyers failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"buyers": buyers})
}

// BuyerProfile returns one buyer's profile with purchase totals within the
// company.
func (h *SaleHandler) BuyerProfile(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	userID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Users.GetBuyerProfile(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "buyer not found"})
		}
		c.Logger().Errorf("buyer profile: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "buyer profile failed"})
	}
	return c.JSON(http.StatusOK, profile)
}
