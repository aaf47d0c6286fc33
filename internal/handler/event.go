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

// EventHandler serves the company-scoped event catalog.  Every route is
// behind the COMPANY role; the company_id claim scopes all queries so a
// company can never see or touch another company's events.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(e *repository.EventRepo) *EventHandler { return &EventHandler{Events: e} }

type eventReq struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Venue       *string    `json:"venue"`
	BannerURL   *string    `json:"banner_url"`
	Status      string     `json:"status"`
}

type eventView struct {
	ID          uint64     `json:"id"`
	CompanyID   uint64     `json:"company_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Venue       *string    `json:"venue,omitempty"`
	BannerURL   *string    `json:"banner_url,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toEventView(e *model.Event) eventView {
	return eventView{
		ID: e.ID, CompanyID: e.CompanyID, Title: e.Title,
		Description: e.Description, StartTime: e.StartTime, EndTime: e.EndTime,
		Venue: e.Venue, BannerURL: e.BannerURL, Status: e.Status,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

var eventStatuses = map[string]bool{"DRAFT": true, "PUBLISHED": true, "ARCHIVED": true}

// Create registers a new event under the caller's company.
func (h *EventHandler) Create(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = "DRAFT"
	}
	if !eventStatuses[status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time before start_time"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := &model.Event{
		CompanyID:   companyID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Venue:       req.Venue,
		BannerURL:   req.BannerURL,
		Status:      status,
	}
	if err := h.Events.Create(ctx, e); err != nil {
		c.Logger().Errorf("create event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventView(e))
}

// List returns all events owned by the caller's company.
func (h *EventHandler) List(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListByCompany(ctx, companyID)
	if err != nil {
		c.Logger().Errorf("list events: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]eventView, 0, len(events))
	for i := range events {
		out = append(out, toEventView(&events[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// Get returns one event owned by the caller's company.
func (h *EventHandler) Get(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		c.Logger().Errorf("get event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get event failed"})
	}
	return c.JSON(http.StatusOK, toEventView(e))
}

// Update overwrites the mutable fields of an owned event.
func (h *EventHandler) Update(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !eventStatuses[status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time before start_time"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := &model.Event{
		ID: id, CompanyID: companyID,
		Title: req.Title, Description: req.Description,
		StartTime: req.StartTime, EndTime: req.EndTime,
		Venue: req.Venue, BannerURL: req.BannerURL, Status: status,
	}
	updated, err := h.Events.Update(ctx, e)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		c.Logger().Errorf("update event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, toEventView(updated))
}

// Delete removes an owned event.
func (h *EventHandler) Delete(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "company account required"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id, companyID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		c.Logger().Errorf("delete event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
