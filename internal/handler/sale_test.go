package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/reservation"
)

type reserverMock struct {
	reserveFn func(ctx context.Context, userID, ticketID uint64, quantity uint32) (*reservation.Result, error)
}

func (m *reserverMock) Reserve(ctx context.Context, userID, ticketID uint64, quantity uint32) (*reservation.Result, error) {
	return m.reserveFn(ctx, userID, ticketID, quantity)
}

func newPurchaseContext(t *testing.T, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func TestPurchaseSuccess(t *testing.T) {
	now := time.Now().UTC()
	mock := &reserverMock{
		reserveFn: func(_ context.Context, userID, ticketID uint64, quantity uint32) (*reservation.Result, error) {
			assert.Equal(t, uint64(7), userID)
			assert.Equal(t, uint64(3), ticketID)
			assert.Equal(t, uint32(2), quantity)
			return &reservation.Result{
				Sale:      &reservation.Sale{ID: 99, UserID: userID, TicketID: ticketID, Quantity: quantity, CreatedAt: now},
				Remaining: 5,
			}, nil
		},
	}
	h := NewSaleHandler(mock, nil, nil, "")

	c, rec := newPurchaseContext(t, `{"ticket_id":3,"quantity":2}`, 7)
	require.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sale_id":99`)
	assert.Contains(t, rec.Body.String(), `"remaining":5`)
}

func TestPurchaseStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid quantity", reservation.ErrInvalidQuantity, http.StatusBadRequest},
		{"sold out", reservation.ErrSoldOut, http.StatusBadRequest},
		{"limit exceeded", reservation.ErrLimitExceeded, http.StatusBadRequest},
		{"ticket not found", reservation.ErrTicketNotFound, http.StatusNotFound},
		{"conflict", reservation.ErrConflict, http.StatusConflict},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &reserverMock{
				reserveFn: func(context.Context, uint64, uint64, uint32) (*reservation.Result, error) {
					return nil, tc.err
				},
			}
			h := NewSaleHandler(mock, nil, nil, "")
			c, rec := newPurchaseContext(t, `{"ticket_id":3,"quantity":1}`, 7)
			require.NoError(t, h.Purchase(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestPurchaseWrappedEngineError(t *testing.T) {
	mock := &reserverMock{
		reserveFn: func(context.Context, uint64, uint64, uint32) (*reservation.Result, error) {
			return nil, errors.New("deadlock: " + reservation.ErrConflict.Error())
		},
	}
	// a plain error that merely mentions conflict must not map to 409
	h := NewSaleHandler(mock, nil, nil, "")
	c, rec := newPurchaseContext(t, `{"ticket_id":3,"quantity":1}`, 7)
	require.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPurchaseMissingTicketID(t *testing.T) {
	called := false
	mock := &reserverMock{
		reserveFn: func(context.Context, uint64, uint64, uint32) (*reservation.Result, error) {
			called = true
			return nil, nil
		},
	}
	h := NewSaleHandler(mock, nil, nil, "")
	c, rec := newPurchaseContext(t, `{"quantity":1}`, 7)
	require.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called, "engine must not be reached without a ticket id")
}

func TestPurchaseMalformedBody(t *testing.T) {
	h := NewSaleHandler(&reserverMock{}, nil, nil, "")
	c, rec := newPurchaseContext(t, `{"ticket_id":`, 7)
	require.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseUnauthenticated(t *testing.T) {
	h := NewSaleHandler(&reserverMock{}, nil, nil, "")
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase", strings.NewReader(`{"ticket_id":3,"quantity":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id claim
	require.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
