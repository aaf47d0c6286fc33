package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	assert.NoError(t, handler(c))
	return rec
}

func TestRequireRoleAllows(t *testing.T) {
	mw := RequireRole("COMPANY", "ATTENDEE")
	assert.Equal(t, http.StatusOK, runWithRole(t, mw, "COMPANY").Code)
	assert.Equal(t, http.StatusOK, runWithRole(t, mw, "ATTENDEE").Code)
}

func TestRequireRoleRejects(t *testing.T) {
	mw := RequireRole("COMPANY")
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, "ATTENDEE").Code)
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, "").Code)
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, 42).Code)
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, nil).Code)
}
