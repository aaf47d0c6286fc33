package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

type companyStoreMock struct {
	listFn     func(ctx context.Context) ([]model.Company, error)
	getByIDFn  func(ctx context.Context, id uint64) (*model.Company, error)
	updateFn   func(ctx context.Context, c *model.Company) (*model.Company, error)
	hasSalesFn func(ctx context.Context, id uint64) (bool, error)
	deleteFn   func(ctx context.Context, id uint64) error
}

func (m *companyStoreMock) List(ctx context.Context) ([]model.Company, error) {
	return m.listFn(ctx)
}
func (m *companyStoreMock) GetByID(ctx context.Context, id uint64) (*model.Company, error) {
	return m.getByIDFn(ctx, id)
}
func (m *companyStoreMock) Update(ctx context.Context, c *model.Company) (*model.Company, error) {
	return m.updateFn(ctx, c)
}
func (m *companyStoreMock) HasSales(ctx context.Context, id uint64) (bool, error) {
	return m.hasSalesFn(ctx, id)
}
func (m *companyStoreMock) Delete(ctx context.Context, id uint64) error {
	return m.deleteFn(ctx, id)
}

func newCompanyContext(t *testing.T, method, target string, pathParam uint64, claim interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if pathParam != 0 {
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(pathParam, 10))
	}
	if claim != nil {
		c.Set("company_id", claim)
	}
	return c, rec
}

func TestCompanyPublicList(t *testing.T) {
	mock := &companyStoreMock{
		listFn: func(context.Context) ([]model.Company, error) {
			return []model.Company{
				{ID: 1, Name: "Livewire Events", ContactEmail: "hello@livewire.test", CreatedAt: time.Now(), UpdatedAt: time.Now()},
				{ID: 2, Name: "Northside Shows", ContactEmail: "box@northside.test", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			}, nil
		},
	}
	h := NewCompanyHandler(mock)

	c, rec := newCompanyContext(t, http.MethodGet, "/v1/companies", 0, nil)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Livewire Events")
	assert.Contains(t, rec.Body.String(), "Northside Shows")
}

func TestCompanyPublicGet(t *testing.T) {
	mock := &companyStoreMock{
		getByIDFn: func(_ context.Context, id uint64) (*model.Company, error) {
			if id != 4 {
				return nil, repository.ErrCompanyNotFound
			}
			return &model.Company{ID: 4, Name: "Livewire Events", ContactEmail: "hello@livewire.test"}, nil
		},
	}
	h := NewCompanyHandler(mock)

	c, rec := newCompanyContext(t, http.MethodGet, "/v1/companies/4", 4, nil)
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":4`)

	c, rec = newCompanyContext(t, http.MethodGet, "/v1/companies/9", 9, nil)
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompanyDeleteOwn(t *testing.T) {
	deleted := uint64(0)
	mock := &companyStoreMock{
		hasSalesFn: func(context.Context, uint64) (bool, error) { return false, nil },
		deleteFn: func(_ context.Context, id uint64) error {
			deleted = id
			return nil
		},
	}
	h := NewCompanyHandler(mock)

	c, rec := newCompanyContext(t, http.MethodDelete, "/v1/companies/4", 4, uint64(4))
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint64(4), deleted)
}

func TestCompanyDeleteForeign(t *testing.T) {
	called := false
	mock := &companyStoreMock{
		hasSalesFn: func(context.Context, uint64) (bool, error) { called = true; return false, nil },
		deleteFn:   func(context.Context, uint64) error { called = true; return nil },
	}
	h := NewCompanyHandler(mock)

	// path names company 7, claim says company 4
	c, rec := newCompanyContext(t, http.MethodDelete, "/v1/companies/7", 7, uint64(4))
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called, "store must not be touched for a foreign company")
}

func TestCompanyDeleteWithSales(t *testing.T) {
	deleted := false
	mock := &companyStoreMock{
		hasSalesFn: func(context.Context, uint64) (bool, error) { return true, nil },
		deleteFn:   func(context.Context, uint64) error { deleted = true; return nil },
	}
	h := NewCompanyHandler(mock)

	c, rec := newCompanyContext(t, http.MethodDelete, "/v1/companies/4", 4, uint64(4))
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, deleted, "a company with sales must not be removed")
}

func TestCompanyDeleteWithoutClaim(t *testing.T) {
	h := NewCompanyHandler(&companyStoreMock{})
	c, rec := newCompanyContext(t, http.MethodDelete, "/v1/companies/4", 4, nil)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
