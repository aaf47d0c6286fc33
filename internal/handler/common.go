package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWT claims may surface as float64 (JSON numbers) or strings
// depending on the issuing path, so all representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	return contextUint(c, "user_id")
}

// getCompanyID extracts the company_id claim stored by the JWT middleware.
// Only COMPANY users carry one.
func getCompanyID(c echo.Context) (uint64, error) {
	return contextUint(c, "company_id")
}

func contextUint(c echo.Context, key string) (uint64, error) {
	v := c.Get(key)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid " + key + " in context")
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
