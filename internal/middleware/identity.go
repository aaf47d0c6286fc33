package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the user identifier that JWTAuth stored in the Echo
// context; it is used by the rate limiter to build per-user bucket keys.
// When no user is authenticated, "anon" is returned so unauthenticated
// traffic shares one bucket per IP.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the Echo context.  JWT
// subjects arrive as strings or JSON numbers depending on how the token
// was issued, so both are handled.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
