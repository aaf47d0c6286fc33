// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// Handlers groups every handler the route table needs.
type Handlers struct {
	Auth      *handler.AuthHandler
	Companies *handler.CompanyHandler
	Events    *handler.EventHandler
	Tickets   *handler.TicketHandler
	Sales     *handler.SaleHandler
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	// public browsing, no session needed
	e.GET("/v1/tickets/:id/availability", h.Sales.TicketAvailability)
	e.GET("/v1/companies", h.Companies.List)
	e.GET("/v1/companies/:id", h.Companies.Get)
}

// RegisterAPI registers the full authenticated API.  Unauthenticated auth
// operations live under /v1/auth; everything else requires a valid access
// token.  Company-only routes additionally require the COMPANY role, and
// the purchase endpoint is rate limited per user.  rdb may be nil, in
// which case rate limiting and response caching are disabled.
func RegisterAPI(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	// logout takes the refresh token in the body so an expired access
	// token cannot strand a session
	g.POST("/logout", h.Auth.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole("COMPANY", "ATTENDEE"))
	auth.GET("/me", h.Auth.Me)

	// attendee surface
	buy := auth.Group("")
	if rdb != nil {
		buy.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	buy.POST("/purchase", h.Sales.Purchase)
	auth.GET("/my-sales", h.Sales.MySales)

	// company surface
	co := auth.Group("")
	co.Use(middleware.RequireRole("COMPANY"))

	co.GET("/company", h.Companies.Mine)
	co.PUT("/company", h.Companies.UpdateMine)
	co.DELETE("/companies/:id", h.Companies.Delete)

	co.POST("/events", h.Events.Create)
	co.GET("/events", h.Events.List)
	co.GET("/events/:id", h.Events.Get)
	co.PUT("/events/:id", h.Events.Update)
	co.DELETE("/events/:id", h.Events.Delete)
	co.GET("/events/:id/tickets", h.Tickets.ListByEvent)
	co.GET("/events/:id/sales", h.Sales.SalesByEvent)

	co.POST("/tickets", h.Tickets.Create)
	co.GET("/tickets/:id", h.Tickets.Get)
	co.PUT("/tickets/:id", h.Tickets.Update)
	co.DELETE("/tickets/:id", h.Tickets.Delete)

	// reporting reads are cached; the ledger only grows so short TTLs
	// are safe
	report := co.Group("")
	if rdb != nil {
		report.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	report.GET("/sales", h.Sales.ListSales)
	report.GET("/dashboard", h.Sales.Dashboard)
	report.GET("/buyers", h.Sales.Buyers)
	report.GET("/buyers/:id", h.Sales.BuyerProfile)
	report.GET("/buyers/:id/sales", h.Sales.SalesByUser)
	report.GET("/buyers/:id/summary", h.Sales.UserSummary)
}
