// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/handler"
	"github.com/rajeet-04/railway/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints and the /v1/me
// profile route.  Register and login live under /v1/auth and need no
// token; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalog and
// availability endpoints: station search, train search with optional
// per-date run info, train detail with route, and the live seat map of
// a run.  Guests can browse everything; only holding and booking
// require an account.
func RegisterPublic(e *echo.Echo, st *handler.StationHandler, tr *handler.TrainHandler, runs *handler.TrainRunHandler) {
	e.GET("/v1/stations", st.Search)
	e.GET("/v1/stations/:code", st.Get)
	e.GET("/v1/trains/search", tr.Search)
	e.GET("/v1/trains/:number", tr.Get)
	e.GET("/v1/train-runs/:id/availability", runs.Availability)
}

// RegisterReservations registers the authenticated reservation
// endpoints: hold creation and release, booking finalization, listing,
// detail and cancellation.
func RegisterReservations(e *echo.Echo, h *handler.HoldHandler, b *handler.BookingHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.POST("/holds", h.Create)
	auth.DELETE("/holds/:id", h.Release)

	auth.POST("/bookings", b.Create)
	auth.GET("/bookings", b.List)
	auth.GET("/bookings/:ref", b.Get)
	auth.DELETE("/bookings/:ref", b.Cancel)
}

// RegisterAdmin registers operator endpoints behind JWT plus the admin
// flag.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())

	admin.POST("/import", a.Import)
}
