package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/flight-seat-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/flight-seat-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Route group for operations that do not require an existing session
	// (register, login, refresh).  Each of these handlers is responsible
	// for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a JSON body containing a refresh_token and invalidates
	// that token; with a bearer token and no body it revokes all sessions.
	g.POST("/logout", a.Logout)

	// Protected group: all handlers registered here execute the JWTAuth
	// middleware first.  Both roles may read their own identity.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)

	// Alias outside the protected group so clients can log out with just a
	// refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated flight catalogue on the
// provided Echo instance.  These routes do not apply any JWT or role
// middleware; guests can search for flights and inspect availability and
// current quotes before signing up.
func RegisterPublic(e *echo.Echo, p *handler.PublicFlightHandler) {
	// Search flights by route and day: ?origin=AMS&destination=JFK&date=2026-09-01
	e.GET("/v1/flights", p.Search)
	// Flight details with per-cabin availability and live quotes.
	e.GET("/v1/flights/:id", p.Get)
}
