package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing

    "github.com/mixmaxy/event-ticketing/internal/handler"
    "github.com/mixmaxy/event-ticketing/internal/middleware"
    "github.com/mixmaxy/event-ticketing/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout does not require JWT middleware: the handler accepts either
    // a bearer token (revoke all sessions) or a refresh_token body
    // (revoke one session).
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleOrganizer, model.RoleCustomer))
    auth.GET("/me", a.Me)

    // Alias so clients can call either /v1/auth/logout or /v1/logout.
    e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  The
// supplied middleware (response cache, rate limiting) applies to this
// group only; these are the highest-traffic read endpoints.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mws ...echo.MiddlewareFunc) {
    g := e.Group("/v1", mws...)
    // Upcoming published events.
    g.GET("/events", p.GetPublicEvents)
    // Event detail with ticket classes and remaining capacity.
    g.GET("/events/:id", p.GetPublicEvent)
}
