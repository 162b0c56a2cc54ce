package router

import (
    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/handler"
    "github.com/mixmaxy/event-ticketing/internal/middleware"
    "github.com/mixmaxy/event-ticketing/internal/model"
)

// RegisterOrganizer registers organizer-scoped endpoints under /v1.
// All routes require a valid JWT and the ORGANIZER role.  Organizers
// manage their own events and ticket classes and read sales summaries;
// ownership is enforced per request in the handlers.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleOrganizer),
    )
    g.POST("/events", o.CreateEvent)
    g.GET("/my-events", o.ListMyEvents)
    g.PUT("/events/:id", o.UpdateEvent)
    // Lifecycle: DRAFT -> PUBLISHED -> CANCELLED | COMPLETED.
    g.PATCH("/events/:id/status", o.UpdateEventStatus)
    g.GET("/events/:id/sales", o.GetSalesSummary)

    g.POST("/events/:id/tickets", o.CreateTicket)
    g.GET("/events/:id/tickets", o.ListTickets)
    g.PUT("/tickets/:ticket_id", o.UpdateTicket)
    g.DELETE("/tickets/:ticket_id", o.DeleteTicket)
}
