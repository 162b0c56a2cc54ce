package router

import (
    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/handler"
    "github.com/mixmaxy/event-ticketing/internal/middleware"
    "github.com/mixmaxy/event-ticketing/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can book
// tickets and read back their own transactions, coupons and points.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, p *handler.ProfileHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleCustomer),
    )
    // Settle a booking: reserve tickets, apply coupon and points,
    // record the transaction. Atomic per request.
    g.POST("/bookings", b.Book)
    g.GET("/my-transactions", b.ListMyTransactions)
    g.GET("/transactions/:id", b.GetMyTransaction)

    g.GET("/my-points", p.GetMyPoints)
    g.GET("/my-coupons", p.GetMyCoupons)
}
