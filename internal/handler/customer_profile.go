// Handlers for the customer profile surfaces: points balance with the
// grant history, and owned coupons.

package handler

import (
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/repository"
)

// ProfileHandler serves the customer's own points and coupons.
type ProfileHandler struct {
    Users   *repository.UserRepo
    Points  *repository.PointRepo
    Coupons *repository.CouponRepo
}

func NewProfileHandler(users *repository.UserRepo, points *repository.PointRepo, coupons *repository.CouponRepo) *ProfileHandler {
    if users == nil || points == nil || coupons == nil {
        panic("nil repository passed to NewProfileHandler")
    }
    return &ProfileHandler{Users: users, Points: points, Coupons: coupons}
}

type pointResp struct {
    ID          uint64    `json:"id"`
    Amount      int64     `json:"amount"`
    Description string    `json:"description"`
    IsUsed      bool      `json:"is_used"`
    ExpiresAt   time.Time `json:"expires_at"`
    CreatedAt   time.Time `json:"created_at"`
}

type couponResp struct {
    ID              uint64    `json:"id"`
    Code            string    `json:"code"`
    DiscountPercent int       `json:"discount_percent"`
    IsUsed          bool      `json:"is_used"`
    ExpiresAt       time.Time `json:"expires_at"`
}

// GetMyPoints returns the cached balance plus the full grant history.
func (h *ProfileHandler) GetMyPoints(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    grants, err := h.Points.ListByUser(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]pointResp, 0, len(grants))
    for _, g := range grants {
        out = append(out, pointResp{
            ID: g.ID, Amount: g.Amount, Description: g.Description,
            IsUsed: g.IsUsed, ExpiresAt: g.ExpiresAt, CreatedAt: g.CreatedAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "balance": u.PointsBalance,
        "items":   out,
    })
}

// GetMyCoupons returns the caller's coupons, unused first.
func (h *ProfileHandler) GetMyCoupons(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    coupons, err := h.Coupons.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]couponResp, 0, len(coupons))
    for _, cp := range coupons {
        out = append(out, couponResp{
            ID: cp.ID, Code: cp.Code, DiscountPercent: cp.DiscountPercent,
            IsUsed: cp.IsUsed, ExpiresAt: cp.ExpiresAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
