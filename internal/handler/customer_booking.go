// Handlers for the customer booking flow: settle a booking through the
// booking engine and read back past transactions.

package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/booking"
    "github.com/mixmaxy/event-ticketing/internal/model"
    "github.com/mixmaxy/event-ticketing/internal/repository"
)

// BookingEngine is the slice of the booking engine the handler needs.
// Declared here so tests can stub settlement without a database.
type BookingEngine interface {
    BookTickets(ctx context.Context, req booking.Request) (*booking.Result, error)
}

// BookingHandler serves the customer booking endpoints.
type BookingHandler struct {
    Engine BookingEngine
    Txns   *repository.TransactionRepo
}

func NewBookingHandler(engine BookingEngine, txns *repository.TransactionRepo) *BookingHandler {
    if engine == nil || txns == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Engine: engine, Txns: txns}
}

// ----- DTOs -----

type bookReq struct {
    EventID     uint64         `json:"event_id"`
    Items       []booking.Item `json:"items"`
    CouponCode  string         `json:"coupon_code"`
    PointsToUse int64          `json:"points_to_use"`
}

type transactionItemResp struct {
    TicketID   uint64 `json:"ticket_id"`
    Quantity   uint32 `json:"quantity"`
    UnitPrice  int64  `json:"unit_price"`
    TotalPrice int64  `json:"total_price"`
}

type transactionResp struct {
    Code           string                `json:"code"`
    EventID        uint64                `json:"event_id"`
    TotalAmount    int64                 `json:"total_amount"`
    DiscountAmount int64                 `json:"discount_amount"`
    PointsUsed     int64                 `json:"points_used"`
    FinalAmount    int64                 `json:"final_amount"`
    Status         string                `json:"status"`
    CreatedAt      time.Time             `json:"created_at"`
    Items          []transactionItemResp `json:"items"`
    PointsEarned   int64                 `json:"points_earned,omitempty"`
}

func toTransactionResp(t *model.Transaction, items []model.TransactionItem, earned int64) transactionResp {
    out := transactionResp{
        Code:           t.PublicCode,
        EventID:        t.EventID,
        TotalAmount:    t.TotalAmount,
        DiscountAmount: t.DiscountAmount,
        PointsUsed:     t.PointsUsed,
        FinalAmount:    t.FinalAmount,
        Status:         t.Status,
        CreatedAt:      t.CreatedAt,
        PointsEarned:   earned,
        Items:          make([]transactionItemResp, 0, len(items)),
    }
    for _, it := range items {
        out.Items = append(out.Items, transactionItemResp{
            TicketID: it.TicketID, Quantity: it.Quantity,
            UnitPrice: it.UnitPrice, TotalPrice: it.TotalPrice,
        })
    }
    return out
}

// Book settles a booking for the authenticated customer.  All
// inventory, coupon and points effects land atomically or not at all;
// the response carries the settled amounts.
func (h *BookingHandler) Book(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.EventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id required"})
    }
    if req.PointsToUse < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "points_to_use must not be negative"})
    }

    res, err := h.Engine.BookTickets(c.Request().Context(), booking.Request{
        UserID:      uid,
        EventID:     req.EventID,
        Items:       req.Items,
        CouponCode:  req.CouponCode,
        PointsToUse: req.PointsToUse,
    })
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusCreated, toTransactionResp(res.Transaction, res.Items, res.PointsEarned))
}

// bookingError maps engine errors onto HTTP responses.
func bookingError(c echo.Context, err error) error {
    var capErr *booking.CapacityError
    switch {
    case errors.Is(err, booking.ErrEventNotBookable):
        // Covers missing events too; the engine does not distinguish.
        return c.JSON(http.StatusConflict, echo.Map{"error": "event is not open for booking"})
    case errors.Is(err, booking.ErrTicketNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found for event"})
    case errors.Is(err, booking.ErrInvalidQuantity):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid items"})
    case errors.Is(err, booking.ErrInvalidCoupon):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon is not usable"})
    case errors.Is(err, booking.ErrInsufficientFunds):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient points"})
    case errors.Is(err, booking.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking conflicted, please retry"})
    case errors.As(err, &capErr):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":     "not enough capacity",
            "ticket_id": capErr.TicketID,
            "requested": capErr.Requested,
            "available": capErr.Available,
        })
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
}

// ListMyTransactions returns the caller's transactions with items.
func (h *BookingHandler) ListMyTransactions(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    list, err := h.Txns.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]transactionResp, 0, len(list))
    for i := range list {
        out = append(out, toTransactionResp(&list[i].Transaction, list[i].Items, 0))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetMyTransaction returns one of the caller's transactions.
func (h *BookingHandler) GetMyTransaction(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    t, items, err := h.Txns.GetByIDForUser(c.Request().Context(), id, uid)
    if err != nil {
        if err == repository.ErrTransactionNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, toTransactionResp(t, items, 0))
}
