// Handlers for organizers to manage the ticket classes of their
// events.  Each operation verifies event ownership before touching the
// tickets.

package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/model"
    "github.com/mixmaxy/event-ticketing/internal/repository"
)

type ticketReq struct {
    Type     string `json:"type"` // REGULAR | VIP | EARLY_BIRD
    Price    int64  `json:"price"`
    Quantity uint32 `json:"quantity"`
}

type ticketResp struct {
    ID       uint64 `json:"id"`
    EventID  uint64 `json:"event_id"`
    Type     string `json:"type"`
    Price    int64  `json:"price"`
    Quantity uint32 `json:"quantity"`
    Sold     uint32 `json:"sold"`
}

func toTicketResp(t *model.Ticket) ticketResp {
    return ticketResp{
        ID: t.ID, EventID: t.EventID, Type: t.Type,
        Price: t.Price, Quantity: t.Quantity, Sold: t.Sold,
    }
}

func validTicketType(t string) bool {
    switch t {
    case model.TicketTypeRegular, model.TicketTypeVIP, model.TicketTypeEarlyBird:
        return true
    }
    return false
}

// CreateTicket adds a ticket class to an event the caller owns.
func (h *OrganizerHandler) CreateTicket(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req ticketReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
    if !validTicketType(req.Type) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type"})
    }
    if req.Price < 0 || req.Quantity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price/quantity invalid"})
    }

    ctx := c.Request().Context()
    if _, err := h.Events.GetByIDAndOrganizer(ctx, eventID, uid); err != nil {
        return eventLookupError(c, err)
    }

    t := &model.Ticket{EventID: eventID, Type: req.Type, Price: req.Price, Quantity: req.Quantity}
    if err := h.Tickets.Create(ctx, t); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "ticket type already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
    }
    return c.JSON(http.StatusCreated, toTicketResp(t))
}

// ListTickets returns the ticket classes of one of the caller's events.
func (h *OrganizerHandler) ListTickets(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    if _, err := h.Events.GetByIDAndOrganizer(ctx, eventID, uid); err != nil {
        return eventLookupError(c, err)
    }
    tickets, err := h.Tickets.ListByEvent(ctx, eventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]ticketResp, 0, len(tickets))
    for i := range tickets {
        out = append(out, toTicketResp(&tickets[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UpdateTicket changes price or quantity of a ticket class.  Quantity
// can never drop below the tickets already sold.
func (h *OrganizerHandler) UpdateTicket(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ticketID, ok := pathID(c, "ticket_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req ticketReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Price < 0 || req.Quantity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price/quantity invalid"})
    }

    ctx := c.Request().Context()
    t, err := h.Tickets.GetByID(ctx, ticketID)
    if err != nil {
        if err == repository.ErrTicketNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if _, err := h.Events.GetByIDAndOrganizer(ctx, t.EventID, uid); err != nil {
        return eventLookupError(c, err)
    }

    t.Price = req.Price
    t.Quantity = req.Quantity
    if err := h.Tickets.Update(ctx, t); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "quantity below sold"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update ticket failed"})
    }
    return c.JSON(http.StatusOK, toTicketResp(t))
}

// DeleteTicket removes a ticket class that has no sales.
func (h *OrganizerHandler) DeleteTicket(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ticketID, ok := pathID(c, "ticket_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    t, err := h.Tickets.GetByID(ctx, ticketID)
    if err != nil {
        if err == repository.ErrTicketNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if _, err := h.Events.GetByIDAndOrganizer(ctx, t.EventID, uid); err != nil {
        return eventLookupError(c, err)
    }
    if err := h.Tickets.Delete(ctx, ticketID); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "ticket has sales"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete ticket failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
