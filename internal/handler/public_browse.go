// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to discover upcoming events and their ticket classes.
// Sensitive fields (organizer IDs, timestamps, etc.) are filtered from responses.

package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/model"
    "github.com/mixmaxy/event-ticketing/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
    Events  *repository.EventRepo
    Tickets *repository.TicketRepo
}

// PublicEvent represents an event in public list responses. Only safe
// fields are included.
type PublicEvent struct {
    ID             uint64    `json:"id"`
    Name           string    `json:"name"`
    Location       string    `json:"location"`
    StartsAt       time.Time `json:"starts_at"`
    SeatsRemaining uint32    `json:"seats_remaining"`
}

// PublicTicket represents a bookable ticket class of an event.
type PublicTicket struct {
    ID        uint64 `json:"id"`
    Type      string `json:"type"`
    Price     int64  `json:"price"`
    Remaining uint32 `json:"remaining"`
}

// PublicEventDetail is the detail response with description and ticket
// classes inlined.
type PublicEventDetail struct {
    PublicEvent
    Description string         `json:"description"`
    Tickets     []PublicTicket `json:"tickets"`
}

func toPublicEvent(ev *model.Event) PublicEvent {
    return PublicEvent{
        ID:             ev.ID,
        Name:           ev.Name,
        Location:       ev.Location,
        StartsAt:       ev.StartsAt,
        SeatsRemaining: ev.AvailableSeats - ev.BookedSeats,
    }
}

// GetPublicEvents lists upcoming PUBLISHED events, soonest first.
// Response JSON contains an "items" array of PublicEvent.
func (h *PublicHandler) GetPublicEvents(c echo.Context) error {
    ctx := c.Request().Context()
    events, err := h.Events.ListPublished(ctx, time.Now().UTC())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicEvent, 0, len(events))
    for i := range events {
        out = append(out, toPublicEvent(&events[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicEvent returns details of a single published event including
// its ticket classes. Draft and finished events are reported as not
// found so unpublished inventory never leaks.
func (h *PublicHandler) GetPublicEvent(c echo.Context) error {
    ctx := c.Request().Context()
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ev, err := h.Events.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrEventNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if ev.Status != model.EventStatusPublished {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    }

    tickets, err := h.Tickets.ListByEvent(ctx, ev.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    resp := PublicEventDetail{
        PublicEvent: toPublicEvent(ev),
        Description: ev.Description,
        Tickets:     make([]PublicTicket, 0, len(tickets)),
    }
    for _, t := range tickets {
        resp.Tickets = append(resp.Tickets, PublicTicket{
            ID: t.ID, Type: t.Type, Price: t.Price, Remaining: t.Quantity - t.Sold,
        })
    }
    return c.JSON(http.StatusOK, resp)
}
