// This file defines handlers for organizers to manage their events:
// create, update, list, lifecycle transitions and the per-event sales
// summary.  Ownership is checked on every mutation so an organizer can
// never touch another organizer's events.

package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mixmaxy/event-ticketing/internal/model"
    "github.com/mixmaxy/event-ticketing/internal/repository"
)

// OrganizerHandler bundles repositories organizers need to manage
// events and their ticket classes.
type OrganizerHandler struct {
    Events  *repository.EventRepo
    Tickets *repository.TicketRepo
}

func NewOrganizerHandler(events *repository.EventRepo, tickets *repository.TicketRepo) *OrganizerHandler {
    if events == nil || tickets == nil {
        panic("nil repository passed to NewOrganizerHandler")
    }
    return &OrganizerHandler{Events: events, Tickets: tickets}
}

// ----- DTOs -----

type eventReq struct {
    Name           string    `json:"name"`
    Description    string    `json:"description"`
    Location       string    `json:"location"`
    StartsAt       time.Time `json:"starts_at"`
    AvailableSeats uint32    `json:"available_seats"`
}

type eventResp struct {
    ID             uint64    `json:"id"`
    Name           string    `json:"name"`
    Description    string    `json:"description"`
    Location       string    `json:"location"`
    StartsAt       time.Time `json:"starts_at"`
    Status         string    `json:"status"`
    AvailableSeats uint32    `json:"available_seats"`
    BookedSeats    uint32    `json:"booked_seats"`
}

func toEventResp(ev *model.Event) eventResp {
    return eventResp{
        ID:             ev.ID,
        Name:           ev.Name,
        Description:    ev.Description,
        Location:       ev.Location,
        StartsAt:       ev.StartsAt,
        Status:         ev.Status,
        AvailableSeats: ev.AvailableSeats,
        BookedSeats:    ev.BookedSeats,
    }
}

func (r *eventReq) validate() string {
    if strings.TrimSpace(r.Name) == "" {
        return "name required"
    }
    if r.AvailableSeats == 0 {
        return "available_seats must be positive"
    }
    if r.StartsAt.IsZero() || !r.StartsAt.After(time.Now().UTC()) {
        return "starts_at must be in the future"
    }
    return ""
}

// CreateEvent creates a DRAFT event owned by the caller.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ev := &model.Event{
        OrganizerID:    uid,
        Name:           strings.TrimSpace(req.Name),
        Description:    strings.TrimSpace(req.Description),
        Location:       strings.TrimSpace(req.Location),
        StartsAt:       req.StartsAt.UTC(),
        AvailableSeats: req.AvailableSeats,
    }
    if err := h.Events.Create(c.Request().Context(), ev); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
    }
    return c.JSON(http.StatusCreated, toEventResp(ev))
}

// ListMyEvents returns all events owned by the caller.
func (h *OrganizerHandler) ListMyEvents(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    events, err := h.Events.ListByOrganizer(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]eventResp, 0, len(events))
    for i := range events {
        out = append(out, toEventResp(&events[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UpdateEvent edits an event the caller owns.  Capacity can only
// shrink down to the seats already booked.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx := c.Request().Context()
    ev, err := h.Events.GetByIDAndOrganizer(ctx, id, uid)
    if err != nil {
        return eventLookupError(c, err)
    }

    ev.Name = strings.TrimSpace(req.Name)
    ev.Description = strings.TrimSpace(req.Description)
    ev.Location = strings.TrimSpace(req.Location)
    ev.StartsAt = req.StartsAt.UTC()
    ev.AvailableSeats = req.AvailableSeats
    if err := h.Events.Update(ctx, ev); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "available_seats below booked seats"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
    }
    return c.JSON(http.StatusOK, toEventResp(ev))
}

// allowedTransitions maps an event status to the statuses it may move
// to.  Only PUBLISHED events are bookable; CANCELLED and COMPLETED are
// terminal.
var allowedTransitions = map[string][]string{
    model.EventStatusDraft:     {model.EventStatusPublished, model.EventStatusCancelled},
    model.EventStatusPublished: {model.EventStatusCancelled, model.EventStatusCompleted},
}

// UpdateEventStatus moves an event through its lifecycle.
func (h *OrganizerHandler) UpdateEventStatus(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    target := strings.ToUpper(strings.TrimSpace(req.Status))

    ctx := c.Request().Context()
    ev, err := h.Events.GetByIDAndOrganizer(ctx, id, uid)
    if err != nil {
        return eventLookupError(c, err)
    }

    legal := false
    for _, s := range allowedTransitions[ev.Status] {
        if s == target {
            legal = true
            break
        }
    }
    if !legal {
        return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
    }
    if err := h.Events.UpdateStatus(ctx, ev.ID, target); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
    ev.Status = target
    return c.JSON(http.StatusOK, toEventResp(ev))
}

// GetSalesSummary returns the aggregate sales numbers for one of the
// caller's events.
func (h *OrganizerHandler) GetSalesSummary(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    if _, err := h.Events.GetByIDAndOrganizer(ctx, id, uid); err != nil {
        return eventLookupError(c, err)
    }
    summary, err := h.Events.GetSalesSummary(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, summary)
}

func eventLookupError(c echo.Context, err error) error {
    switch err {
    case repository.ErrEventNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}
