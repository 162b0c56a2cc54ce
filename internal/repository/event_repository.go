package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

// ErrEventNotFound is returned when an event does not exist.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides data access to the events table.  Reads used by
// the booking engine run inside a caller-supplied transaction so that
// the event row can be locked for the duration of a booking; plain
// reads for browsing and administration run directly on the pool.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = "id, organizer_id, name, description, location, starts_at, status, available_seats, booked_seats, created_at, updated_at"

func scanEvent(scan func(dest ...any) error) (*model.Event, error) {
    var ev model.Event
    err := scan(&ev.ID, &ev.OrganizerID, &ev.Name, &ev.Description, &ev.Location,
        &ev.StartsAt, &ev.Status, &ev.AvailableSeats, &ev.BookedSeats,
        &ev.CreatedAt, &ev.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &ev, nil
}

// Create inserts a new event in DRAFT status and populates the
// generated ID on the provided model.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO events (organizer_id, name, description, location, starts_at, status, available_seats, booked_seats)
         VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
        ev.OrganizerID, ev.Name, ev.Description, ev.Location,
        ev.StartsAt.UTC().Format("2006-01-02 15:04:05"), model.EventStatusDraft, ev.AvailableSeats)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ev.ID = uint64(id)
    ev.Status = model.EventStatusDraft
    return nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    ev, err := scanEvent(r.db.QueryRowContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE id = ?`, id).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    return ev, err
}

// GetByIDAndOrganizer returns the event only when it is owned by the
// given organizer.  It returns ErrEventNotFound when the event does
// not exist and ErrForbidden when it belongs to someone else.
func (r *EventRepo) GetByIDAndOrganizer(ctx context.Context, id, organizerID uint64) (*model.Event, error) {
    ev, err := r.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if ev.OrganizerID != organizerID {
        return nil, ErrForbidden
    }
    return ev, nil
}

// GetForUpdateTx loads an event inside the given transaction with a
// row-level lock.  The booking engine takes this lock first so that
// bookings against the same event serialize on the event row while
// bookings for different events proceed independently.
func (r *EventRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
    ev, err := scanEvent(tx.QueryRowContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    return ev, err
}

// ReserveSeatsTx increments booked_seats by qty inside the given
// transaction.  The WHERE clause re-checks capacity and published
// status so the increment can never overcommit even if the caller's
// earlier validation raced; it returns false when no row was updated.
func (r *EventRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, qty uint32) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE events SET booked_seats = booked_seats + ?, updated_at = NOW()
         WHERE id = ? AND status = ? AND booked_seats + ? <= available_seats`,
        qty, eventID, model.EventStatusPublished, qty)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// Update persists organizer-editable fields of an event.  Capacity may
// only grow or shrink down to the seats already booked; the WHERE
// clause refuses a shrink below booked_seats.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE events SET name = ?, description = ?, location = ?, starts_at = ?, available_seats = ?, updated_at = NOW()
         WHERE id = ? AND ? >= booked_seats`,
        ev.Name, ev.Description, ev.Location,
        ev.StartsAt.UTC().Format("2006-01-02 15:04:05"), ev.AvailableSeats,
        ev.ID, ev.AvailableSeats)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

// UpdateStatus transitions an event between lifecycle states.  The
// allowed transitions are validated by the caller; the repository only
// guards against updating a missing row.
func (r *EventRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE events SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrEventNotFound
    }
    return nil
}

// ListPublished returns PUBLISHED events that have not started yet,
// soonest first.  It backs the public browse endpoints.
func (r *EventRepo) ListPublished(ctx context.Context, now time.Time) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+eventColumns+` FROM events
         WHERE status = ? AND starts_at > ?
         ORDER BY starts_at ASC`,
        model.EventStatusPublished, now.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.Event, 0)
    for rows.Next() {
        ev, err := scanEvent(rows.Scan)
        if err != nil {
            return nil, err
        }
        events = append(events, *ev)
    }
    return events, rows.Err()
}

// ListByOrganizer returns all events owned by the organizer, newest
// first, regardless of status.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY created_at DESC`,
        organizerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.Event, 0)
    for rows.Next() {
        ev, err := scanEvent(rows.Scan)
        if err != nil {
            return nil, err
        }
        events = append(events, *ev)
    }
    return events, rows.Err()
}

// SalesSummary aggregates completed transactions for one event.  It is
// used by the organizer dashboard endpoint.
type SalesSummary struct {
    EventID        uint64 `json:"event_id"`
    Transactions   int64  `json:"transactions"`
    TicketsSold    int64  `json:"tickets_sold"`
    GrossAmount    int64  `json:"gross_amount"`
    DiscountAmount int64  `json:"discount_amount"`
    PointsUsed     int64  `json:"points_used"`
    NetAmount      int64  `json:"net_amount"`
}

// GetSalesSummary computes the sales aggregate for an event from its
// completed transactions.
func (r *EventRepo) GetSalesSummary(ctx context.Context, eventID uint64) (*SalesSummary, error) {
    s := &SalesSummary{EventID: eventID}
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(t.id),
                COALESCE(SUM(t.total_amount), 0),
                COALESCE(SUM(t.discount_amount), 0),
                COALESCE(SUM(t.points_used), 0),
                COALESCE(SUM(t.final_amount), 0)
         FROM transactions t
         WHERE t.event_id = ? AND t.status = ?`,
        eventID, model.TransactionStatusCompleted).
        Scan(&s.Transactions, &s.GrossAmount, &s.DiscountAmount, &s.PointsUsed, &s.NetAmount)
    if err != nil {
        return nil, err
    }
    err = r.db.QueryRowContext(ctx,
        `SELECT COALESCE(SUM(ti.quantity), 0)
         FROM transaction_items ti
         JOIN transactions t ON t.id = ti.transaction_id
         WHERE t.event_id = ? AND t.status = ?`,
        eventID, model.TransactionStatusCompleted).Scan(&s.TicketsSold)
    if err != nil {
        return nil, err
    }
    return s, nil
}
