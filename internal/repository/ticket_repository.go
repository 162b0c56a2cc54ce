package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

// ErrTicketNotFound is returned when a ticket class does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides data access to the tickets table.  The *Tx
// methods run inside a caller-supplied transaction; the booking engine
// uses them after it has locked the parent event row, so all reads and
// conditional increments on a ticket class happen under that lock.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = "id, event_id, type, price, quantity, sold, created_at, updated_at"

func scanTicket(scan func(dest ...any) error) (*model.Ticket, error) {
    var t model.Ticket
    err := scan(&t.ID, &t.EventID, &t.Type, &t.Price, &t.Quantity, &t.Sold,
        &t.CreatedAt, &t.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// Create inserts a new ticket class for an event and populates the
// generated ID.  The unique index on (event_id, type) keeps one row
// per class; a duplicate insert surfaces as ErrConflict.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO tickets (event_id, type, price, quantity, sold) VALUES (?, ?, ?, ?, 0)`,
        t.EventID, t.Type, t.Price, t.Quantity)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// GetByID returns one ticket class or ErrTicketNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
    t, err := scanTicket(r.db.QueryRowContext(ctx,
        `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrTicketNotFound
    }
    return t, err
}

// ListByEvent returns all ticket classes of an event ordered by price.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
    return r.listByEvent(ctx, r.db.QueryContext, eventID)
}

// ListByEventTx is ListByEvent inside the given transaction.  Because
// the booking engine holds the event row lock at this point, the sold
// counters read here cannot be changed by a concurrent booking of the
// same event until the transaction ends.
func (r *TicketRepo) ListByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.Ticket, error) {
    return r.listByEvent(ctx, tx.QueryContext, eventID)
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *TicketRepo) listByEvent(ctx context.Context, query queryFunc, eventID uint64) ([]model.Ticket, error) {
    rows, err := query(ctx,
        `SELECT `+ticketColumns+` FROM tickets WHERE event_id = ? ORDER BY price ASC, id ASC`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tickets := make([]model.Ticket, 0)
    for rows.Next() {
        t, err := scanTicket(rows.Scan)
        if err != nil {
            return nil, err
        }
        tickets = append(tickets, *t)
    }
    return tickets, rows.Err()
}

// ReserveTx increments sold by qty inside the given transaction.  The
// WHERE clause re-checks the class capacity so the increment can never
// oversell; it returns false when no row was updated.
func (r *TicketRepo) ReserveTx(ctx context.Context, tx *sql.Tx, ticketID uint64, qty uint32) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE tickets SET sold = sold + ?, updated_at = NOW()
         WHERE id = ? AND sold + ? <= quantity`,
        qty, ticketID, qty)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// Update changes price and quantity of a ticket class.  Quantity may
// not shrink below the tickets already sold; such an update affects no
// row and returns ErrConflict.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE tickets SET price = ?, quantity = ?, updated_at = NOW()
         WHERE id = ? AND ? >= sold`,
        t.Price, t.Quantity, t.ID, t.Quantity)
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

// Delete removes a ticket class that has no sales yet.  A class with
// sold tickets is kept for transaction history and returns ErrConflict.
func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        `DELETE FROM tickets WHERE id = ? AND sold = 0`, id)
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
