package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

// ErrTransactionNotFound is returned when a transaction does not exist
// or does not belong to the requesting user.
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepo provides data access to the transactions and
// transaction_items tables.  Writes only ever happen inside a booking
// transaction, so creation methods all take *sql.Tx.
type TransactionRepo struct {
    db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given
// database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = "id, public_code, user_id, event_id, total_amount, discount_amount, points_used, final_amount, status, created_at, updated_at"

func scanTransaction(scan func(dest ...any) error) (*model.Transaction, error) {
    var t model.Transaction
    err := scan(&t.ID, &t.PublicCode, &t.UserID, &t.EventID, &t.TotalAmount,
        &t.DiscountAmount, &t.PointsUsed, &t.FinalAmount, &t.Status,
        &t.CreatedAt, &t.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// CreateTx inserts the transaction header inside the given transaction
// and populates the generated ID.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO transactions (public_code, user_id, event_id, total_amount, discount_amount, points_used, final_amount, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        t.PublicCode, t.UserID, t.EventID, t.TotalAmount, t.DiscountAmount,
        t.PointsUsed, t.FinalAmount, t.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// CreateItemsTx bulk-inserts the transaction lines inside the given
// transaction with a single multi-row INSERT.
func (r *TransactionRepo) CreateItemsTx(ctx context.Context, tx *sql.Tx, items []model.TransactionItem) error {
    if len(items) == 0 {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO transaction_items (transaction_id, ticket_id, quantity, unit_price, total_price) VALUES `)
    args := make([]any, 0, len(items)*5)
    for i, it := range items {
        if i > 0 {
            sb.WriteString(", ")
        }
        sb.WriteString("(?, ?, ?, ?, ?)")
        args = append(args, it.TransactionID, it.TicketID, it.Quantity, it.UnitPrice, it.TotalPrice)
    }
    _, err := tx.ExecContext(ctx, sb.String(), args...)
    return err
}

// GetByIDForUser returns one transaction with its items, scoped to the
// owning user so customers can never read each other's bookings.
func (r *TransactionRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Transaction, []model.TransactionItem, error) {
    t, err := scanTransaction(r.db.QueryRowContext(ctx,
        `SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
        id, userID).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil, ErrTransactionNotFound
    }
    if err != nil {
        return nil, nil, err
    }
    items, err := r.itemsFor(ctx, []uint64{t.ID})
    if err != nil {
        return nil, nil, err
    }
    return t, items[t.ID], nil
}

// TransactionWithItems pairs a transaction header with its lines for
// list responses.
type TransactionWithItems struct {
    Transaction model.Transaction
    Items       []model.TransactionItem
}

// ListByUser returns the user's transactions, newest first, each with
// its items.  Items are fetched in one extra query and joined in
// memory, which keeps the listing at two round trips regardless of
// transaction count.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64) ([]TransactionWithItems, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
        userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]TransactionWithItems, 0)
    ids := make([]uint64, 0)
    for rows.Next() {
        t, err := scanTransaction(rows.Scan)
        if err != nil {
            return nil, err
        }
        out = append(out, TransactionWithItems{Transaction: *t})
        ids = append(ids, t.ID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(ids) == 0 {
        return out, nil
    }
    itemsByTx, err := r.itemsFor(ctx, ids)
    if err != nil {
        return nil, err
    }
    for i := range out {
        out[i].Items = itemsByTx[out[i].Transaction.ID]
    }
    return out, nil
}

func (r *TransactionRepo) itemsFor(ctx context.Context, txIDs []uint64) (map[uint64][]model.TransactionItem, error) {
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(txIDs)), ",")
    args := make([]any, len(txIDs))
    for i, id := range txIDs {
        args[i] = id
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, transaction_id, ticket_id, quantity, unit_price, total_price, created_at
         FROM transaction_items WHERE transaction_id IN (`+placeholders+`) ORDER BY id ASC`,
        args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    byTx := make(map[uint64][]model.TransactionItem, len(txIDs))
    for rows.Next() {
        var it model.TransactionItem
        if err := rows.Scan(&it.ID, &it.TransactionID, &it.TicketID, &it.Quantity,
            &it.UnitPrice, &it.TotalPrice, &it.CreatedAt); err != nil {
            return nil, err
        }
        byTx[it.TransactionID] = append(byTx[it.TransactionID], it)
    }
    return byTx, rows.Err()
}
