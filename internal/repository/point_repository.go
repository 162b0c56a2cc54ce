package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

// PointRepo provides data access to the points table, the append-only
// loyalty ledger.  Grants are never deleted or split: consumption and
// expiry mark the row used.  Every mutation that touches a grant also
// adjusts users.points_balance in the same database transaction, which
// is why the mutating methods take *sql.Tx.
type PointRepo struct {
    db *sql.DB
}

// NewPointRepo returns a new PointRepo bound to the given database.
func NewPointRepo(db *sql.DB) *PointRepo { return &PointRepo{db: db} }

const pointColumns = "id, user_id, amount, earned_by_id, used_by_id, description, is_used, expires_at, created_at"

func scanPoint(scan func(dest ...any) error) (*model.Point, error) {
    var p model.Point
    err := scan(&p.ID, &p.UserID, &p.Amount, &p.EarnedByID, &p.UsedByID,
        &p.Description, &p.IsUsed, &p.ExpiresAt, &p.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// CreateGrantTx appends a grant inside the given transaction and
// populates the generated ID.
func (r *PointRepo) CreateGrantTx(ctx context.Context, tx *sql.Tx, p *model.Point) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO points (user_id, amount, earned_by_id, description, is_used, expires_at)
         VALUES (?, ?, ?, ?, 0, ?)`,
        p.UserID, p.Amount, p.EarnedByID, p.Description,
        p.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// LiveGrantsTx returns the user's unconsumed, unexpired grants inside
// the given transaction, oldest first, locked FOR UPDATE.  A grant
// expiring exactly now is still live.  The booking engine walks this
// list when planning a debit; the locks keep a concurrent expiry sweep
// from consuming the same grants mid-plan.
func (r *PointRepo) LiveGrantsTx(ctx context.Context, tx *sql.Tx, userID uint64, now time.Time) ([]model.Point, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT `+pointColumns+` FROM points
         WHERE user_id = ? AND is_used = 0 AND expires_at >= ?
         ORDER BY created_at ASC, id ASC
         FOR UPDATE`,
        userID, now.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    grants := make([]model.Point, 0)
    for rows.Next() {
        p, err := scanPoint(rows.Scan)
        if err != nil {
            return nil, err
        }
        grants = append(grants, *p)
    }
    return grants, rows.Err()
}

// ConsumeGrantTx marks one grant consumed by the given user inside the
// given transaction.  The WHERE clause re-checks is_used so a grant is
// never consumed twice; it returns false when no row was updated.
func (r *PointRepo) ConsumeGrantTx(ctx context.Context, tx *sql.Tx, grantID, usedByID uint64) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE points SET is_used = 1, used_by_id = ? WHERE id = ? AND is_used = 0`,
        usedByID, grantID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ListByUser returns the user's full ledger, newest first.  It backs
// the points history endpoint.
func (r *PointRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Point, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+pointColumns+` FROM points WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
        userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    grants := make([]model.Point, 0)
    for rows.Next() {
        p, err := scanPoint(rows.Scan)
        if err != nil {
            return nil, err
        }
        grants = append(grants, *p)
    }
    return grants, rows.Err()
}

// ExpiredGrantIDs returns IDs of grants whose expiry has passed but
// that are still marked live.  The expiry sweeper processes each ID in
// its own transaction via ExpireGrant, so one contended grant cannot
// stall the whole sweep.
func (r *PointRepo) ExpiredGrantIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id FROM points WHERE is_used = 0 AND expires_at < ? ORDER BY expires_at ASC LIMIT ?`,
        now.UTC().Format("2006-01-02 15:04:05"), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    ids := make([]uint64, 0)
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// ExpireGrant retires a single expired grant in its own transaction:
// it locks the grant, re-checks that it is still live and past expiry,
// marks it used and deducts its amount from the owner's cached
// balance.  It returns false when the grant was already consumed by a
// racing booking, which is not an error.
func (r *PointRepo) ExpireGrant(ctx context.Context, grantID uint64, now time.Time) (bool, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    p, err := scanPoint(tx.QueryRowContext(ctx,
        `SELECT `+pointColumns+` FROM points WHERE id = ? FOR UPDATE`, grantID).Scan)
    if err != nil {
        return false, err
    }
    // Live means expires_at >= now; only a strictly past expiry
    // retires the grant.
    if p.IsUsed || !p.ExpiresAt.Before(now) {
        return false, nil
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE points SET is_used = 1 WHERE id = ?`, grantID); err != nil {
        return false, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE users SET points_balance = points_balance - ?, updated_at = NOW() WHERE id = ?`,
        p.Amount, p.UserID); err != nil {
        return false, err
    }
    if err := tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return true, nil
}
