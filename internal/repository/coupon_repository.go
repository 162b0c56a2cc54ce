package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

// ErrCouponNotFound is returned when a coupon code does not exist or
// is not owned by the requesting user.
var ErrCouponNotFound = errors.New("coupon not found")

// CouponRepo provides data access to the discount_coupons and
// transaction_coupons tables.  The claim is a conditional update, so a
// coupon can only ever be consumed once even when two bookings race
// for it.
type CouponRepo struct {
    db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

const couponColumns = "id, user_id, code, discount_percent, is_used, expires_at, created_at"

func scanCoupon(scan func(dest ...any) error) (*model.DiscountCoupon, error) {
    var c model.DiscountCoupon
    err := scan(&c.ID, &c.UserID, &c.Code, &c.DiscountPercent, &c.IsUsed,
        &c.ExpiresAt, &c.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// Create issues a new coupon and populates the generated ID.
func (r *CouponRepo) Create(ctx context.Context, c *model.DiscountCoupon) error {
    return r.create(ctx, r.db.ExecContext, c)
}

// CreateTx is Create inside the given transaction; the referral flow
// issues the welcome coupon together with the new user row.
func (r *CouponRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.DiscountCoupon) error {
    return r.create(ctx, tx.ExecContext, c)
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *CouponRepo) create(ctx context.Context, exec execFunc, c *model.DiscountCoupon) error {
    res, err := exec(ctx,
        `INSERT INTO discount_coupons (user_id, code, discount_percent, is_used, expires_at)
         VALUES (?, ?, ?, 0, ?)`,
        c.UserID, c.Code, c.DiscountPercent, c.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
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
    c.ID = uint64(id)
    return nil
}

// ListByUser returns all of the user's coupons, unused first, then
// newest first.
func (r *CouponRepo) ListByUser(ctx context.Context, userID uint64) ([]model.DiscountCoupon, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+couponColumns+` FROM discount_coupons WHERE user_id = ?
         ORDER BY is_used ASC, created_at DESC, id DESC`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    coupons := make([]model.DiscountCoupon, 0)
    for rows.Next() {
        c, err := scanCoupon(rows.Scan)
        if err != nil {
            return nil, err
        }
        coupons = append(coupons, *c)
    }
    return coupons, rows.Err()
}

// GetByCodeTx loads a coupon by its code inside the given transaction,
// scoped to the owning user.  A code that exists but belongs to someone
// else is reported the same as a missing one so the response does not
// leak other users' coupons.
func (r *CouponRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, userID uint64, code string) (*model.DiscountCoupon, error) {
    c, err := scanCoupon(tx.QueryRowContext(ctx,
        `SELECT `+couponColumns+` FROM discount_coupons WHERE code = ? AND user_id = ?`,
        strings.TrimSpace(code), userID).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrCouponNotFound
    }
    return c, err
}

// BestAvailableTx returns the user's best usable coupon at the given
// instant, or nil when none is usable.  Best means highest discount
// percent; ties go to the oldest coupon, then the lowest ID, so the
// choice is deterministic.
func (r *CouponRepo) BestAvailableTx(ctx context.Context, tx *sql.Tx, userID uint64, now time.Time) (*model.DiscountCoupon, error) {
    c, err := scanCoupon(tx.QueryRowContext(ctx,
        `SELECT `+couponColumns+` FROM discount_coupons
         WHERE user_id = ? AND is_used = 0 AND expires_at > ?
         ORDER BY discount_percent DESC, created_at ASC, id ASC
         LIMIT 1`,
        userID, now.UTC().Format("2006-01-02 15:04:05")).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return c, err
}

// ClaimTx marks a coupon used inside the given transaction.  The WHERE
// clause re-checks that the coupon is still unused and unexpired, so
// of two racing bookings only one can claim it; it returns false when
// no row was updated.
func (r *CouponRepo) ClaimTx(ctx context.Context, tx *sql.Tx, couponID uint64, now time.Time) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE discount_coupons SET is_used = 1
         WHERE id = ? AND is_used = 0 AND expires_at > ?`,
        couponID, now.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// LinkTransactionTx records which transaction consumed the coupon.
func (r *CouponRepo) LinkTransactionTx(ctx context.Context, tx *sql.Tx, transactionID, couponID uint64) error {
    _, err := tx.ExecContext(ctx,
        `INSERT INTO transaction_coupons (transaction_id, coupon_id) VALUES (?, ?)`,
        transactionID, couponID)
    return err
}
