package booking

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/mixmaxy/event-ticketing/internal/model"
    "github.com/mixmaxy/event-ticketing/internal/repository"
)

// Item is one requested line: a ticket class and how many to book.
type Item struct {
    TicketID uint64 `json:"ticket_id"`
    Quantity uint32 `json:"quantity"`
}

// Request carries everything the engine needs to settle one booking.
// CouponCode empty means auto-select: the engine applies the user's
// best usable coupon, or none.  PointsToUse is a request, not a
// promise; the debit is capped by the balance and by the amount still
// payable after the discount.
type Request struct {
    UserID      uint64
    EventID     uint64
    Items       []Item
    CouponCode  string
    PointsToUse int64
}

// Result describes a settled booking.
type Result struct {
    Transaction  *model.Transaction
    Items        []model.TransactionItem
    CouponID     uint64 // 0 when no coupon was applied
    PointsEarned int64
}

// Publisher is notified after a booking commits.  Publish failures are
// the publisher's problem; settlement never depends on them.
type Publisher interface {
    PublishTransactionCompleted(r *Result)
}

// Engine settles bookings.  Every attempt runs inside one database
// transaction with locks taken in a fixed order (event row, then user
// row), so concurrent bookings on the same rows serialize instead of
// deadlocking, and bookings on disjoint rows never block each other.
type Engine struct {
    db      *sql.DB
    events  *repository.EventRepo
    tickets *repository.TicketRepo
    users   *repository.UserRepo
    coupons *repository.CouponRepo
    points  *repository.PointRepo
    txns    *repository.TransactionRepo
    pub     Publisher

    now func() time.Time
}

// NewEngine wires an Engine over the given repositories.  pub may be
// nil when no post-commit notification is wanted.
func NewEngine(db *sql.DB, events *repository.EventRepo, tickets *repository.TicketRepo,
    users *repository.UserRepo, coupons *repository.CouponRepo,
    points *repository.PointRepo, txns *repository.TransactionRepo, pub Publisher) *Engine {
    return &Engine{
        db: db, events: events, tickets: tickets, users: users,
        coupons: coupons, points: points, txns: txns, pub: pub,
        now: func() time.Time { return time.Now().UTC() },
    }
}

// BookTickets validates, prices and settles one booking atomically.
// On success the transaction is COMPLETED and durable; on any error
// nothing was persisted.  ErrConflict means the attempt lost a lock
// race and the whole request may be retried.
func (e *Engine) BookTickets(ctx context.Context, req Request) (*Result, error) {
    if err := validateItems(req.Items); err != nil {
        return nil, err
    }

    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := e.settle(ctx, tx, req)
    if err != nil {
        if repository.IsDeadlock(err) {
            return nil, ErrConflict
        }
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        if repository.IsDeadlock(err) {
            return nil, ErrConflict
        }
        return nil, err
    }
    committed = true

    if e.pub != nil {
        e.pub.PublishTransactionCompleted(res)
    }
    return res, nil
}

func validateItems(items []Item) error {
    if len(items) == 0 {
        return ErrInvalidQuantity
    }
    seen := make(map[uint64]bool, len(items))
    for _, it := range items {
        if it.Quantity == 0 || seen[it.TicketID] {
            return ErrInvalidQuantity
        }
        seen[it.TicketID] = true
    }
    return nil
}

// settle runs the whole booking inside tx: reserve inventory, resolve
// the discount, debit points, persist the transaction and credit the
// earned points.  Lock order is event row first, user row second.
func (e *Engine) settle(ctx context.Context, tx *sql.Tx, req Request) (*Result, error) {
    now := e.now()

    ev, err := e.events.GetForUpdateTx(ctx, tx, req.EventID)
    if err != nil {
        // A missing event is not bookable either; the caller does not
        // learn whether the ID ever existed.
        if err == repository.ErrEventNotFound {
            return nil, ErrEventNotBookable
        }
        return nil, err
    }
    if !eventBookable(ev, now) {
        return nil, ErrEventNotBookable
    }

    items, total, _, err := e.reserve(ctx, tx, ev, req.Items)
    if err != nil {
        return nil, err
    }

    user, err := e.users.GetForUpdateTx(ctx, tx, req.UserID)
    if err != nil {
        return nil, err
    }

    discount, couponID, err := e.resolveDiscount(ctx, tx, &user, total, req.CouponCode, now)
    if err != nil {
        return nil, err
    }

    pointsUsed, err := e.debitPoints(ctx, tx, &user, req.PointsToUse, total-discount, now)
    if err != nil {
        return nil, err
    }

    final := total - discount - pointsUsed

    t := &model.Transaction{
        PublicCode:     uuid.NewString(),
        UserID:         req.UserID,
        EventID:        req.EventID,
        TotalAmount:    total,
        DiscountAmount: discount,
        PointsUsed:     pointsUsed,
        FinalAmount:    final,
        Status:         model.TransactionStatusCompleted,
    }
    if err := e.txns.CreateTx(ctx, tx, t); err != nil {
        return nil, err
    }
    for i := range items {
        items[i].TransactionID = t.ID
    }
    if err := e.txns.CreateItemsTx(ctx, tx, items); err != nil {
        return nil, err
    }
    if couponID != 0 {
        if err := e.coupons.LinkTransactionTx(ctx, tx, t.ID, couponID); err != nil {
            return nil, err
        }
    }

    earned := earnedPoints(final)
    if earned > 0 {
        grant := &model.Point{
            UserID:      req.UserID,
            Amount:      earned,
            Description: "booking " + t.PublicCode,
            ExpiresAt:   now.AddDate(0, 3, 0),
        }
        if err := e.points.CreateGrantTx(ctx, tx, grant); err != nil {
            return nil, err
        }
        if ok, err := e.users.AddPointsBalanceTx(ctx, tx, req.UserID, earned); err != nil {
            return nil, err
        } else if !ok {
            return nil, ErrInsufficientFunds
        }
    }

    return &Result{Transaction: t, Items: items, CouponID: couponID, PointsEarned: earned}, nil
}

// reserve checks every requested ticket class against the locked
// event, applies the conditional per-class and per-event increments
// and prices the lines.  A failed increment means capacity ran out.
func (e *Engine) reserve(ctx context.Context, tx *sql.Tx, ev *model.Event, reqItems []Item) ([]model.TransactionItem, int64, uint32, error) {
    tickets, err := e.tickets.ListByEventTx(ctx, tx, ev.ID)
    if err != nil {
        return nil, 0, 0, err
    }
    byID := make(map[uint64]*model.Ticket, len(tickets))
    for i := range tickets {
        byID[tickets[i].ID] = &tickets[i]
    }

    items := make([]model.TransactionItem, 0, len(reqItems))
    var total int64
    var totalQty uint32
    for _, it := range reqItems {
        tk, ok := byID[it.TicketID]
        if !ok {
            return nil, 0, 0, ErrTicketNotFound
        }
        reserved, err := e.tickets.ReserveTx(ctx, tx, tk.ID, it.Quantity)
        if err != nil {
            return nil, 0, 0, err
        }
        if !reserved {
            return nil, 0, 0, &CapacityError{
                TicketID:  tk.ID,
                Requested: it.Quantity,
                Available: tk.Quantity - tk.Sold,
            }
        }
        line := model.TransactionItem{
            TicketID:   tk.ID,
            Quantity:   it.Quantity,
            UnitPrice:  tk.Price,
            TotalPrice: tk.Price * int64(it.Quantity),
        }
        items = append(items, line)
        total += line.TotalPrice
        totalQty += it.Quantity
    }

    reserved, err := e.events.ReserveSeatsTx(ctx, tx, ev.ID, totalQty)
    if err != nil {
        return nil, 0, 0, err
    }
    if !reserved {
        return nil, 0, 0, &CapacityError{
            Requested: totalQty,
            Available: ev.AvailableSeats - ev.BookedSeats,
        }
    }
    return items, total, totalQty, nil
}

// resolveDiscount picks and claims at most one coupon.  An explicit
// code must name a usable coupon owned by the user; with no code the
// best usable coupon is applied automatically, or none.
func (e *Engine) resolveDiscount(ctx context.Context, tx *sql.Tx, user *model.User, total int64, code string, now time.Time) (int64, uint64, error) {
    var coupon *model.DiscountCoupon
    var err error
    if code != "" {
        coupon, err = e.coupons.GetByCodeTx(ctx, tx, user.ID, code)
        if err != nil {
            if err == repository.ErrCouponNotFound {
                return 0, 0, ErrInvalidCoupon
            }
            return 0, 0, err
        }
        if !couponUsable(coupon, now) {
            return 0, 0, ErrInvalidCoupon
        }
    } else {
        coupon, err = e.coupons.BestAvailableTx(ctx, tx, user.ID, now)
        if err != nil {
            return 0, 0, err
        }
        if coupon == nil {
            return 0, 0, nil
        }
    }

    claimed, err := e.coupons.ClaimTx(ctx, tx, coupon.ID, now)
    if err != nil {
        return 0, 0, err
    }
    if !claimed {
        return 0, 0, ErrInvalidCoupon
    }
    return discountAmount(total, coupon.DiscountPercent), coupon.ID, nil
}

// debitPoints consumes live grants oldest-first for at most the
// clamped target and decrements the cached balance by the amount
// actually consumed, keeping cache and ledger in step.
func (e *Engine) debitPoints(ctx context.Context, tx *sql.Tx, user *model.User, requested, payable int64, now time.Time) (int64, error) {
    target := pointsTarget(requested, user.PointsBalance, payable)
    if target == 0 {
        return 0, nil
    }

    grants, err := e.points.LiveGrantsTx(ctx, tx, user.ID, now)
    if err != nil {
        return 0, err
    }
    ids, used := planConsumption(grants, target)
    if used == 0 {
        return 0, nil
    }
    for _, id := range ids {
        ok, err := e.points.ConsumeGrantTx(ctx, tx, id, user.ID)
        if err != nil {
            return 0, err
        }
        if !ok {
            return 0, ErrConflict
        }
    }
    ok, err := e.users.AddPointsBalanceTx(ctx, tx, user.ID, -used)
    if err != nil {
        return 0, err
    }
    if !ok {
        return 0, ErrInsufficientFunds
    }
    return used, nil
}
