package booking

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/mixmaxy/event-ticketing/internal/model"
    "github.com/mixmaxy/event-ticketing/internal/repository"
)

var engineNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

// Statement fragments the engine issues, in settlement order.
var (
    lockEventSQL     = regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")
    listTicketsSQL   = regexp.QuoteMeta("FROM tickets WHERE event_id = ?")
    reserveTicketSQL = regexp.QuoteMeta("UPDATE tickets SET sold = sold + ?")
    reserveSeatsSQL  = regexp.QuoteMeta("UPDATE events SET booked_seats = booked_seats + ?")
    lockUserSQL      = regexp.QuoteMeta("FROM users WHERE id=? FOR UPDATE")
    couponByCodeSQL  = regexp.QuoteMeta("WHERE code = ? AND user_id = ?")
    bestCouponSQL    = regexp.QuoteMeta("WHERE user_id = ? AND is_used = 0 AND expires_at > ?")
    claimCouponSQL   = regexp.QuoteMeta("UPDATE discount_coupons SET is_used = 1")
    insertTxnSQL     = regexp.QuoteMeta("INSERT INTO transactions (")
    insertItemsSQL   = regexp.QuoteMeta("INSERT INTO transaction_items")
    insertGrantSQL   = regexp.QuoteMeta("INSERT INTO points")
    addBalanceSQL    = regexp.QuoteMeta("UPDATE users SET points_balance")
)

type capturePublisher struct {
    published *Result
}

func (p *capturePublisher) PublishTransactionCompleted(r *Result) { p.published = r }

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, *capturePublisher) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    pub := &capturePublisher{}
    eng := NewEngine(db,
        repository.NewEventRepo(db),
        repository.NewTicketRepo(db),
        repository.NewUserRepo(db),
        repository.NewCouponRepo(db),
        repository.NewPointRepo(db),
        repository.NewTransactionRepo(db),
        pub)
    eng.now = func() time.Time { return engineNow }
    return eng, mock, pub
}

func eventRow(status string, startsAt time.Time, available, booked uint32) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "organizer_id", "name", "description", "location",
        "starts_at", "status", "available_seats", "booked_seats", "created_at", "updated_at"}).
        AddRow(9, 1, "Open Air", "", "Berlin", startsAt, status, available, booked, engineNow, engineNow)
}

func ticketRow(id uint64, price int64, quantity, sold uint32) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "event_id", "type", "price", "quantity", "sold",
        "created_at", "updated_at"}).
        AddRow(id, 9, model.TicketTypeRegular, price, quantity, sold, engineNow, engineNow)
}

func userRow(balance int64) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "points_balance",
        "referral_code", "is_active", "created_at", "updated_at"}).
        AddRow(42, "jane@example.com", "x", model.RoleCustomer, balance, "AB12CD34EF56", true,
            engineNow, engineNow)
}

func couponRow(id uint64, percent int, used bool, expiresAt time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "code", "discount_percent", "is_used",
        "expires_at", "created_at"}).
        AddRow(id, 42, "SAVE20", percent, used, expiresAt, engineNow)
}

func TestBookTicketsRejectsDraftEvent(t *testing.T) {
    eng, mock, pub := newTestEngine(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockEventSQL).
        WillReturnRows(eventRow(model.EventStatusDraft, engineNow.Add(48*time.Hour), 100, 0))
    mock.ExpectRollback()

    res, err := eng.BookTickets(context.Background(), Request{
        UserID: 42, EventID: 9, Items: []Item{{TicketID: 4, Quantity: 2}},
    })
    assert.Nil(t, res)
    assert.ErrorIs(t, err, ErrEventNotBookable)
    assert.Nil(t, pub.published)
    // No reservation or insert may run against a DRAFT event.
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTicketsMissingEventNotBookable(t *testing.T) {
    eng, mock, _ := newTestEngine(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockEventSQL).WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    _, err := eng.BookTickets(context.Background(), Request{
        UserID: 42, EventID: 404, Items: []Item{{TicketID: 4, Quantity: 1}},
    })
    assert.ErrorIs(t, err, ErrEventNotBookable)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTicketsCapacitySoldOut(t *testing.T) {
    // Two customers race for the last seats of a class; the loser's
    // conditional increment matches no row and the whole attempt rolls
    // back with nothing persisted.
    eng, mock, pub := newTestEngine(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockEventSQL).
        WillReturnRows(eventRow(model.EventStatusPublished, engineNow.Add(48*time.Hour), 10, 8))
    mock.ExpectQuery(listTicketsSQL).WillReturnRows(ticketRow(4, 5000, 10, 8))
    mock.ExpectExec(reserveTicketSQL).WithArgs(4, 4, 4).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    res, err := eng.BookTickets(context.Background(), Request{
        UserID: 42, EventID: 9, Items: []Item{{TicketID: 4, Quantity: 4}},
    })
    assert.Nil(t, res)
    assert.Nil(t, pub.published)

    var capErr *CapacityError
    require.ErrorAs(t, err, &capErr)
    assert.Equal(t, uint64(4), capErr.TicketID)
    assert.Equal(t, uint32(4), capErr.Requested)
    assert.Equal(t, uint32(2), capErr.Available)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTicketsCouponSecondUseFails(t *testing.T) {
    // The coupon was consumed by an earlier booking; replaying the same
    // code must fail and leave no partial state behind.
    eng, mock, _ := newTestEngine(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockEventSQL).
        WillReturnRows(eventRow(model.EventStatusPublished, engineNow.Add(48*time.Hour), 100, 2))
    mock.ExpectQuery(listTicketsSQL).WillReturnRows(ticketRow(4, 5000, 10, 2))
    mock.ExpectExec(reserveTicketSQL).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(reserveSeatsSQL).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(0))
    mock.ExpectQuery(couponByCodeSQL).
        WillReturnRows(couponRow(5, 20, true, engineNow.Add(24*time.Hour)))
    mock.ExpectRollback()

    _, err := eng.BookTickets(context.Background(), Request{
        UserID: 42, EventID: 9,
        Items:      []Item{{TicketID: 4, Quantity: 2}},
        CouponCode: "SAVE20",
    })
    assert.ErrorIs(t, err, ErrInvalidCoupon)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTicketsCouponClaimRaceFails(t *testing.T) {
    // The coupon still reads as usable, but a concurrent booking claims
    // it first: the conditional claim matches no row.
    eng, mock, _ := newTestEngine(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockEventSQL).
        WillReturnRows(eventRow(model.EventStatusPublished, engineNow.Add(48*time.Hour), 100, 2))
    mock.ExpectQuery(listTicketsSQL).WillReturnRows(ticketRow(4, 5000, 10, 2))
    mock.ExpectExec(reserveTicketSQL).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(reserveSeatsSQL).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(0))
    mock.ExpectQuery(couponByCodeSQL).
        WillReturnRows(couponRow(5, 20, false, engineNow.Add(24*time.Hour)))
    mock.ExpectExec(claimCouponSQL).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    _, err := eng.BookTickets(context.Background(), Request{
        UserID: 42, EventID: 9,
        Items:      []Item{{TicketID: 4, Quantity: 2}},
        CouponCode: "SAVE20",
    })
    assert.ErrorIs(t, err, ErrInvalidCoupon)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTicketsSettlesAndPublishes(t *testing.T) {
    eng, mock, pub := newTestEngine(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockEventSQL).
        WillReturnRows(eventRow(model.EventStatusPublished, engineNow.Add(48*time.Hour), 100, 0))
    mock.ExpectQuery(listTicketsSQL).WillReturnRows(ticketRow(4, 5000, 10, 0))
    mock.ExpectExec(reserveTicketSQL).WithArgs(2, 4, 2).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(reserveSeatsSQL).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(lockUserSQL).WillReturnRows(userRow(0))
    mock.ExpectQuery(bestCouponSQL).WillReturnError(sql.ErrNoRows)
    mock.ExpectExec(insertTxnSQL).WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectExec(insertItemsSQL).WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectExec(insertGrantSQL).WillReturnResult(sqlmock.NewResult(3, 1))
    mock.ExpectExec(addBalanceSQL).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    res, err := eng.BookTickets(context.Background(), Request{
        UserID: 42, EventID: 9, Items: []Item{{TicketID: 4, Quantity: 2}},
    })
    require.NoError(t, err)
    require.NotNil(t, res)

    assert.Equal(t, int64(10000), res.Transaction.TotalAmount)
    assert.Equal(t, int64(10000), res.Transaction.FinalAmount)
    assert.Equal(t, model.TransactionStatusCompleted, res.Transaction.Status)
    assert.NotEmpty(t, res.Transaction.PublicCode)
    assert.Equal(t, int64(10), res.PointsEarned)
    require.Len(t, res.Items, 1)
    assert.Equal(t, uint64(7), res.Items[0].TransactionID)

    assert.Same(t, res, pub.published)
    assert.NoError(t, mock.ExpectationsWereMet())
}
