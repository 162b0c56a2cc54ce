package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/mixmaxy/event-ticketing/internal/booking"
    "github.com/mixmaxy/event-ticketing/internal/model"
)

// stubEngine satisfies BookingEngine with a canned result or error.
type stubEngine struct {
    gotReq booking.Request
    res    *booking.Result
    err    error
}

func (s *stubEngine) BookTickets(_ context.Context, req booking.Request) (*booking.Result, error) {
    s.gotReq = req
    if s.err != nil {
        return nil, s.err
    }
    return s.res, nil
}

func newBookContext(t *testing.T, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", userID)
    return c, rec
}

func TestBookSuccess(t *testing.T) {
    stub := &stubEngine{
        res: &booking.Result{
            Transaction: &model.Transaction{
                PublicCode:     "abc-123",
                EventID:        9,
                TotalAmount:    10000,
                DiscountAmount: 2000,
                PointsUsed:     500,
                FinalAmount:    7500,
                Status:         model.TransactionStatusCompleted,
            },
            Items: []model.TransactionItem{
                {TicketID: 4, Quantity: 2, UnitPrice: 5000, TotalPrice: 10000},
            },
            PointsEarned: 7,
        },
    }
    h := &BookingHandler{Engine: stub}

    body := `{"event_id":9,"items":[{"ticket_id":4,"quantity":2}],"coupon_code":"SAVE20","points_to_use":500}`
    c, rec := newBookContext(t, body, 42)

    assert.NoError(t, h.Book(c))
    assert.Equal(t, http.StatusCreated, rec.Code)

    // The request must be forwarded with the authenticated user, never
    // a user id from the body.
    assert.Equal(t, uint64(42), stub.gotReq.UserID)
    assert.Equal(t, uint64(9), stub.gotReq.EventID)
    assert.Equal(t, "SAVE20", stub.gotReq.CouponCode)
    assert.Equal(t, int64(500), stub.gotReq.PointsToUse)

    var resp transactionResp
    assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "abc-123", resp.Code)
    assert.Equal(t, int64(7500), resp.FinalAmount)
    assert.Equal(t, resp.TotalAmount-resp.DiscountAmount-resp.PointsUsed, resp.FinalAmount)
    assert.Equal(t, int64(7), resp.PointsEarned)
    assert.Len(t, resp.Items, 1)
}

func TestBookValidation(t *testing.T) {
    h := &BookingHandler{Engine: &stubEngine{}}

    t.Run("missing event id", func(t *testing.T) {
        c, rec := newBookContext(t, `{"items":[{"ticket_id":1,"quantity":1}]}`, 42)
        assert.NoError(t, h.Book(c))
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })

    t.Run("negative points", func(t *testing.T) {
        c, rec := newBookContext(t, `{"event_id":1,"items":[{"ticket_id":1,"quantity":1}],"points_to_use":-5}`, 42)
        assert.NoError(t, h.Book(c))
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })

    t.Run("no identity", func(t *testing.T) {
        c, rec := newBookContext(t, `{"event_id":1}`, 0)
        c.Set("user_id", nil)
        assert.NoError(t, h.Book(c))
        assert.Equal(t, http.StatusUnauthorized, rec.Code)
    })
}

func TestBookErrorMapping(t *testing.T) {
    cases := []struct {
        name string
        err  error
        code int
    }{
        {"event not bookable", booking.ErrEventNotBookable, http.StatusConflict},
        {"ticket not found", booking.ErrTicketNotFound, http.StatusNotFound},
        {"invalid quantity", booking.ErrInvalidQuantity, http.StatusBadRequest},
        {"invalid coupon", booking.ErrInvalidCoupon, http.StatusBadRequest},
        {"insufficient points", booking.ErrInsufficientFunds, http.StatusBadRequest},
        {"lost race", booking.ErrConflict, http.StatusConflict},
        {"capacity", &booking.CapacityError{TicketID: 4, Requested: 2, Available: 0}, http.StatusConflict},
        {"unknown", assert.AnError, http.StatusInternalServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            h := &BookingHandler{Engine: &stubEngine{err: tc.err}}
            c, rec := newBookContext(t, `{"event_id":9,"items":[{"ticket_id":4,"quantity":2}]}`, 42)
            assert.NoError(t, h.Book(c))
            assert.Equal(t, tc.code, rec.Code)
        })
    }
}

func TestBookCapacityPayload(t *testing.T) {
    h := &BookingHandler{Engine: &stubEngine{err: &booking.CapacityError{TicketID: 4, Requested: 2, Available: 1}}}
    c, rec := newBookContext(t, `{"event_id":9,"items":[{"ticket_id":4,"quantity":2}]}`, 42)
    assert.NoError(t, h.Book(c))
    assert.Equal(t, http.StatusConflict, rec.Code)

    var resp map[string]any
    assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.EqualValues(t, 4, resp["ticket_id"])
    assert.EqualValues(t, 2, resp["requested"])
    assert.EqualValues(t, 1, resp["available"])
}
