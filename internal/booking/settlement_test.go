package booking

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

func TestEventBookable(t *testing.T) {
    now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
    future := now.Add(time.Hour)
    cases := []struct {
        name     string
        status   string
        startsAt time.Time
        want     bool
    }{
        {"published future event", model.EventStatusPublished, future, true},
        {"draft", model.EventStatusDraft, future, false},
        {"cancelled", model.EventStatusCancelled, future, false},
        {"completed", model.EventStatusCompleted, future, false},
        {"already started", model.EventStatusPublished, now.Add(-time.Minute), false},
        {"starting this instant", model.EventStatusPublished, now, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            ev := &model.Event{Status: tc.status, StartsAt: tc.startsAt}
            assert.Equal(t, tc.want, eventBookable(ev, now))
        })
    }
}

func TestCouponUsable(t *testing.T) {
    now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

    fresh := &model.DiscountCoupon{DiscountPercent: 20, ExpiresAt: now.Add(24 * time.Hour)}
    assert.True(t, couponUsable(fresh, now))

    used := &model.DiscountCoupon{IsUsed: true, ExpiresAt: now.Add(24 * time.Hour)}
    assert.False(t, couponUsable(used, now), "a coupon is single-use")

    expired := &model.DiscountCoupon{ExpiresAt: now.Add(-time.Minute)}
    assert.False(t, couponUsable(expired, now))

    expiringNow := &model.DiscountCoupon{ExpiresAt: now}
    assert.False(t, couponUsable(expiringNow, now))
}

func TestDiscountAmount(t *testing.T) {
    cases := []struct {
        name    string
        total   int64
        percent int
        want    int64
    }{
        {"twenty percent of 10000", 10000, 20, 2000},
        {"rounds down", 999, 10, 99},
        {"zero percent", 5000, 0, 0},
        {"negative percent", 5000, -5, 0},
        {"full discount", 5000, 100, 5000},
        {"percent above hundred clamps", 5000, 150, 5000},
        {"zero total", 0, 30, 0},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, discountAmount(tc.total, tc.percent))
        })
    }
}

func TestPointsTarget(t *testing.T) {
    cases := []struct {
        name                        string
        requested, balance, payable int64
        want                        int64
    }{
        {"capped by balance", 8000, 5000, 6000, 5000},
        {"capped by payable", 8000, 9000, 6000, 6000},
        {"request below both", 2000, 5000, 6000, 2000},
        {"zero request", 0, 5000, 6000, 0},
        {"zero payable", 3000, 5000, 0, 0},
        {"negative request", -10, 5000, 6000, 0},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, pointsTarget(tc.requested, tc.balance, tc.payable))
        })
    }
}

func TestPlanConsumption(t *testing.T) {
    grants := func(amounts ...int64) []model.Point {
        out := make([]model.Point, len(amounts))
        for i, a := range amounts {
            out[i] = model.Point{ID: uint64(i + 1), Amount: a}
        }
        return out
    }

    t.Run("consumes oldest first", func(t *testing.T) {
        ids, used := planConsumption(grants(1000, 2000, 3000), 3000)
        assert.Equal(t, []uint64{1, 2}, ids)
        assert.Equal(t, int64(3000), used)
    })

    t.Run("skips grants that do not fit whole", func(t *testing.T) {
        // The 2000 grant exceeds the remaining need after the first
        // grant, so the smaller later grant is taken instead.
        ids, used := planConsumption(grants(1000, 2000, 500), 1600)
        assert.Equal(t, []uint64{1, 3}, ids)
        assert.Equal(t, int64(1500), used)
    })

    t.Run("may fall short of target", func(t *testing.T) {
        ids, used := planConsumption(grants(900, 900), 1000)
        assert.Equal(t, []uint64{1}, ids)
        assert.Equal(t, int64(900), used)
    })

    t.Run("zero target consumes nothing", func(t *testing.T) {
        ids, used := planConsumption(grants(500), 0)
        assert.Empty(t, ids)
        assert.Zero(t, used)
    })

    t.Run("no grants", func(t *testing.T) {
        ids, used := planConsumption(nil, 5000)
        assert.Empty(t, ids)
        assert.Zero(t, used)
    })
}

func TestEarnedPoints(t *testing.T) {
    assert.Equal(t, int64(2), earnedPoints(2500))
    assert.Equal(t, int64(0), earnedPoints(999))
    assert.Equal(t, int64(1), earnedPoints(1000))
    assert.Equal(t, int64(0), earnedPoints(0))
    assert.Equal(t, int64(0), earnedPoints(-100))
}

func TestValidateItems(t *testing.T) {
    assert.ErrorIs(t, validateItems(nil), ErrInvalidQuantity)
    assert.ErrorIs(t, validateItems([]Item{{TicketID: 1, Quantity: 0}}), ErrInvalidQuantity)
    assert.ErrorIs(t, validateItems([]Item{
        {TicketID: 1, Quantity: 1},
        {TicketID: 1, Quantity: 2},
    }), ErrInvalidQuantity)
    assert.NoError(t, validateItems([]Item{
        {TicketID: 1, Quantity: 2},
        {TicketID: 2, Quantity: 1},
    }))
}

func TestCapacityErrorMessage(t *testing.T) {
    err := &CapacityError{TicketID: 7, Requested: 4, Available: 1}
    assert.Contains(t, err.Error(), "ticket 7")
    assert.Contains(t, err.Error(), "requested 4")

    agg := &CapacityError{Requested: 6, Available: 2}
    assert.Contains(t, agg.Error(), "event capacity")
}

func TestPriceIdentityHolds(t *testing.T) {
    // finalAmount = totalAmount - discountAmount - pointsUsed must
    // stay non-negative for every clamp combination.
    totals := []int64{0, 999, 1000, 6000, 10000}
    percents := []int{0, 7, 20, 100}
    balances := []int64{0, 500, 5000, 20000}
    requests := []int64{0, 1000, 8000}
    for _, total := range totals {
        for _, pct := range percents {
            disc := discountAmount(total, pct)
            for _, bal := range balances {
                for _, req := range requests {
                    target := pointsTarget(req, bal, total-disc)
                    final := total - disc - target
                    assert.GreaterOrEqual(t, final, int64(0),
                        "total=%d pct=%d bal=%d req=%d", total, pct, bal, req)
                }
            }
        }
    }
}

func TestGrantExpiryWindow(t *testing.T) {
    now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
    exp := now.AddDate(0, 3, 0)
    assert.Equal(t, time.July, exp.Month())
    assert.True(t, exp.After(now))
}
