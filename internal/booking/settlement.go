package booking

import (
    "time"

    "github.com/mixmaxy/event-ticketing/internal/model"
)

// pointsEarnRate is the amount of final charge, in minor currency
// units, that earns one loyalty point.
const pointsEarnRate = 1000

// eventBookable reports whether an event can accept bookings at the
// given instant: it must be PUBLISHED and not yet started.
func eventBookable(ev *model.Event, now time.Time) bool {
    return ev.Status == model.EventStatusPublished && ev.StartsAt.After(now)
}

// couponUsable reports whether a coupon can still be claimed at the
// given instant: never used before and not expired.
func couponUsable(c *model.DiscountCoupon, now time.Time) bool {
    return !c.IsUsed && c.ExpiresAt.After(now)
}

// discountAmount returns the coupon deduction for a percentage coupon
// applied to the gross total.  Integer division truncates, so the
// customer is never over-discounted by rounding.
func discountAmount(total int64, percent int) int64 {
    if total <= 0 || percent <= 0 {
        return 0
    }
    if percent >= 100 {
        return total
    }
    return total * int64(percent) / 100
}

// pointsTarget returns how many points a debit should aim to consume:
// the requested amount clamped to the user's balance and to the amount
// still payable after the discount.  Points never push the final
// amount negative.
func pointsTarget(requested, balance, payable int64) int64 {
    target := requested
    if balance < target {
        target = balance
    }
    if payable < target {
        target = payable
    }
    if target < 0 {
        return 0
    }
    return target
}

// planConsumption walks the user's live grants oldest-first and picks
// the grants to consume for a debit of at most target points.  Grants
// are indivisible, so a grant is taken only when its whole amount
// still fits; the actual debit is the sum of the taken grants and may
// fall short of the target.
func planConsumption(grants []model.Point, target int64) (ids []uint64, used int64) {
    for _, g := range grants {
        if used >= target {
            break
        }
        if g.Amount <= target-used {
            ids = append(ids, g.ID)
            used += g.Amount
        }
    }
    return ids, used
}

// earnedPoints returns the loyalty points credited for a settled
// booking: one point per full pointsEarnRate of the final amount.
func earnedPoints(final int64) int64 {
    if final <= 0 {
        return 0
    }
    return final / pointsEarnRate
}
