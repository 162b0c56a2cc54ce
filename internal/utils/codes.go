package utils // helpers for generating user-facing codes

import "strings"

// NewReferralCode returns a random 12-character uppercase hex code.
// Each user receives one at registration; other users supply it to
// credit the owner with referral points.  Uniqueness is enforced by
// the database index on users.referral_code.
func NewReferralCode() (string, error) {
    raw, err := randomHex(6) // 6 bytes -> 12 hex chars
    if err != nil {
        return "", err
    }
    return strings.ToUpper(raw), nil
}

// NewCouponCode returns a random coupon code with the given prefix,
// e.g. "WELCOME-3F09A1D4B2C6".  The database index on
// discount_coupons.code guards against the unlikely collision.
func NewCouponCode(prefix string) (string, error) {
    raw, err := randomHex(6)
    if err != nil {
        return "", err
    }
    return prefix + "-" + strings.ToUpper(raw), nil
}
