package model

import "time"

// DiscountCoupon is a single-use percentage discount owned by one user,
// stored in `discount_coupons`.  A coupon is usable while IsUsed is
// false and ExpiresAt is in the future; the transition to used happens
// exactly once, inside the booking transaction that consumes it.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – owner of the coupon.
//  Code            – globally unique coupon code.
//  DiscountPercent – percentage discount, 1..100.
//  IsUsed          – whether the coupon has been consumed.
//  ExpiresAt       – expiry timestamp (UTC).
//  CreatedAt       – creation timestamp.
type DiscountCoupon struct {
    ID              uint64    // discount_coupons.id
    UserID          uint64    // discount_coupons.user_id
    Code            string    // discount_coupons.code
    DiscountPercent int       // discount_coupons.discount_percent
    IsUsed          bool      // discount_coupons.is_used
    ExpiresAt       time.Time // discount_coupons.expires_at
    CreatedAt       time.Time // discount_coupons.created_at
}

// TransactionCoupon links a consumed coupon to the transaction it
// settled.  Current policy allows at most one coupon per transaction.
//
// Fields:
//  ID            – primary key identifier.
//  TransactionID – transaction the coupon was applied to.
//  CouponID      – coupon that was consumed.
//  CreatedAt     – creation timestamp.
type TransactionCoupon struct {
    ID            uint64    // transaction_coupons.id
    TransactionID uint64    // transaction_coupons.transaction_id
    CouponID      uint64    // transaction_coupons.coupon_id
    CreatedAt     time.Time // transaction_coupons.created_at
}
