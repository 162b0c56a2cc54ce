package model

import "time"

// Point is a single grant in the append-only loyalty ledger, stored in
// the `points` table.  A user's balance is the sum of their live
// grants (IsUsed false, not expired).  Grants are indivisible: a
// debit consumes whole grants oldest-first and never splits one.
// Consumption and expiry both mark the grant used rather than deleting
// it, so the ledger keeps full history.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the grant.
//  Amount      – number of points granted.
//  EarnedByID  – user the grant was earned through (referral), if any.
//  UsedByID    – user who consumed the grant, set when IsUsed is true.
//  Description – human-readable origin of the grant.
//  IsUsed      – whether the grant has been consumed or expired.
//  ExpiresAt   – expiry timestamp (UTC).
//  CreatedAt   – creation timestamp; debit order is oldest first.
type Point struct {
    ID          uint64     // points.id
    UserID      uint64     // points.user_id
    Amount      int64      // points.amount
    EarnedByID  *uint64    // points.earned_by_id (nullable)
    UsedByID    *uint64    // points.used_by_id (nullable)
    Description string     // points.description
    IsUsed      bool       // points.is_used
    ExpiresAt   time.Time  // points.expires_at
    CreatedAt   time.Time  // points.created_at
}
