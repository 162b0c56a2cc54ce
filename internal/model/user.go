package model

import "time"

// Roles recognized by the role middleware.
const (
    RoleCustomer  = "CUSTOMER"
    RoleOrganizer = "ORGANIZER"
    RoleAdmin     = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  PointsBalance is a denormalized cache of the sum of
// the user's live point grants; it is only ever updated inside the
// same database transaction as the grants themselves, so the cache and
// the ledger can never drift.  ReferralCode is the code other users
// supply at registration to credit this user with referral points.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  Role          – role name (CUSTOMER, ORGANIZER or ADMIN).
//  PointsBalance – cached sum of live point grants.
//  ReferralCode  – unique code used by others to credit referrals.
//  IsActive      – whether the account is active.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
    ID            uint64    // users.id
    Email         string    // users.email
    PasswordHash  string    // users.password_hash
    Role          string    // users.role
    PointsBalance int64     // users.points_balance
    ReferralCode  string    // users.referral_code
    IsActive      bool      // users.is_active
    CreatedAt     time.Time // users.created_at
    UpdatedAt     time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
