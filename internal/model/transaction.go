package model

import "time"

// Transaction statuses.  Bookings settle synchronously, so new
// transactions are written as COMPLETED; CANCELLED and REFUNDED exist
// for later status transitions handled outside the booking engine.
const (
    TransactionStatusPending   = "PENDING"
    TransactionStatusCompleted = "COMPLETED"
    TransactionStatusCancelled = "CANCELLED"
    TransactionStatusRefunded  = "REFUNDED"
)

// Transaction records a settled booking for one user and one event.
// All amounts are integer minor currency units and satisfy
// FinalAmount = TotalAmount - DiscountAmount - PointsUsed, with
// FinalAmount >= 0.  A transaction and its items are created together
// in one database transaction and are immutable once COMPLETED.
//
// Fields:
//  ID             – primary key identifier.
//  PublicCode     – opaque reference code returned to clients.
//  UserID         – customer who booked.
//  EventID        – event the tickets belong to.
//  TotalAmount    – gross amount before any deduction.
//  DiscountAmount – coupon deduction applied.
//  PointsUsed     – loyalty points redeemed against the amount.
//  FinalAmount    – amount actually charged.
//  Status         – transaction status.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Transaction struct {
    ID             uint64    // transactions.id
    PublicCode     string    // transactions.public_code
    UserID         uint64    // transactions.user_id
    EventID        uint64    // transactions.event_id
    TotalAmount    int64     // transactions.total_amount
    DiscountAmount int64     // transactions.discount_amount
    PointsUsed     int64     // transactions.points_used
    FinalAmount    int64     // transactions.final_amount
    Status         string    // transactions.status
    CreatedAt      time.Time // transactions.created_at
    UpdatedAt      time.Time // transactions.updated_at
}

// TransactionItem is one line of a transaction, referencing a ticket
// class with the quantity bought and the unit price snapshotted at
// booking time.  TotalPrice = UnitPrice * Quantity.  Items are created
// once and never mutated.
//
// Fields:
//  ID            – primary key identifier.
//  TransactionID – owning transaction.
//  TicketID      – ticket class purchased.
//  Quantity      – number of tickets in this line (>= 1).
//  UnitPrice     – ticket price at booking time.
//  TotalPrice    – UnitPrice multiplied by Quantity.
//  CreatedAt     – creation timestamp.
type TransactionItem struct {
    ID            uint64    // transaction_items.id
    TransactionID uint64    // transaction_items.transaction_id
    TicketID      uint64    // transaction_items.ticket_id
    Quantity      uint32    // transaction_items.quantity
    UnitPrice     int64     // transaction_items.unit_price
    TotalPrice    int64     // transaction_items.total_price
    CreatedAt     time.Time // transaction_items.created_at
}
