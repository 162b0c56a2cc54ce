// Package booking implements the settlement engine that turns a
// booking request into a completed transaction.  All inventory,
// discount and points mutations for one booking happen inside a single
// database transaction, so a booking either settles completely or
// leaves no trace.
package booking

import (
    "errors"
    "fmt"
)

// ErrEventNotBookable is returned when the target event is not in a
// bookable state: not published, already started or cancelled.
var ErrEventNotBookable = errors.New("event is not open for booking")

// ErrTicketNotFound is returned when a requested ticket class does not
// belong to the target event.
var ErrTicketNotFound = errors.New("ticket class not found for event")

// ErrInvalidQuantity is returned when the request contains no items,
// a non-positive quantity or a duplicated ticket class.
var ErrInvalidQuantity = errors.New("invalid booking quantity")

// ErrInvalidCoupon is returned when the named coupon does not exist
// for the user, is already used or has expired.
var ErrInvalidCoupon = errors.New("coupon is not usable")

// ErrInsufficientFunds is returned when the points debit cannot be
// covered by the user's balance.  The engine caps the debit at the
// live balance before planning, so hitting this means the cached
// balance and the ledger disagree.
var ErrInsufficientFunds = errors.New("insufficient points balance")

// ErrConflict is returned when the booking lost a race (deadlock or
// lock wait timeout) and was rolled back by the database.  Nothing was
// persisted; the caller may retry the whole request.
var ErrConflict = errors.New("booking conflicted, retry")

// CapacityError reports a reservation that would exceed capacity.
// TicketID names the exhausted ticket class; a zero TicketID means the
// event-level seat total was the limit.
type CapacityError struct {
    TicketID  uint64
    Requested uint32
    Available uint32
}

func (e *CapacityError) Error() string {
    if e.TicketID == 0 {
        return fmt.Sprintf("event capacity exceeded: requested %d, available %d", e.Requested, e.Available)
    }
    return fmt.Sprintf("ticket %d capacity exceeded: requested %d, available %d", e.TicketID, e.Requested, e.Available)
}
