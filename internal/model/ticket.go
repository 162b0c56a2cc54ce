package model

import "time"

// Ticket types supported per event.
const (
    TicketTypeRegular   = "REGULAR"
    TicketTypeVIP       = "VIP"
    TicketTypeEarlyBird = "EARLY_BIRD"
)

// Ticket is a sellable ticket class belonging to one event, stored in
// the `tickets` table.  Price is an integer amount in minor currency
// units.  Quantity is the sellable capacity of this class and Sold the
// number already reserved; 0 <= Sold <= Quantity always holds because
// reservations go through a conditional increment.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event this ticket class belongs to.
//  Type      – ticket class (REGULAR, VIP, EARLY_BIRD).
//  Price     – unit price in minor currency units.
//  Quantity  – sellable capacity of this class.
//  Sold      – tickets already sold.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Ticket struct {
    ID        uint64    // tickets.id
    EventID   uint64    // tickets.event_id
    Type      string    // tickets.type
    Price     int64     // tickets.price
    Quantity  uint32    // tickets.quantity
    Sold      uint32    // tickets.sold
    CreatedAt time.Time // tickets.created_at
    UpdatedAt time.Time // tickets.updated_at
}
