package model

import "time"

// Event statuses.  Only PUBLISHED events accept bookings; DRAFT events
// are visible to their organizer only, CANCELLED and COMPLETED events
// are terminal.
const (
    EventStatusDraft     = "DRAFT"
    EventStatusPublished = "PUBLISHED"
    EventStatusCancelled = "CANCELLED"
    EventStatusCompleted = "COMPLETED"
)

// Event represents a bookable event as stored in the `events` table.
// Seat accounting is kept on the event itself: AvailableSeats is the
// venue capacity across all ticket types and BookedSeats is the running
// count of seats sold.  The invariant 0 <= BookedSeats <= AvailableSeats
// is enforced by the booking engine with conditional updates.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizerID    – user who owns and manages the event.
//  Name           – display name of the event.
//  Description    – free-form description.
//  Location       – venue or address text.
//  StartsAt       – when the event starts (UTC).
//  Status         – lifecycle status (DRAFT, PUBLISHED, CANCELLED, COMPLETED).
//  AvailableSeats – total seat capacity of the event.
//  BookedSeats    – seats already reserved across all ticket types.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Event struct {
    ID             uint64    // events.id
    OrganizerID    uint64    // events.organizer_id
    Name           string    // events.name
    Description    string    // events.description
    Location       string    // events.location
    StartsAt       time.Time // events.starts_at
    Status         string    // events.status
    AvailableSeats uint32    // events.available_seats
    BookedSeats    uint32    // events.booked_seats
    CreatedAt      time.Time // events.created_at
    UpdatedAt      time.Time // events.updated_at
}
