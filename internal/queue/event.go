// Package queue defines message payloads exchanged over the message broker.
package queue

// TransactionCompletedEvent is published after a booking settles and
// commits. It carries enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type TransactionCompletedEvent struct {
    TransactionID   uint64 `json:"transaction_id"`
    TransactionCode string `json:"transaction_code"`
    UserID          uint64 `json:"user_id"`
    EventID         uint64 `json:"event_id"`
    TicketCount     uint32 `json:"ticket_count"`
    TotalAmount     int64  `json:"total_amount"`
    DiscountAmount  int64  `json:"discount_amount"`
    PointsUsed      int64  `json:"points_used"`
    FinalAmount     int64  `json:"final_amount"`
    PointsEarned    int64  `json:"points_earned"`
    CompletedAt     string `json:"completed_at"`
}
