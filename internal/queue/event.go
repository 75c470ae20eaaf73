// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/arenalive/ticketgate/internal/model"

// OrderCompletedEvent is published exactly once per successful checkout
// confirmation. It carries everything the fulfillment side needs for
// ticket/QR issuance, inventory decrement and receipt email, without
// querying the primary database.
type OrderCompletedEvent struct {
    OrderID         uint64                         `json:"order_id"`
    EventID         string                         `json:"event_id"`
    SessionID       string                         `json:"session_id"`
    Tickets         []model.TicketSelectionSummary `json:"tickets"`
    TotalCents      int64                          `json:"total_cents"`
    ProtectionAddOn bool                           `json:"protection_add_on"`
    PaymentRef      string                         `json:"payment_ref,omitempty"`
    ConfirmedAt     string                         `json:"confirmed_at"`
}
