package model

import "time"

// TicketSelectionSummary is one priced line item inside an OrderSummary.
// SubtotalCents is always UnitPriceCents * Quantity; the pricing engine
// guarantees the line items sum exactly to the summary subtotal.
type TicketSelectionSummary struct {
    TierID         string `json:"tier_id"`
    TierName       string `json:"tier_name"`
    Quantity       int    `json:"quantity"`
    UnitPriceCents int64  `json:"unit_price_cents"`
    SubtotalCents  int64  `json:"subtotal_cents"`
}

// OrderSummary is the fully priced breakdown of a ticket selection.  It
// is derived data: recomputed deterministically from the current
// selections on every change and never cached across edits.  All money
// values are integer cents; formatting to decimal dollars happens only
// at the presentation boundary.
type OrderSummary struct {
    SubtotalCents      int64                    `json:"subtotal_cents"`
    PromoDiscountCents int64                    `json:"promo_discount_cents"`
    Fees               []FeeCalculation         `json:"fees"`
    TotalCents         int64                    `json:"total_cents"`
    Tickets            []TicketSelectionSummary `json:"tickets"`
}

// Order records a completed purchase.  Rows are written exactly once,
// on the checkout pipeline's transition to its confirmation state.
//
// Fields:
//  ID              - primary key identifier.
//  SessionID       - gate session that produced the order.
//  EventID         - event the tickets belong to.
//  TotalCents      - amount actually charged, including the protection
//                    add-on when selected.
//  PaymentRef      - reference returned by the payment processor;
//                    empty for zero-amount orders the processor waived.
//  ProtectionAddOn - whether the buyer selected ticket protection.
//  CreatedAt       - when the order was confirmed.
type Order struct {
    ID              uint64    // orders.id
    SessionID       string    // orders.session_id
    EventID         string    // orders.event_id
    TotalCents      int64     // orders.total_cents
    PaymentRef      string    // orders.payment_ref
    ProtectionAddOn bool      // orders.protection_add_on
    CreatedAt       time.Time // orders.created_at
}
