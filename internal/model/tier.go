package model

// TicketTier is a purchasable ticket category for an event.  Tiers are
// created and updated by an external admin surface; this service reads
// them to build the selection screen and price orders.  Inventory is
// decremented by the fulfillment side after a successful payment, never
// by the checkout pipeline itself.
//
// Fields:
//  ID                       - primary key identifier.
//  EventID                  - event this tier belongs to.
//  Name                     - display name (e.g. "General Admission").
//  Description              - optional marketing copy.
//  PriceCents               - unit price in integer cents (canonical money form).
//  TotalTickets             - total allocation for the tier.
//  AvailableInventory       - remaining sellable count; 0..TotalTickets.
//  TierOrder                - display and sell sequence, ascending.
//  IsActive                 - inactive tiers are never visible or selectable.
//  HideUntilPreviousSoldOut - when true the tier stays hidden until the
//                             immediately preceding tier (by TierOrder)
//                             has sold out.
type TicketTier struct {
    ID                       string // ticket_tiers.id
    EventID                  string // ticket_tiers.event_id
    Name                     string // ticket_tiers.name
    Description              string // ticket_tiers.description
    PriceCents               int64  // ticket_tiers.price_cents
    TotalTickets             int    // ticket_tiers.total_tickets
    AvailableInventory       int    // ticket_tiers.available_inventory
    TierOrder                int    // ticket_tiers.tier_order
    IsActive                 bool   // ticket_tiers.is_active
    HideUntilPreviousSoldOut bool   // ticket_tiers.hide_until_previous_sold_out
}

// SoldOut reports whether the tier has no remaining inventory.
func (t *TicketTier) SoldOut() bool { return t.AvailableInventory <= 0 }
