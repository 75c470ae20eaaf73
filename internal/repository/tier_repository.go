package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/arenalive/ticketgate/internal/model"
)

// TierRepo provides read access to the ticket_tiers table.  Tiers are
// managed by an external admin surface and consumed read-only here;
// inventory is decremented by fulfillment after payment, so this repo
// deliberately has no write methods.
type TierRepo struct {
    db *sql.DB
}

// NewTierRepo constructs a TierRepo given a DB handle.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// ActiveByEvent returns the event's active tiers ordered by tier_order
// ascending.  Visibility rules (hide-until-previous-sold-out) are applied
// by the pricing package, not here, because they depend on sibling
// inventory and belong with the rest of the selection logic.
func (r *TierRepo) ActiveByEvent(ctx context.Context, eventID string) ([]model.TicketTier, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, event_id, name, COALESCE(description, ''), price_cents,
                total_tickets, available_inventory, tier_order, is_active,
                hide_until_previous_sold_out
         FROM ticket_tiers
         WHERE event_id = ? AND is_active = 1
         ORDER BY tier_order`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var tiers []model.TicketTier
    for rows.Next() {
        var t model.TicketTier
        if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceCents,
            &t.TotalTickets, &t.AvailableInventory, &t.TierOrder, &t.IsActive,
            &t.HideUntilPreviousSoldOut); err != nil {
            return nil, err
        }
        tiers = append(tiers, t)
    }
    return tiers, rows.Err()
}

// ByID fetches a single tier.  Returns ErrTierNotFound when no row matches.
func (r *TierRepo) ByID(ctx context.Context, id string) (*model.TicketTier, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT id, event_id, name, COALESCE(description, ''), price_cents,
                total_tickets, available_inventory, tier_order, is_active,
                hide_until_previous_sold_out
         FROM ticket_tiers WHERE id = ?`, id)
    var t model.TicketTier
    if err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceCents,
        &t.TotalTickets, &t.AvailableInventory, &t.TierOrder, &t.IsActive,
        &t.HideUntilPreviousSoldOut); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrTierNotFound
        }
        return nil, err
    }
    return &t, nil
}
