package repository

import (
    "context"
    "database/sql"

    "github.com/arenalive/ticketgate/internal/model"
)

// OrderRepo persists completed orders.  A row is written exactly once,
// when the checkout pipeline reaches its confirmation state; there are
// no updates or deletes.  Line items are written alongside so the
// fulfillment side can issue tickets without re-deriving the selection.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo constructs an OrderRepo given a DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order and its line items in one transaction and
// returns the generated order ID.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order, tickets []model.TicketSelectionSummary) (uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `INSERT INTO orders (session_id, event_id, total_cents, payment_ref, protection_add_on)
         VALUES (?, ?, ?, ?, ?)`,
        o.SessionID, o.EventID, o.TotalCents, o.PaymentRef, o.ProtectionAddOn)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }

    if len(tickets) > 0 {
        query := `INSERT INTO order_tickets (order_id, tier_id, tier_name, quantity, unit_price_cents) VALUES `
        args := make([]interface{}, 0, len(tickets)*5)
        for i, t := range tickets {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?, ?, ?)"
            args = append(args, id, t.TierID, t.TierName, t.Quantity, t.UnitPriceCents)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return 0, err
        }
    }

    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint64(id), nil
}
