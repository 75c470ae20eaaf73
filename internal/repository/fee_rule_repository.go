package repository

import (
    "context"
    "database/sql"

    "github.com/arenalive/ticketgate/internal/model"
)

// FeeRuleRepo provides read access to the fee_rules table.  The fee
// schedule is configured externally; the checkout pipeline fetches the
// active rules for its environment scope once per pricing pass.
type FeeRuleRepo struct {
    db *sql.DB
}

// NewFeeRuleRepo constructs a FeeRuleRepo given a DB handle.
func NewFeeRuleRepo(db *sql.DB) *FeeRuleRepo { return &FeeRuleRepo{db: db} }

// ActiveByScope returns all active fee rules for the given environment
// scope.  Order is irrelevant: fees never compound on each other, only
// on the post-discount subtotal.
func (r *FeeRuleRepo) ActiveByScope(ctx context.Context, scope string) ([]model.FeeRule, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT name, fee_type, value, is_active, environment_scope
         FROM fee_rules
         WHERE is_active = 1 AND environment_scope = ?`, scope)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var rules []model.FeeRule
    for rows.Next() {
        var f model.FeeRule
        var feeType string
        if err := rows.Scan(&f.Name, &feeType, &f.Value, &f.IsActive, &f.EnvironmentScope); err != nil {
            return nil, err
        }
        f.Type = model.FeeType(feeType)
        rules = append(rules, f)
    }
    return rules, rows.Err()
}
