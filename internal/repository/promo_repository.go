package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/arenalive/ticketgate/internal/model"
)

// PromoRepo provides read access to the promo_codes table.
type PromoRepo struct {
    db *sql.DB
}

// NewPromoRepo constructs a PromoRepo given a DB handle.
func NewPromoRepo(db *sql.DB) *PromoRepo { return &PromoRepo{db: db} }

// ByCode looks up an active promo code, matching case-insensitively.
// Returns ErrPromoNotFound for unknown or inactive codes so the caller
// can surface a field error rather than a server fault.
func (r *PromoRepo) ByCode(ctx context.Context, code string) (*model.PromoCode, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT code, discount_type, discount_value
         FROM promo_codes
         WHERE UPPER(code) = ? AND is_active = 1`,
        strings.ToUpper(strings.TrimSpace(code)))
    var p model.PromoCode
    var dt string
    if err := row.Scan(&p.Code, &dt, &p.DiscountValue); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrPromoNotFound
        }
        return nil, err
    }
    p.DiscountType = model.DiscountType(dt)
    return &p, nil
}
