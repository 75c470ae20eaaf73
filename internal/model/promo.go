package model

// DiscountType distinguishes percentage promo codes from flat-amount ones.
type DiscountType string

const (
    DiscountPercentage DiscountType = "percentage"
    DiscountFlat       DiscountType = "flat"
)

// PromoCode is an optional discount applied to the order subtotal before
// any fee computation.  The resulting discount is clamped so the
// post-discount subtotal can never go negative.
//
// Fields:
//  Code          - the code the buyer types in, matched case-insensitively.
//  DiscountType  - percentage or flat.
//  DiscountValue - percent for percentage codes, dollars for flat codes.
type PromoCode struct {
    Code          string       // promo_codes.code
    DiscountType  DiscountType // promo_codes.discount_type
    DiscountValue float64      // promo_codes.discount_value
}
