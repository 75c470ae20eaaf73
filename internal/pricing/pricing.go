// Package pricing implements the fee/pricing engine: a pure, stateless
// computation from a tier selection, an optional promo code and the
// active fee schedule to a fully priced order summary.  Money is integer
// cents end-to-end; the only rounding happens when a percentage is
// applied, half-up, so repeated pricing of the same inputs can never
// drift.
package pricing

import (
    "math"

    "github.com/arenalive/ticketgate/internal/model"
)

// Selection pairs a tier with a requested quantity.
type Selection struct {
    TierID   string `json:"tier_id"`
    Quantity int    `json:"quantity"`
}

// PriceOrder computes the order summary for the given selections.
//
// Selections referencing an unknown or inactive tier, or carrying a
// non-positive quantity, are silently excluded, treated as if never
// selected, not as an error.  The promo discount is clamped to the
// subtotal so the post-discount subtotal is never negative, percentage
// fees are computed against the post-discount subtotal, fees do not
// compound on each other, and the total is floored at zero.  A zero
// subtotal (free tickets or a 100%-off promo) is a valid order.
func PriceOrder(selections []Selection, tiers []model.TicketTier, promo *model.PromoCode, rules []model.FeeRule) model.OrderSummary {
    byID := make(map[string]model.TicketTier, len(tiers))
    for _, t := range tiers {
        if t.IsActive {
            byID[t.ID] = t
        }
    }

    summary := model.OrderSummary{
        Fees:    []model.FeeCalculation{},
        Tickets: []model.TicketSelectionSummary{},
    }
    for _, sel := range selections {
        if sel.Quantity <= 0 {
            continue
        }
        tier, ok := byID[sel.TierID]
        if !ok {
            continue
        }
        line := model.TicketSelectionSummary{
            TierID:         tier.ID,
            TierName:       tier.Name,
            Quantity:       sel.Quantity,
            UnitPriceCents: tier.PriceCents,
            SubtotalCents:  tier.PriceCents * int64(sel.Quantity),
        }
        summary.Tickets = append(summary.Tickets, line)
        summary.SubtotalCents += line.SubtotalCents
    }

    summary.PromoDiscountCents = discountCents(promo, summary.SubtotalCents)
    afterPromo := summary.SubtotalCents - summary.PromoDiscountCents

    var feeTotal int64
    for _, rule := range rules {
        if !rule.IsActive || rule.Value < 0 {
            continue
        }
        var amount int64
        switch rule.Type {
        case model.FeeFlat:
            amount = dollarsToCents(rule.Value)
        case model.FeePercentage:
            amount = percentOf(afterPromo, rule.Value)
        default:
            continue
        }
        summary.Fees = append(summary.Fees, model.FeeCalculation{Name: rule.Name, AmountCents: amount})
        feeTotal += amount
    }

    summary.TotalCents = afterPromo + feeTotal
    if summary.TotalCents < 0 {
        summary.TotalCents = 0
    }
    return summary
}

// discountCents computes the promo discount, clamped to [0, subtotal].
func discountCents(promo *model.PromoCode, subtotalCents int64) int64 {
    if promo == nil || promo.DiscountValue <= 0 {
        return 0
    }
    var d int64
    switch promo.DiscountType {
    case model.DiscountPercentage:
        d = percentOf(subtotalCents, promo.DiscountValue)
    case model.DiscountFlat:
        d = dollarsToCents(promo.DiscountValue)
    default:
        return 0
    }
    if d < 0 {
        return 0
    }
    if d > subtotalCents {
        return subtotalCents
    }
    return d
}

// percentOf applies a percentage to a cent amount using integer basis
// points with half-up rounding: round(cents * percent / 100) without
// accumulating float error across lines.
func percentOf(cents int64, percent float64) int64 {
    bps := int64(math.Round(percent * 100))
    return (cents*bps + 5000) / 10000
}

// dollarsToCents converts a decimal dollar amount from the fee/promo
// schedule to cents, rounding half-up once at the boundary.
func dollarsToCents(dollars float64) int64 {
    return int64(math.Round(dollars * 100))
}
