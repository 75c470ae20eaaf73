package pricing

import (
    "sort"

    "github.com/arenalive/ticketgate/internal/model"
)

// VisibleTiers filters the event's tiers down to those a buyer may see
// and select, in tier_order sequence:
//
//   - inactive tiers are never visible, regardless of inventory;
//   - a tier with HideUntilPreviousSoldOut stays hidden until the
//     immediately preceding tier (by TierOrder, among active tiers)
//     has zero available inventory.
//
// The first tier in sequence has no predecessor, so its hide flag has
// nothing to wait on and it is shown.
func VisibleTiers(tiers []model.TicketTier) []model.TicketTier {
    active := make([]model.TicketTier, 0, len(tiers))
    for _, t := range tiers {
        if t.IsActive {
            active = append(active, t)
        }
    }
    sort.SliceStable(active, func(i, j int) bool { return active[i].TierOrder < active[j].TierOrder })

    visible := make([]model.TicketTier, 0, len(active))
    for i, t := range active {
        if t.HideUntilPreviousSoldOut && i > 0 && !active[i-1].SoldOut() {
            continue
        }
        visible = append(visible, t)
    }
    return visible
}
