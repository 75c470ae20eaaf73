package pricing

import (
    "testing"

    "github.com/arenalive/ticketgate/internal/model"
)

func tier(id string, order int, inventory int, active, hideUntilPrev bool) model.TicketTier {
    return model.TicketTier{
        ID:                       id,
        Name:                     id,
        PriceCents:               5000,
        TotalTickets:             100,
        AvailableInventory:       inventory,
        TierOrder:                order,
        IsActive:                 active,
        HideUntilPreviousSoldOut: hideUntilPrev,
    }
}

func ids(tiers []model.TicketTier) []string {
    out := make([]string, 0, len(tiers))
    for _, t := range tiers {
        out = append(out, t.ID)
    }
    return out
}

func TestHiddenWhilePredecessorHasInventory(t *testing.T) {
    tiers := []model.TicketTier{
        tier("early", 1, 5, true, false),
        tier("regular", 2, 100, true, true),
    }
    got := ids(VisibleTiers(tiers))
    if len(got) != 1 || got[0] != "early" {
        t.Fatalf("visible = %v, want [early] while early still has inventory", got)
    }
}

func TestRevealedOncePredecessorSellsOut(t *testing.T) {
    tiers := []model.TicketTier{
        tier("early", 1, 0, true, false),
        tier("regular", 2, 100, true, true),
    }
    got := ids(VisibleTiers(tiers))
    if len(got) != 2 {
        t.Fatalf("visible = %v, want both tiers once early sold out", got)
    }
}

func TestInactiveNeverVisible(t *testing.T) {
    tiers := []model.TicketTier{
        tier("early", 1, 0, false, false),
        tier("regular", 2, 100, true, false),
    }
    got := ids(VisibleTiers(tiers))
    if len(got) != 1 || got[0] != "regular" {
        t.Fatalf("visible = %v, want [regular]; inactive tiers are never shown", got)
    }
}

func TestFirstTierHideFlagHasNoPredecessor(t *testing.T) {
    tiers := []model.TicketTier{tier("only", 1, 10, true, true)}
    if got := ids(VisibleTiers(tiers)); len(got) != 1 {
        t.Fatalf("visible = %v, want the sole tier shown", got)
    }
}

func TestPredecessorIsPrecedingActiveTier(t *testing.T) {
    // The inactive tier at order 1 does not count as a predecessor; the
    // gated tier waits on the active tier at order 2.
    tiers := []model.TicketTier{
        tier("retired", 1, 50, false, false),
        tier("early", 2, 3, true, false),
        tier("regular", 3, 100, true, true),
    }
    got := ids(VisibleTiers(tiers))
    if len(got) != 1 || got[0] != "early" {
        t.Fatalf("visible = %v, want [early]", got)
    }
}
