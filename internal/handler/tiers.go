package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/arenalive/ticketgate/internal/pricing"
    "github.com/arenalive/ticketgate/internal/repository"
)

// TierHandler serves the public tier listing for an event.  The
// response contains only tiers a buyer may currently see: inactive
// tiers and tiers gated behind an unsold predecessor are filtered out
// server-side so the selection UI never has to know the hiding rules.
type TierHandler struct {
    Tiers *repository.TierRepo
}

// NewTierHandler constructs a TierHandler.
func NewTierHandler(tiers *repository.TierRepo) *TierHandler {
    if tiers == nil {
        panic("nil tier repo passed to NewTierHandler")
    }
    return &TierHandler{Tiers: tiers}
}

// tierView is the public wire shape of a tier.  Total allocation and
// admin flags stay internal; the UI gets price, remaining inventory and
// display order.
type tierView struct {
    ID                 string `json:"id"`
    Name               string `json:"name"`
    Description        string `json:"description,omitempty"`
    PriceCents         int64  `json:"price_cents"`
    AvailableInventory int    `json:"available_inventory"`
    TierOrder          int    `json:"tier_order"`
    SoldOut            bool   `json:"sold_out"`
}

// List handles GET /v1/events/:id/tiers.  Sits behind the Redis
// response cache: during an on-sale every waiting client renders the
// same list.
func (h *TierHandler) List(c echo.Context) error {
    eventID := c.Param("id")
    if eventID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    tiers, err := h.Tiers.ActiveByEvent(c.Request().Context(), eventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tiers"})
    }
    visible := pricing.VisibleTiers(tiers)
    views := make([]tierView, 0, len(visible))
    for _, t := range visible {
        views = append(views, tierView{
            ID:                 t.ID,
            Name:               t.Name,
            Description:        t.Description,
            PriceCents:         t.PriceCents,
            AvailableInventory: t.AvailableInventory,
            TierOrder:          t.TierOrder,
            SoldOut:            t.SoldOut(),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"tiers": views})
}
