package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/arenalive/ticketgate/internal/handler"    // handlers that implement the gate and checkout logic
    "github.com/arenalive/ticketgate/internal/middleware" // gate pass auth, rate limiting, response cache
)

// RegisterRoutes registers routes that do not require any authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers and monitoring to verify the service is
// up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterGate registers the admission gate endpoints.  All three are
// anonymous: a gate session is identified only by its opaque token, and
// rate limiting (not authentication) is what protects them from abuse.
// The limiter middleware is passed in so the caller controls whether
// Redis-backed limiting is active.
func RegisterGate(e *echo.Echo, g *handler.GateHandler, limiter echo.MiddlewareFunc) {
    grp := e.Group("/v1")
    if limiter != nil {
        grp.Use(limiter)
    }
    // Enter the gate for an event: immediate admission or a queue slot.
    grp.POST("/events/:id/gate", g.Enter)
    // Poll gate status; the only promotion path besides entry.
    grp.GET("/gate/:session", g.Status)
    // Exit the gate; also the target of the browser's unload beacon.
    grp.DELETE("/gate/:session", g.Exit)
}

// RegisterTiers registers the public tier listing behind the response
// cache middleware (pass nil to serve uncached).
func RegisterTiers(e *echo.Echo, t *handler.TierHandler, cache echo.MiddlewareFunc) {
    if cache != nil {
        e.GET("/v1/events/:id/tiers", t.List, cache)
        return
    }
    e.GET("/v1/events/:id/tiers", t.List)
}

// RegisterCheckout registers the checkout pipeline endpoints.  Every
// route requires a valid gate pass whose subject matches the :session
// path parameter, which binds checkout to sessions the gate actually
// admitted.
func RegisterCheckout(e *echo.Echo, h *handler.CheckoutHandler, gatePassSecret string) {
    grp := e.Group("/v1/checkout")
    grp.Use(middleware.RequireGatePass(gatePassSecret))
    grp.POST("/:session/start", h.Start)
    grp.POST("/:session/selection", h.Select)
    grp.POST("/:session/back", h.Back)
    grp.POST("/:session/quote", h.Quote)
    grp.POST("/:session/field", h.EditField)
    grp.POST("/:session/submit", h.Submit)
    grp.GET("/:session", h.Snapshot)
}
