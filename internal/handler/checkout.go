package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/arenalive/ticketgate/internal/checkout"
    "github.com/arenalive/ticketgate/internal/gate"
    "github.com/arenalive/ticketgate/internal/model"
    "github.com/arenalive/ticketgate/internal/pricing"
)

// CheckoutHandler exposes the checkout pipeline.  Every route requires
// a valid gate pass (enforced by middleware), so handlers can assume
// the :session parameter names a session the gate actually admitted.
type CheckoutHandler struct {
    Checkout *checkout.Service
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
    if svc == nil {
        panic("nil checkout service passed to NewCheckoutHandler")
    }
    return &CheckoutHandler{Checkout: svc}
}

// Start handles POST /v1/checkout/:session/start.
func (h *CheckoutHandler) Start(c echo.Context) error {
    snap, err := h.Checkout.Start(c.Request().Context(), c.Param("session"))
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, snap)
}

// Select handles POST /v1/checkout/:session/selection.  Body:
// {"selections": [{"tier_id": "...", "quantity": 2}, ...]}.
func (h *CheckoutHandler) Select(c echo.Context) error {
    var body struct {
        Selections []pricing.Selection `json:"selections"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    snap, err := h.Checkout.Select(c.Request().Context(), c.Param("session"), body.Selections)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// Back handles POST /v1/checkout/:session/back.
func (h *CheckoutHandler) Back(c echo.Context) error {
    snap, err := h.Checkout.Back(c.Request().Context(), c.Param("session"))
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// Quote handles POST /v1/checkout/:session/quote.  Body:
// {"promo_code": "HALF", "protection": true}.
func (h *CheckoutHandler) Quote(c echo.Context) error {
    var body struct {
        PromoCode  string `json:"promo_code"`
        Protection bool   `json:"protection"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    snap, err := h.Checkout.Quote(c.Request().Context(), c.Param("session"), body.PromoCode, body.Protection)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// EditField handles POST /v1/checkout/:session/field.  Body:
// {"field": "zip_code", "value": "94110"}.  Only the edited field is
// re-validated; other fields' errors stay until they themselves change.
func (h *CheckoutHandler) EditField(c echo.Context) error {
    var body struct {
        Field string `json:"field"`
        Value string `json:"value"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    snap, err := h.Checkout.EditField(c.Request().Context(), c.Param("session"), body.Field, body.Value)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// Submit handles POST /v1/checkout/:session/submit: the full buyer form
// plus payment options.  Success means the attempt reached its terminal
// confirmation state; every failure leaves it on the checkout step with
// entered values intact.
func (h *CheckoutHandler) Submit(c echo.Context) error {
    var form model.CheckoutForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    snap, err := h.Checkout.Submit(c.Request().Context(), c.Param("session"), form)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// Snapshot handles GET /v1/checkout/:session.
func (h *CheckoutHandler) Snapshot(c echo.Context) error {
    snap, err := h.Checkout.Snapshot(c.Request().Context(), c.Param("session"))
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// fail maps pipeline errors to HTTP responses.  Validation failures
// return the full field->message map plus the first field to focus;
// payment failures distinguish declines from infrastructure problems in
// the message while both leave the attempt retryable.
func (h *CheckoutHandler) fail(c echo.Context, err error) error {
    var verr *checkout.ValidationError
    if errors.As(err, &verr) {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":        "validation_failed",
            "field_errors": verr.Fields,
            "focus_field":  verr.FirstField,
        })
    }
    var perr *checkout.PaymentError
    if errors.As(err, &perr) {
        kind := "payment_infrastructure_error"
        if perr.Declined {
            kind = "payment_declined"
        }
        return c.JSON(http.StatusPaymentRequired, echo.Map{
            "error":     kind,
            "message":   perr.Reason,
            "retryable": true,
        })
    }
    switch {
    case errors.Is(err, checkout.ErrAttemptNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no checkout in progress for this session"})
    case errors.Is(err, checkout.ErrEmptySelection):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "select at least one ticket"})
    case errors.Is(err, checkout.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": "operation not allowed in current checkout state"})
    case errors.Is(err, gate.ErrSessionExpired), errors.Is(err, gate.ErrSessionNotFound):
        return c.JSON(http.StatusGone, echo.Map{"error": "session expired, re-enter the gate"})
    case errors.Is(err, gate.ErrUnavailable):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "ticketing is temporarily unavailable, please retry"})
    }
    c.Logger().Errorf("checkout: unexpected error: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
