package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/arenalive/ticketgate/internal/gate"
    "github.com/arenalive/ticketgate/internal/utils"
)

// AttemptAbandoner drops any in-flight checkout attempt for a gate
// session.  Satisfied by the checkout service.
type AttemptAbandoner interface {
    Abandon(gateSessionID string)
}

// GateHandler exposes the admission gate over HTTP: enter, poll and
// exit.  All three endpoints are anonymous; a gate session is identified
// only by its opaque token.  Once a session is granted access, the poll
// response carries a signed gate pass that the checkout endpoints
// require.
type GateHandler struct {
    Gate           *gate.Gate
    Checkout       AttemptAbandoner
    MaxConcurrent  int
    GatePassSecret string
    GatePassTTL    time.Duration
}

// NewGateHandler constructs a GateHandler.  checkout may be nil when no
// checkout pipeline is wired.
func NewGateHandler(g *gate.Gate, checkout AttemptAbandoner, maxConcurrent int, secret string, passTTL time.Duration) *GateHandler {
    if g == nil {
        panic("nil gate passed to NewGateHandler")
    }
    return &GateHandler{Gate: g, Checkout: checkout, MaxConcurrent: maxConcurrent, GatePassSecret: secret, GatePassTTL: passTTL}
}

// gateResponse is the snapshot returned to polling clients.  The
// queue position and counts let the waiting UI show "you are #3 of 17"
// instead of a raw spinner; the poll interval hint tells clients how
// often to come back.
type gateResponse struct {
    Granted         bool   `json:"granted"`
    SessionID       string `json:"session_id"`
    QueuePosition   int    `json:"queue_position,omitempty"`
    ActiveCount     int    `json:"active_count"`
    WaitingCount    int    `json:"waiting_count"`
    GatePass        string `json:"gate_pass,omitempty"`
    PollIntervalSec int    `json:"poll_interval_sec,omitempty"`
}

// Enter handles POST /v1/events/:id/gate.  It creates a session and
// either admits it immediately (201 with granted=true and a gate pass)
// or queues it (201 with granted=false and a queue position).  A
// persistence failure is a visible 503, never a silent spinner.
func (h *GateHandler) Enter(c echo.Context) error {
    eventID := c.Param("id")
    if eventID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    res, err := h.Gate.Enter(c.Request().Context(), eventID, h.MaxConcurrent)
    if err != nil {
        if errors.Is(err, gate.ErrUnavailable) {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "ticketing is temporarily unavailable, please retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to enter gate"})
    }
    return c.JSON(http.StatusCreated, h.respond(c, eventID, res))
}

// Status handles GET /v1/gate/:session.  Waiting clients poll this on a
// fixed interval; it is the only promotion path besides entry, so a
// freed slot is handed out the next time the head of the queue polls.
func (h *GateHandler) Status(c echo.Context) error {
    sessionID := c.Param("session")
    res, err := h.Gate.Status(c.Request().Context(), sessionID, h.MaxConcurrent)
    if err != nil {
        switch {
        case errors.Is(err, gate.ErrSessionNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        case errors.Is(err, gate.ErrSessionExpired):
            return c.JSON(http.StatusGone, echo.Map{"error": "session expired, re-enter the gate"})
        case errors.Is(err, gate.ErrUnavailable):
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "ticketing is temporarily unavailable, please retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check gate status"})
    }
    // The event ID is needed to mint the pass; the result doesn't carry
    // it, so re-derive from the session when granted.
    eventID := ""
    if res.Granted {
        if s, err := h.Gate.Verify(c.Request().Context(), sessionID); err == nil {
            eventID = s.EventID
        }
    }
    return c.JSON(http.StatusOK, h.respond(c, eventID, res))
}

// Exit handles DELETE /v1/gate/:session.  Browsers send it from an
// unload beacon, so it must be cheap, idempotent and tolerant: exiting
// an unknown or already-completed session still returns 204.
func (h *GateHandler) Exit(c echo.Context) error {
    sessionID := c.Param("session")
    // Drop any in-flight checkout attempt with the session; the attempt
    // store must only ever hold attempts a live session can resume.
    if h.Checkout != nil {
        h.Checkout.Abandon(sessionID)
    }
    err := h.Gate.Exit(c.Request().Context(), sessionID)
    if err != nil && !errors.Is(err, gate.ErrSessionNotFound) {
        if errors.Is(err, gate.ErrUnavailable) {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "ticketing is temporarily unavailable"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to exit gate"})
    }
    return c.NoContent(http.StatusNoContent)
}

// respond converts a gate result to the wire shape, minting a gate pass
// for granted sessions.
func (h *GateHandler) respond(c echo.Context, eventID string, res gate.Result) gateResponse {
    out := gateResponse{
        Granted:       res.Granted,
        SessionID:     res.SessionID,
        QueuePosition: res.QueuePosition,
        ActiveCount:   res.ActiveCount,
        WaitingCount:  res.WaitingCount,
    }
    if res.Granted {
        // No pass without a resolved event: a pass with an empty evt
        // claim would bind checkout to nothing.  The client's next poll
        // mints one once the session reads back cleanly.
        if eventID != "" {
            pass, err := utils.NewGatePass(h.GatePassSecret, res.SessionID, eventID, h.GatePassTTL)
            if err != nil {
                c.Logger().Errorf("gate: failed to sign pass for session %s: %v", res.SessionID, err)
            } else {
                out.GatePass = pass.Token
            }
        }
    } else {
        out.PollIntervalSec = 3
    }
    return out
}
