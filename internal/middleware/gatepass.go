package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/arenalive/ticketgate/internal/utils"
)

// RequireGatePass returns an Echo middleware that validates a Bearer
// gate pass and checks that the session it was issued for matches the
// :session path parameter. This binds the checkout endpoints to
// sessions the admission gate actually promoted. Handlers behind it can
// read the verified session and event IDs via c.Get("session_id") and
// c.Get("event_id").
func RequireGatePass(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing gate pass"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            sessionID, eventID, err := utils.ParseGatePass(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid gate pass"})
            }
            // The pass must belong to the session being operated on.
            if p := c.Param("session"); p != "" && p != sessionID {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "gate pass does not match session"})
            }
            c.Set("session_id", sessionID)
            c.Set("event_id", eventID)
            return next(c)
        }
    }
}
