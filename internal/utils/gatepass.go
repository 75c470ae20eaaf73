package utils // package utils provides helper functions for gate pass creation and parsing

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// GatePass represents a signed JWT proving that a gate session was
// admitted. The Token field contains the JWT string; Exp stores the
// expiration as a time.Time. Checkout endpoints require a valid pass in
// the Authorization header, which binds them to sessions the gate
// actually promoted; a buyer cannot reach checkout by guessing URLs.
type GatePass struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewGatePass builds and signs an HS256 JWT for an admitted session.
// The JWT includes the session token as subject (sub), the event (evt),
// expiration (exp) and issued at (iat). The TTL should comfortably
// cover a full checkout; the gate's staleness reaper, not pass expiry,
// is what reclaims abandoned slots.
func NewGatePass(secret, sessionID, eventID string, ttl time.Duration) (GatePass, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub": sessionID,
        "evt": eventID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return GatePass{}, err
    }
    return GatePass{Token: signed, Exp: exp}, nil
}

// ErrInvalidGatePass is returned for passes that fail signature or
// claim checks.
var ErrInvalidGatePass = errors.New("invalid gate pass")

// ParseGatePass verifies the pass signature and expiry and returns the
// session and event it was issued for.
func ParseGatePass(secret, token string) (sessionID, eventID string, err error) {
    tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidGatePass
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return "", "", ErrInvalidGatePass
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", "", ErrInvalidGatePass
    }
    sub, _ := claims["sub"].(string)
    evt, _ := claims["evt"].(string)
    if sub == "" {
        return "", "", ErrInvalidGatePass
    }
    return sub, evt, nil
}
