// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// gate service and handlers to distinguish between failure scenarios
// without inspecting SQL errors directly. For example, ErrSessionNotFound
// signals that a gate session token does not exist (or was never created),
// while ErrPromoNotFound lets the checkout pipeline report an invalid
// promo code as a field error instead of a server fault.
package repository

import "errors"

// ErrSessionNotFound is returned when a ticketing session lookup by ID
// matches no row. Handlers should translate this into an HTTP 404.
var ErrSessionNotFound = errors.New("session not found")

// ErrTierNotFound is returned when a ticket tier lookup matches no row.
var ErrTierNotFound = errors.New("tier not found")

// ErrPromoNotFound is returned when a promo code lookup matches no row
// or the code is inactive. The checkout pipeline surfaces this as a
// field-level validation error, never as a server error.
var ErrPromoNotFound = errors.New("promo code not found")
