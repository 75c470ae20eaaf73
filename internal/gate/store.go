// Package gate implements the admission gate: a per-event, capacity
// bounded concurrency controller that throttles how many buyers may be
// inside the ticketing flow at once.  Excess demand is queued first-in
// first-out and promoted as capacity frees up.  Promotion is poll-driven:
// waiting clients poll Status on an interval, and a background reaper
// expires sessions that stop polling.
package gate

import (
    "context"
    "errors"
    "time"

    "github.com/arenalive/ticketgate/internal/model"
)

// ErrUnavailable wraps persistence failures during gate operations.
// The gate never retries internally; callers must treat this as "deny
// entry, retry later" and never assume the operation took effect.
var ErrUnavailable = errors.New("gate unavailable")

// ErrSessionNotFound is returned when a session token matches nothing.
var ErrSessionNotFound = errors.New("gate session not found")

// ErrSessionExpired is returned when an operation finds the session
// already completed (explicit exit or staleness reaping).  A checkout in
// progress that sees this must restart from Enter; it is never retried
// silently.
var ErrSessionExpired = errors.New("gate session expired")

// SessionStore is the persistence capability the gate consumes.  The
// production implementation is repository.SessionRepo over MySQL; tests
// substitute an in-memory store.  Two methods carry the concurrency
// contract:
//
//   - Transition is compare-and-set: it must fail (return false), not
//     silently no-op, when the current status differs from `from`.
//   - PromoteIfEligible must atomically verify both the capacity ceiling
//     and FIFO head position before transitioning waiting -> active, so
//     that two concurrent callers can never both claim one freed slot.
type SessionStore interface {
    Create(ctx context.Context, s *model.TicketingSession) error
    Get(ctx context.Context, id string) (*model.TicketingSession, error)
    Transition(ctx context.Context, id string, from, to model.SessionStatus) (bool, error)
    CountByStatus(ctx context.Context, eventID string, status model.SessionStatus) (int, error)
    WaitingPosition(ctx context.Context, id string) (int, error)
    PromoteIfEligible(ctx context.Context, id, eventID string, maxConcurrent int) (bool, error)
    Touch(ctx context.Context, id string) error
    ReapStale(ctx context.Context, eventID string, olderThan time.Duration) (int, error)
    EventsWithOpenSessions(ctx context.Context) ([]string, error)
}
