package gate

import (
    "context"
    "fmt"
    "time"

    "github.com/arenalive/ticketgate/internal/model"
    "github.com/arenalive/ticketgate/internal/repository"
)

// StaleAfter is how long a session may sit idle (no poll, no transition)
// before the reaper completes it.  Clients poll every few seconds, so
// thirty minutes of silence means the browser is gone.
const StaleAfter = 30 * time.Minute

// Result is the gate snapshot returned to a polling client.  When the
// session is waiting, QueuePosition is its 1-indexed FIFO rank; when
// granted it is zero.
type Result struct {
    Granted       bool   `json:"granted"`
    SessionID     string `json:"session_id"`
    QueuePosition int    `json:"queue_position,omitempty"`
    ActiveCount   int    `json:"active_count"`
    WaitingCount  int    `json:"waiting_count"`
}

// Gate bounds the number of concurrent ticket purchasers per event.  It
// owns TicketingSession state exclusively; the checkout pipeline only
// reads its own session's status and signals exit through Exit.
type Gate struct {
    store SessionStore
}

// New constructs a Gate over the given session store.
func New(store SessionStore) *Gate {
    if store == nil {
        panic("nil store passed to gate.New")
    }
    return &Gate{store: store}
}

// Enter creates a new session for the event and attempts immediate
// admission.  The session is created WAITING and then promoted through
// the same atomic path a poll would use, so a burst of simultaneous
// entries can never overshoot the ceiling: each promotion re-checks the
// active count and FIFO head under the store's transactional guard.
func (g *Gate) Enter(ctx context.Context, eventID string, maxConcurrent int) (Result, error) {
    if maxConcurrent <= 0 {
        return Result{}, fmt.Errorf("maxConcurrent must be positive, got %d", maxConcurrent)
    }
    id, err := repository.NewSessionID()
    if err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    s := &model.TicketingSession{ID: id, EventID: eventID, Status: model.SessionWaiting}
    if err := g.store.Create(ctx, s); err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    promoted, err := g.store.PromoteIfEligible(ctx, id, eventID, maxConcurrent)
    if err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    return g.snapshot(ctx, id, eventID, promoted)
}

// Status re-reads the session on behalf of a polling client.  It touches
// the row so active polling defers staleness, reaps any sessions that
// have gone silent (freeing capacity before the check), and then, as
// the only promotion path besides Enter, attempts the atomic promotion if
// the session is still waiting.
func (g *Gate) Status(ctx context.Context, sessionID string, maxConcurrent int) (Result, error) {
    s, err := g.store.Get(ctx, sessionID)
    if err != nil {
        if err == repository.ErrSessionNotFound {
            return Result{}, ErrSessionNotFound
        }
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    if s.IsTerminal() {
        return Result{}, ErrSessionExpired
    }
    if err := g.store.Touch(ctx, sessionID); err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    // Clear out dead sessions before checking capacity so a slot held by
    // a vanished browser frees up on the very next poll.
    if _, err := g.store.ReapStale(ctx, s.EventID, StaleAfter); err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }

    granted := s.Status == model.SessionActive
    if !granted {
        promoted, err := g.store.PromoteIfEligible(ctx, sessionID, s.EventID, maxConcurrent)
        if err != nil {
            return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
        }
        granted = promoted
    }
    return g.snapshot(ctx, sessionID, s.EventID, granted)
}

// Exit completes the session regardless of its prior state.  It is
// idempotent: exiting a waiting or already-completed session is a no-op
// beyond ensuring the terminal state.  Freed capacity is handed out on
// the next waiting client's poll, not pushed.
func (g *Gate) Exit(ctx context.Context, sessionID string) error {
    s, err := g.store.Get(ctx, sessionID)
    if err != nil {
        if err == repository.ErrSessionNotFound {
            return ErrSessionNotFound
        }
        return fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    if s.IsTerminal() {
        return nil
    }
    ok, err := g.store.Transition(ctx, sessionID, s.Status, model.SessionCompleted)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    if !ok {
        // Lost a race with another transition (promotion or the reaper).
        // Re-read and retry once from the fresh state.
        s, err = g.store.Get(ctx, sessionID)
        if err != nil {
            return fmt.Errorf("%w: %v", ErrUnavailable, err)
        }
        if s.IsTerminal() {
            return nil
        }
        if _, err := g.store.Transition(ctx, sessionID, s.Status, model.SessionCompleted); err != nil {
            return fmt.Errorf("%w: %v", ErrUnavailable, err)
        }
    }
    return nil
}

// Verify confirms the session is currently ACTIVE.  The checkout
// pipeline calls this before any state-changing step so a reaped session
// fails fast with ErrSessionExpired instead of proceeding to payment.
func (g *Gate) Verify(ctx context.Context, sessionID string) (*model.TicketingSession, error) {
    s, err := g.store.Get(ctx, sessionID)
    if err != nil {
        if err == repository.ErrSessionNotFound {
            return nil, ErrSessionNotFound
        }
        return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    if s.Status != model.SessionActive {
        return nil, ErrSessionExpired
    }
    return s, nil
}

// ReapStale expires the event's idle sessions.  Exposed for the
// background reaper; Status also reaps inline on every poll.
func (g *Gate) ReapStale(ctx context.Context, eventID string) (int, error) {
    n, err := g.store.ReapStale(ctx, eventID, StaleAfter)
    if err != nil {
        return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    return n, nil
}

// snapshot assembles the Result counts after any promotion attempt.
func (g *Gate) snapshot(ctx context.Context, sessionID, eventID string, granted bool) (Result, error) {
    active, err := g.store.CountByStatus(ctx, eventID, model.SessionActive)
    if err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    waiting, err := g.store.CountByStatus(ctx, eventID, model.SessionWaiting)
    if err != nil {
        return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    res := Result{
        Granted:      granted,
        SessionID:    sessionID,
        ActiveCount:  active,
        WaitingCount: waiting,
    }
    if !granted {
        pos, err := g.store.WaitingPosition(ctx, sessionID)
        if err != nil {
            return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
        }
        res.QueuePosition = pos
    }
    return res, nil
}
