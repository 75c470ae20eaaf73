package gate

import (
    "context"
    "log"
    "time"
)

// Reaper periodically expires idle sessions across all events with open
// sessions.  It is the backstop for lost page-unload signals: clients
// are expected to call Exit when the buyer leaves, but a killed browser
// never sends that beacon, so correctness must not depend on it.
type Reaper struct {
    gate     *Gate
    store    SessionStore
    interval time.Duration
}

// NewReaper constructs a Reaper.  A non-positive interval falls back to
// one minute.
func NewReaper(g *Gate, store SessionStore, interval time.Duration) *Reaper {
    if interval <= 0 {
        interval = time.Minute
    }
    return &Reaper{gate: g, store: store, interval: interval}
}

// Run blocks, sweeping on the configured interval until ctx is
// cancelled.  Errors are logged and the loop continues; a transient
// database outage must not kill the reaper.
func (r *Reaper) Run(ctx context.Context) {
    ticker := time.NewTicker(r.interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            r.sweep(ctx)
        }
    }
}

func (r *Reaper) sweep(ctx context.Context) {
    events, err := r.store.EventsWithOpenSessions(ctx)
    if err != nil {
        log.Printf("gate-reaper: list events failed: %v", err)
        return
    }
    for _, eventID := range events {
        n, err := r.gate.ReapStale(ctx, eventID)
        if err != nil {
            log.Printf("gate-reaper: reap event %s failed: %v", eventID, err)
            continue
        }
        if n > 0 {
            log.Printf("gate-reaper: completed %d stale session(s) for event %s", n, eventID)
        }
    }
}
