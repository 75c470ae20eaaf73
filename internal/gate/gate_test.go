package gate

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/arenalive/ticketgate/internal/model"
    "github.com/arenalive/ticketgate/internal/repository"
)

// memStore is an in-memory SessionStore with the same atomicity
// contract as the MySQL implementation: every mutation happens under
// one mutex, so Transition is a true compare-and-set and
// PromoteIfEligible checks the ceiling and the FIFO head in a single
// critical section.  Creation order is made total with a sequence
// counter standing in for created_at, since wall-clock timestamps
// collide inside a fast test.
type memStore struct {
    mu       sync.Mutex
    sessions map[string]*model.TicketingSession
    order    map[string]int
    seq      int
}

func newMemStore() *memStore {
    return &memStore{
        sessions: make(map[string]*model.TicketingSession),
        order:    make(map[string]int),
    }
}

func (m *memStore) Create(_ context.Context, s *model.TicketingSession) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.seq++
    now := time.Now().UTC()
    cp := *s
    cp.CreatedAt = now
    cp.UpdatedAt = now
    m.sessions[s.ID] = &cp
    m.order[s.ID] = m.seq
    return nil
}

func (m *memStore) Get(_ context.Context, id string) (*model.TicketingSession, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.sessions[id]
    if !ok {
        return nil, repository.ErrSessionNotFound
    }
    cp := *s
    return &cp, nil
}

func (m *memStore) Transition(_ context.Context, id string, from, to model.SessionStatus) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.transitionLocked(id, from, to), nil
}

func (m *memStore) transitionLocked(id string, from, to model.SessionStatus) bool {
    s, ok := m.sessions[id]
    if !ok || s.Status != from {
        return false
    }
    s.Status = to
    s.UpdatedAt = time.Now().UTC()
    if to == model.SessionActive {
        t := s.UpdatedAt
        s.EnteredAt = &t
    }
    return true
}

func (m *memStore) CountByStatus(_ context.Context, eventID string, status model.SessionStatus) (int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.countLocked(eventID, status), nil
}

func (m *memStore) countLocked(eventID string, status model.SessionStatus) int {
    n := 0
    for _, s := range m.sessions {
        if s.EventID == eventID && s.Status == status {
            n++
        }
    }
    return n
}

func (m *memStore) WaitingPosition(_ context.Context, id string) (int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    self, ok := m.sessions[id]
    if !ok {
        return 0, repository.ErrSessionNotFound
    }
    pos := 1
    for _, s := range m.sessions {
        if s.EventID == self.EventID && s.Status == model.SessionWaiting && m.order[s.ID] < m.order[id] {
            pos++
        }
    }
    return pos, nil
}

func (m *memStore) PromoteIfEligible(_ context.Context, id, eventID string, maxConcurrent int) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if m.countLocked(eventID, model.SessionActive) >= maxConcurrent {
        return false, nil
    }
    oldest := ""
    for _, s := range m.sessions {
        if s.EventID != eventID || s.Status != model.SessionWaiting {
            continue
        }
        if oldest == "" || m.order[s.ID] < m.order[oldest] {
            oldest = s.ID
        }
    }
    if oldest != id {
        return false, nil
    }
    return m.transitionLocked(id, model.SessionWaiting, model.SessionActive), nil
}

func (m *memStore) Touch(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if s, ok := m.sessions[id]; ok && s.Status != model.SessionCompleted {
        s.UpdatedAt = time.Now().UTC()
    }
    return nil
}

func (m *memStore) ReapStale(_ context.Context, eventID string, olderThan time.Duration) (int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    cutoff := time.Now().UTC().Add(-olderThan)
    n := 0
    for _, s := range m.sessions {
        if s.EventID == eventID && s.Status != model.SessionCompleted && s.UpdatedAt.Before(cutoff) {
            s.Status = model.SessionCompleted
            s.UpdatedAt = time.Now().UTC()
            n++
        }
    }
    return n, nil
}

func (m *memStore) EventsWithOpenSessions(_ context.Context) ([]string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    seen := map[string]bool{}
    var events []string
    for _, s := range m.sessions {
        if s.Status != model.SessionCompleted && !seen[s.EventID] {
            seen[s.EventID] = true
            events = append(events, s.EventID)
        }
    }
    return events, nil
}

// backdate shifts a session's last activity into the past so reaping
// tests don't have to sleep.
func (m *memStore) backdate(id string, by time.Duration) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if s, ok := m.sessions[id]; ok {
        s.UpdatedAt = s.UpdatedAt.Add(-by)
    }
}

func TestEnterGrantsUpToCapacityThenQueues(t *testing.T) {
    ctx := context.Background()
    g := New(newMemStore())

    s1, err := g.Enter(ctx, "evt", 2)
    if err != nil || !s1.Granted {
        t.Fatalf("first enter: granted=%v err=%v, want immediate grant", s1.Granted, err)
    }
    s2, err := g.Enter(ctx, "evt", 2)
    if err != nil || !s2.Granted {
        t.Fatalf("second enter: granted=%v err=%v, want immediate grant", s2.Granted, err)
    }
    if s2.ActiveCount != 2 {
        t.Fatalf("active count = %d, want 2", s2.ActiveCount)
    }

    s3, err := g.Enter(ctx, "evt", 2)
    if err != nil {
        t.Fatalf("third enter: %v", err)
    }
    if s3.Granted {
        t.Fatal("third enter granted past the ceiling")
    }
    if s3.QueuePosition != 1 {
        t.Fatalf("queue position = %d, want 1", s3.QueuePosition)
    }

    // Freeing a slot promotes the queue head on its next poll.
    if err := g.Exit(ctx, s1.SessionID); err != nil {
        t.Fatalf("exit: %v", err)
    }
    polled, err := g.Status(ctx, s3.SessionID, 2)
    if err != nil {
        t.Fatalf("poll: %v", err)
    }
    if !polled.Granted {
        t.Fatal("queued session not promoted after a slot freed")
    }
}

func TestActiveCountNeverExceedsCeiling(t *testing.T) {
    ctx := context.Background()
    store := newMemStore()
    g := New(store)

    const entrants = 24
    const ceiling = 3

    var wg sync.WaitGroup
    ids := make(chan string, entrants)
    for i := 0; i < entrants; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            res, err := g.Enter(ctx, "evt", ceiling)
            if err != nil {
                t.Errorf("enter: %v", err)
                return
            }
            ids <- res.SessionID
        }()
    }
    wg.Wait()
    close(ids)

    active, _ := store.CountByStatus(ctx, "evt", model.SessionActive)
    if active > ceiling {
        t.Fatalf("active = %d, exceeds ceiling %d", active, ceiling)
    }

    // Churn: everyone polls while admitted sessions exit; the ceiling
    // must hold at every observation.
    for id := range ids {
        if _, err := g.Status(ctx, id, ceiling); err != nil && !errors.Is(err, ErrSessionExpired) {
            t.Fatalf("status: %v", err)
        }
        if n, _ := store.CountByStatus(ctx, "evt", model.SessionActive); n > ceiling {
            t.Fatalf("active = %d after poll, exceeds ceiling %d", n, ceiling)
        }
        _ = g.Exit(ctx, id)
    }
}

func TestWaitingIsFIFO(t *testing.T) {
    ctx := context.Background()
    g := New(newMemStore())

    head, _ := g.Enter(ctx, "evt", 1)
    if !head.Granted {
        t.Fatal("first entrant should hold the only slot")
    }
    a, _ := g.Enter(ctx, "evt", 1)
    b, _ := g.Enter(ctx, "evt", 1)
    if a.QueuePosition != 1 || b.QueuePosition != 2 {
        t.Fatalf("positions = %d,%d want 1,2", a.QueuePosition, b.QueuePosition)
    }

    _ = g.Exit(ctx, head.SessionID)

    // The newer session polls first: it must NOT overtake the older one.
    bRes, err := g.Status(ctx, b.SessionID, 1)
    if err != nil {
        t.Fatalf("poll b: %v", err)
    }
    if bRes.Granted {
        t.Fatal("newer waiting session promoted ahead of older one")
    }
    aRes, err := g.Status(ctx, a.SessionID, 1)
    if err != nil {
        t.Fatalf("poll a: %v", err)
    }
    if !aRes.Granted {
        t.Fatal("queue head not promoted into the freed slot")
    }
}

func TestSinglePromotionIntoOneFreedSlot(t *testing.T) {
    ctx := context.Background()
    store := newMemStore()
    g := New(store)

    holder, _ := g.Enter(ctx, "evt", 1)
    a, _ := g.Enter(ctx, "evt", 1)
    b, _ := g.Enter(ctx, "evt", 1)
    _ = g.Exit(ctx, holder.SessionID)

    // Both waiting sessions poll concurrently, repeatedly.  Exactly one
    // may win the freed slot.
    var wg sync.WaitGroup
    for _, id := range []string{a.SessionID, b.SessionID} {
        wg.Add(1)
        go func(id string) {
            defer wg.Done()
            for i := 0; i < 50; i++ {
                if _, err := g.Status(ctx, id, 1); err != nil {
                    t.Errorf("status: %v", err)
                    return
                }
            }
        }(id)
    }
    wg.Wait()

    active, _ := store.CountByStatus(ctx, "evt", model.SessionActive)
    if active != 1 {
        t.Fatalf("active = %d after concurrent polling, want exactly 1", active)
    }
    // And the winner must be the older session.
    sA, _ := store.Get(ctx, a.SessionID)
    if sA.Status != model.SessionActive {
        t.Fatalf("older waiting session status = %s, want active", sA.Status)
    }
}

func TestExitIsIdempotent(t *testing.T) {
    ctx := context.Background()
    store := newMemStore()
    g := New(store)
    res, _ := g.Enter(ctx, "evt", 1)

    for i := 0; i < 3; i++ {
        if err := g.Exit(ctx, res.SessionID); err != nil {
            t.Fatalf("exit #%d: %v", i+1, err)
        }
    }

    // Exiting a waiting session completes it the same way: it leaves the
    // queue for good and can never be promoted afterwards.
    holder, _ := g.Enter(ctx, "evt", 1)
    waiting, _ := g.Enter(ctx, "evt", 1)
    if holder.Granted != true || waiting.Granted != false {
        t.Fatalf("setup: holder granted=%v waiting granted=%v", holder.Granted, waiting.Granted)
    }
    for i := 0; i < 2; i++ {
        if err := g.Exit(ctx, waiting.SessionID); err != nil {
            t.Fatalf("exit waiting #%d: %v", i+1, err)
        }
    }
    s, _ := store.Get(ctx, waiting.SessionID)
    if s.Status != model.SessionCompleted {
        t.Fatalf("waiting session status = %s after exit, want completed", s.Status)
    }
    _ = g.Exit(ctx, holder.SessionID)
    if _, err := g.Status(ctx, waiting.SessionID, 1); !errors.Is(err, ErrSessionExpired) {
        t.Fatalf("exited waiting session polled back in: err=%v, want ErrSessionExpired", err)
    }
}

func TestStaleSessionsReapedRegardlessOfStatus(t *testing.T) {
    ctx := context.Background()
    store := newMemStore()
    g := New(store)

    active, _ := g.Enter(ctx, "evt", 1)
    waiting, _ := g.Enter(ctx, "evt", 1)
    store.backdate(active.SessionID, StaleAfter+time.Minute)
    store.backdate(waiting.SessionID, StaleAfter+time.Minute)

    n, err := g.ReapStale(ctx, "evt")
    if err != nil {
        t.Fatalf("reap: %v", err)
    }
    if n != 2 {
        t.Fatalf("reaped %d sessions, want 2 (active and waiting alike)", n)
    }

    // The freed capacity is immediately available to a new entrant.
    fresh, err := g.Enter(ctx, "evt", 1)
    if err != nil || !fresh.Granted {
        t.Fatalf("enter after reap: granted=%v err=%v", fresh.Granted, err)
    }
}

func TestStatusOfCompletedSessionIsExpired(t *testing.T) {
    ctx := context.Background()
    g := New(newMemStore())
    res, _ := g.Enter(ctx, "evt", 1)
    _ = g.Exit(ctx, res.SessionID)

    if _, err := g.Status(ctx, res.SessionID, 1); !errors.Is(err, ErrSessionExpired) {
        t.Fatalf("status after exit: err=%v, want ErrSessionExpired", err)
    }
}

func TestStatusUnknownSession(t *testing.T) {
    g := New(newMemStore())
    if _, err := g.Status(context.Background(), "nope", 1); !errors.Is(err, ErrSessionNotFound) {
        t.Fatalf("err = %v, want ErrSessionNotFound", err)
    }
}

func TestEnterRejectsNonPositiveCeiling(t *testing.T) {
    g := New(newMemStore())
    if _, err := g.Enter(context.Background(), "evt", 0); err == nil {
        t.Fatal("enter with maxConcurrent=0 must fail")
    }
}

func TestPollingDefersStaleness(t *testing.T) {
    ctx := context.Background()
    store := newMemStore()
    g := New(store)

    res, _ := g.Enter(ctx, "evt", 1)
    store.backdate(res.SessionID, StaleAfter-time.Minute)

    // A poll refreshes updated_at, so the session survives the sweep.
    if _, err := g.Status(ctx, res.SessionID, 1); err != nil {
        t.Fatalf("status: %v", err)
    }
    n, _ := g.ReapStale(ctx, "evt")
    if n != 0 {
        t.Fatalf("reaped %d, want 0: polling session must not be reaped", n)
    }
}
