package checkout

import (
    "sync"

    "github.com/arenalive/ticketgate/internal/model"
    "github.com/arenalive/ticketgate/internal/pricing"
)

// State is the checkout attempt's position in the three-step flow.
// The flow is linear: Selection -> Checkout -> Confirmation, with
// Checkout -> Selection as the only backward edge. There is no failed
// terminal state; a failed payment returns the attempt to Checkout
// with an error surfaced, never a dead end.
type State string

const (
    StateSelection    State = "selection"
    StateCheckout     State = "checkout"
    StateConfirmation State = "confirmation"
)

// Session is one checkout attempt, keyed by the buyer's gate session.
// Everything here is transient: built after gate admission, discarded on
// completion or abandonment, never persisted. The mutex serializes
// operations on the attempt; there are never two concurrent payment
// attempts for one session.
type Session struct {
    mu sync.Mutex

    GateSessionID string
    EventID       string
    State         State

    Selections  []pricing.Selection
    Form        model.CheckoutForm
    FieldErrors map[string]string
    PromoCode   string
    Protection  bool

    Summary *model.OrderSummary

    // Set exactly once, on the transition to Confirmation.
    completed  bool
    OrderID    uint64
    PaymentRef string
}

// Snapshot is the read-only view exposed to the UI collaborator.
type Snapshot struct {
    State            State               `json:"state"`
    Selections       []pricing.Selection `json:"selections"`
    Summary          *model.OrderSummary `json:"summary,omitempty"`
    FieldErrors      map[string]string   `json:"field_errors,omitempty"`
    PromoCode        string              `json:"promo_code,omitempty"`
    Protection       bool                `json:"protection"`
    ChargeTotalCents int64               `json:"charge_total_cents"`
    PaymentRef       string              `json:"payment_ref,omitempty"`
}

// attemptStore holds live checkout attempts in memory. Attempts are
// small, short-lived and owned by exactly one server process for their
// whole life, so a mutex-guarded map is all the persistence they need.
type attemptStore struct {
    mu       sync.RWMutex
    attempts map[string]*Session
}

func newAttemptStore() *attemptStore {
    return &attemptStore{attempts: make(map[string]*Session)}
}

func (s *attemptStore) get(id string) (*Session, bool) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    a, ok := s.attempts[id]
    return a, ok
}

func (s *attemptStore) put(a *Session) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.attempts[a.GateSessionID] = a
}

func (s *attemptStore) delete(id string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.attempts, id)
}
