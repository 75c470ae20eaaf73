// Package checkout implements the order pipeline that runs once a buyer
// is admitted through the gate: tier selection, pricing, buyer-field
// validation and a single synchronous payment attempt, modeled as a
// three-state machine. The pipeline never mutates gate state directly;
// it signals exit through the gate service and reads its own session's
// status before every step.
package checkout

import (
    "context"
    "errors"
    "log"
    "strconv"
    "time"

    "github.com/arenalive/ticketgate/internal/gate"
    "github.com/arenalive/ticketgate/internal/model"
    "github.com/arenalive/ticketgate/internal/payment"
    "github.com/arenalive/ticketgate/internal/pricing"
    "github.com/arenalive/ticketgate/internal/queue"
    "github.com/arenalive/ticketgate/internal/repository"
)

// TierSource supplies the event's active tiers, ordered by tier_order.
type TierSource interface {
    ActiveByEvent(ctx context.Context, eventID string) ([]model.TicketTier, error)
}

// FeeSource supplies the active fee schedule for an environment scope.
type FeeSource interface {
    ActiveByScope(ctx context.Context, scope string) ([]model.FeeRule, error)
}

// PromoSource resolves promo codes. Implementations return
// repository.ErrPromoNotFound for unknown or inactive codes.
type PromoSource interface {
    ByCode(ctx context.Context, code string) (*model.PromoCode, error)
}

// OrderWriter persists a confirmed order with its line items.
type OrderWriter interface {
    Create(ctx context.Context, o *model.Order, tickets []model.TicketSelectionSummary) (uint64, error)
}

// CompletionPublisher emits the order-completed event to fulfillment.
type CompletionPublisher interface {
    PublishOrderCompleted(ctx context.Context, event queue.OrderCompletedEvent) error
}

// Service drives checkout attempts. The fee engine and validation it
// calls are pure; the only shared mutable state is the in-memory
// attempt store and, through the gate, the session table.
type Service struct {
    gate      *gate.Gate
    tiers     TierSource
    fees      FeeSource
    promos    PromoSource
    processor payment.Processor
    orders    OrderWriter
    publisher CompletionPublisher

    scope              string
    protectionFeeCents int64
    attempts           *attemptStore
}

// NewService constructs the checkout service. gate, tiers, fees and
// processor must be non-nil; orders, promos and publisher may be nil in
// reduced configurations (dev without a broker) and are skipped with a
// log line when absent.
func NewService(g *gate.Gate, tiers TierSource, fees FeeSource, promos PromoSource, processor payment.Processor, orders OrderWriter, publisher CompletionPublisher, scope string, protectionFeeCents int64) *Service {
    if g == nil || tiers == nil || fees == nil || processor == nil {
        panic("nil dependency passed to checkout.NewService")
    }
    return &Service{
        gate:               g,
        tiers:              tiers,
        fees:               fees,
        promos:             promos,
        processor:          processor,
        orders:             orders,
        publisher:          publisher,
        scope:              scope,
        protectionFeeCents: protectionFeeCents,
        attempts:           newAttemptStore(),
    }
}

// Start begins a checkout attempt for an admitted gate session. The
// session must currently hold an active slot; a completed or reaped
// session fails with gate.ErrSessionExpired and must re-enter the gate.
// Starting twice is idempotent while the attempt is still on the
// selection step.
func (s *Service) Start(ctx context.Context, gateSessionID string) (*Snapshot, error) {
    sess, err := s.gate.Verify(ctx, gateSessionID)
    if err != nil {
        return nil, err
    }
    if a, ok := s.attempts.get(gateSessionID); ok {
        return s.snapshotLocked(a), nil
    }
    a := &Session{
        GateSessionID: gateSessionID,
        EventID:       sess.EventID,
        State:         StateSelection,
    }
    s.attempts.put(a)
    return s.snapshotLocked(a), nil
}

// Select captures a non-empty tier selection and advances
// Selection -> Checkout, returning the priced summary. Called again
// from Checkout (after Back) it simply re-captures and re-prices.
func (s *Service) Select(ctx context.Context, gateSessionID string, selections []pricing.Selection) (*Snapshot, error) {
    a, err := s.attempt(ctx, gateSessionID)
    if err != nil {
        return nil, err
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.State == StateConfirmation {
        return nil, ErrInvalidTransition
    }
    any := false
    for _, sel := range selections {
        if sel.Quantity > 0 {
            any = true
            break
        }
    }
    if !any {
        return nil, ErrEmptySelection
    }
    a.Selections = selections
    summary, err := s.price(ctx, a)
    if err != nil {
        return nil, err
    }
    a.Summary = summary
    a.State = StateCheckout
    return s.snapshot(a), nil
}

// Back returns from Checkout to Selection. Nothing is discarded: the
// selections and any entered form values are preserved so the buyer
// never re-enters quantities.
func (s *Service) Back(ctx context.Context, gateSessionID string) (*Snapshot, error) {
    a, err := s.attempt(ctx, gateSessionID)
    if err != nil {
        return nil, err
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.State != StateCheckout {
        return nil, ErrInvalidTransition
    }
    a.State = StateSelection
    return s.snapshot(a), nil
}

// Quote re-prices the current selection with an optional promo code and
// the protection add-on flag. The summary is recomputed from scratch on
// every call; it is derived data, never cached across changes. An
// unknown promo code comes back as a promo_code field error, not a
// server fault.
func (s *Service) Quote(ctx context.Context, gateSessionID, promoCode string, protection bool) (*Snapshot, error) {
    a, err := s.attempt(ctx, gateSessionID)
    if err != nil {
        return nil, err
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.State != StateCheckout {
        return nil, ErrInvalidTransition
    }
    prevPromo, prevProtection := a.PromoCode, a.Protection
    a.PromoCode = promoCode
    a.Protection = protection
    summary, err := s.price(ctx, a)
    if err != nil {
        // A rejected code must not stick to the attempt, or every later
        // submit would re-fail on a value the buyer never committed.
        a.PromoCode, a.Protection = prevPromo, prevProtection
        return nil, err
    }
    a.Summary = summary
    return s.snapshot(a), nil
}

// EditField updates a single form field and re-validates only that
// field: its error clears as soon as its own rule passes, while every
// other field's error is left untouched. accepted_terms parses as a
// boolean; all other fields are plain strings.
func (s *Service) EditField(ctx context.Context, gateSessionID, field, value string) (*Snapshot, error) {
    a, err := s.attempt(ctx, gateSessionID)
    if err != nil {
        return nil, err
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.State != StateCheckout {
        return nil, ErrInvalidTransition
    }
    switch field {
    case FieldFullName:
        a.Form.FullName = value
    case FieldEmail:
        a.Form.Email = value
    case FieldStreetAddress:
        a.Form.StreetAddress = value
    case FieldCity:
        a.Form.City = value
    case FieldState:
        a.Form.State = value
    case FieldZipCode:
        a.Form.ZipCode = value
    case FieldAcceptedTerms:
        b, parseErr := strconv.ParseBool(value)
        if parseErr != nil {
            b = false
        }
        a.Form.AcceptedTerms = b
    default:
        return nil, &ValidationError{Fields: map[string]string{field: "unknown field"}, FirstField: field}
    }
    if a.FieldErrors != nil {
        if _, msgOK := validateField(&a.Form, field); msgOK {
            delete(a.FieldErrors, field)
        }
    }
    return s.snapshot(a), nil
}

// Submit runs the only path into Confirmation: validate every buyer
// field in one pass, re-price, and drive a single synchronous payment
// attempt. On approval the attempt reaches the terminal state and the
// side effects fire; on decline or processor failure the attempt stays
// in Checkout with the buyer's form values intact and only the
// transient payment fields cleared.
func (s *Service) Submit(ctx context.Context, gateSessionID string, form model.CheckoutForm) (*Snapshot, error) {
    a, err := s.attempt(ctx, gateSessionID)
    if err != nil {
        return nil, err
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.State != StateCheckout {
        return nil, ErrInvalidTransition
    }
    a.Form = form

    if verr := Validate(&a.Form); verr != nil {
        a.FieldErrors = verr.Fields
        return nil, verr
    }
    a.FieldErrors = nil

    summary, err := s.price(ctx, a)
    if err != nil {
        return nil, err
    }
    a.Summary = summary

    chargeTotal := summary.TotalCents
    if a.Protection {
        chargeTotal += s.protectionFeeCents
    }

    result, err := s.processor.Charge(ctx, payment.ChargeRequest{
        AmountCents: chargeTotal,
        Currency:    "usd",
        SessionID:   a.GateSessionID,
        SaveCard:    a.Form.SaveCard,
        SavedCardID: a.Form.SavedCardID,
    })
    if err != nil {
        a.Form.ClearPaymentState()
        log.Printf("checkout: payment infrastructure failure for session %s: %v", a.GateSessionID, err)
        return nil, &PaymentError{Declined: false, Reason: "payment could not be processed, please try again"}
    }
    if !result.Approved {
        a.Form.ClearPaymentState()
        reason := result.Reason
        if reason == "" {
            reason = "card was declined"
        }
        return nil, &PaymentError{Declined: true, Reason: reason}
    }

    a.State = StateConfirmation
    a.PaymentRef = result.Reference
    s.confirm(ctx, a, chargeTotal)
    return s.snapshot(a), nil
}

// Snapshot returns the attempt's current state for the UI.
func (s *Service) Snapshot(ctx context.Context, gateSessionID string) (*Snapshot, error) {
    a, ok := s.attempts.get(gateSessionID)
    if !ok {
        return nil, ErrAttemptNotFound
    }
    return s.snapshotLocked(a), nil
}

// Abandon drops the attempt's transient state. Called when the gate
// session goes away; confirmed attempts are dropped too since all their
// durable effects have already fired.
func (s *Service) Abandon(gateSessionID string) {
    s.attempts.delete(gateSessionID)
}

// confirm fires the completion side effects exactly once, then evicts
// the attempt from the store: its durable effects are all done, so the
// store only ever holds live attempts. The side effects are
// fire-and-forget from the state machine's perspective: a failure to
// persist, publish or release the gate never rolls back a successful
// payment; it is logged, and the gate's staleness reaper is the
// backstop for the slot release.
func (s *Service) confirm(ctx context.Context, a *Session, chargeTotal int64) {
    if a.completed {
        return
    }
    a.completed = true

    if s.orders != nil {
        id, err := s.orders.Create(ctx, &model.Order{
            SessionID:       a.GateSessionID,
            EventID:         a.EventID,
            TotalCents:      chargeTotal,
            PaymentRef:      a.PaymentRef,
            ProtectionAddOn: a.Protection,
        }, a.Summary.Tickets)
        if err != nil {
            log.Printf("checkout: order persist failed for session %s: %v", a.GateSessionID, err)
        } else {
            a.OrderID = id
        }
    }

    if s.publisher != nil {
        err := s.publisher.PublishOrderCompleted(ctx, queue.OrderCompletedEvent{
            OrderID:         a.OrderID,
            EventID:         a.EventID,
            SessionID:       a.GateSessionID,
            Tickets:         a.Summary.Tickets,
            TotalCents:      chargeTotal,
            ProtectionAddOn: a.Protection,
            PaymentRef:      a.PaymentRef,
            ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
        })
        if err != nil {
            log.Printf("checkout: completion publish failed for session %s: %v", a.GateSessionID, err)
        }
    }

    if err := s.gate.Exit(ctx, a.GateSessionID); err != nil {
        log.Printf("checkout: gate exit failed for session %s (reaper will reclaim): %v", a.GateSessionID, err)
    }

    s.attempts.delete(a.GateSessionID)
}

// attempt loads the attempt and re-verifies the gate session. A session
// that was reaped mid-checkout is fatal to the attempt: the buyer must
// go back through the gate, never a silent retry.
func (s *Service) attempt(ctx context.Context, gateSessionID string) (*Session, error) {
    a, ok := s.attempts.get(gateSessionID)
    if !ok {
        return nil, ErrAttemptNotFound
    }
    if _, err := s.gate.Verify(ctx, gateSessionID); err != nil {
        if errors.Is(err, gate.ErrSessionExpired) || errors.Is(err, gate.ErrSessionNotFound) {
            s.attempts.delete(gateSessionID)
        }
        return nil, err
    }
    return a, nil
}

// price recomputes the order summary from the attempt's current
// selections, promo code and the live fee schedule. Only tiers visible
// to the buyer participate; a selection naming anything else is silently
// excluded by the engine.
func (s *Service) price(ctx context.Context, a *Session) (*model.OrderSummary, error) {
    tiers, err := s.tiers.ActiveByEvent(ctx, a.EventID)
    if err != nil {
        return nil, err
    }
    rules, err := s.fees.ActiveByScope(ctx, s.scope)
    if err != nil {
        return nil, err
    }
    var promo *model.PromoCode
    if a.PromoCode != "" && s.promos != nil {
        promo, err = s.promos.ByCode(ctx, a.PromoCode)
        if err != nil {
            if errors.Is(err, repository.ErrPromoNotFound) {
                return nil, &ValidationError{
                    Fields:     map[string]string{"promo_code": "invalid promo code"},
                    FirstField: "promo_code",
                }
            }
            return nil, err
        }
    }
    summary := pricing.PriceOrder(a.Selections, pricing.VisibleTiers(tiers), promo, rules)
    return &summary, nil
}

// snapshot builds the UI view. Caller must hold a.mu.
func (s *Service) snapshot(a *Session) *Snapshot {
    snap := &Snapshot{
        State:       a.State,
        Selections:  a.Selections,
        Summary:     a.Summary,
        FieldErrors: a.FieldErrors,
        PromoCode:   a.PromoCode,
        Protection:  a.Protection,
        PaymentRef:  a.PaymentRef,
    }
    if a.Summary != nil {
        snap.ChargeTotalCents = a.Summary.TotalCents
        if a.Protection {
            snap.ChargeTotalCents += s.protectionFeeCents
        }
    }
    return snap
}

// snapshotLocked is snapshot with the lock taken here.
func (s *Service) snapshotLocked(a *Session) *Snapshot {
    a.mu.Lock()
    defer a.mu.Unlock()
    return s.snapshot(a)
}
