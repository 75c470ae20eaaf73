package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/arenalive/ticketgate/internal/gate"
    "github.com/arenalive/ticketgate/internal/model"
    "github.com/arenalive/ticketgate/internal/repository"
    "github.com/arenalive/ticketgate/internal/utils"
)

func testContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, path, nil)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestNoGatePassWithoutEventID(t *testing.T) {
    h := &GateHandler{GatePassSecret: "secret", GatePassTTL: time.Minute}
    c, _ := testContext(http.MethodGet, "/")

    // A pass with an empty evt claim would bind checkout to nothing, so
    // a granted result without a resolved event mints no pass at all.
    out := h.respond(c, "", gate.Result{Granted: true, SessionID: "sess-1"})
    if out.GatePass != "" {
        t.Fatalf("pass minted with no event to bind: %q", out.GatePass)
    }
    if !out.Granted {
        t.Fatal("granted flag lost in the response")
    }
}

func TestGatePassMintedForGrantedSession(t *testing.T) {
    h := &GateHandler{GatePassSecret: "secret", GatePassTTL: time.Minute}
    c, _ := testContext(http.MethodGet, "/")

    out := h.respond(c, "evt-1", gate.Result{Granted: true, SessionID: "sess-1"})
    if out.GatePass == "" {
        t.Fatal("granted session got no gate pass")
    }
    sub, evt, err := utils.ParseGatePass("secret", out.GatePass)
    if err != nil || sub != "sess-1" || evt != "evt-1" {
        t.Fatalf("pass claims = %s/%s err=%v, want sess-1/evt-1", sub, evt, err)
    }
}

func TestWaitingSessionGetsPollHintNotPass(t *testing.T) {
    h := &GateHandler{GatePassSecret: "secret", GatePassTTL: time.Minute}
    c, _ := testContext(http.MethodGet, "/")

    out := h.respond(c, "evt-1", gate.Result{Granted: false, SessionID: "sess-1", QueuePosition: 2})
    if out.GatePass != "" {
        t.Fatal("waiting session must not receive a gate pass")
    }
    if out.PollIntervalSec == 0 {
        t.Fatal("waiting session missing the poll interval hint")
    }
}

// singleSessionStore backs the gate with exactly one pre-seeded session,
// just enough for handler-level exit tests.
type singleSessionStore struct {
    session *model.TicketingSession
}

func (m *singleSessionStore) Create(_ context.Context, s *model.TicketingSession) error {
    m.session = s
    return nil
}

func (m *singleSessionStore) Get(_ context.Context, id string) (*model.TicketingSession, error) {
    if m.session == nil || m.session.ID != id {
        return nil, repository.ErrSessionNotFound
    }
    cp := *m.session
    return &cp, nil
}

func (m *singleSessionStore) Transition(_ context.Context, id string, from, to model.SessionStatus) (bool, error) {
    if m.session == nil || m.session.ID != id || m.session.Status != from {
        return false, nil
    }
    m.session.Status = to
    return true, nil
}

func (m *singleSessionStore) CountByStatus(_ context.Context, _ string, status model.SessionStatus) (int, error) {
    if m.session != nil && m.session.Status == status {
        return 1, nil
    }
    return 0, nil
}

func (m *singleSessionStore) WaitingPosition(_ context.Context, _ string) (int, error) {
    return 1, nil
}

func (m *singleSessionStore) PromoteIfEligible(_ context.Context, id, _ string, _ int) (bool, error) {
    return m.Transition(context.Background(), id, model.SessionWaiting, model.SessionActive)
}

func (m *singleSessionStore) Touch(_ context.Context, _ string) error { return nil }

func (m *singleSessionStore) ReapStale(_ context.Context, _ string, _ time.Duration) (int, error) {
    return 0, nil
}

func (m *singleSessionStore) EventsWithOpenSessions(_ context.Context) ([]string, error) {
    return nil, nil
}

type recordingAbandoner struct {
    ids []string
}

func (r *recordingAbandoner) Abandon(id string) { r.ids = append(r.ids, id) }

func TestExitAbandonsCheckoutAttempt(t *testing.T) {
    store := &singleSessionStore{session: &model.TicketingSession{
        ID: "sess-1", EventID: "evt-1", Status: model.SessionActive,
    }}
    abandoner := &recordingAbandoner{}
    h := NewGateHandler(gate.New(store), abandoner, 5, "secret", time.Minute)

    c, rec := testContext(http.MethodDelete, "/v1/gate/sess-1")
    c.SetParamNames("session")
    c.SetParamValues("sess-1")

    if err := h.Exit(c); err != nil {
        t.Fatalf("exit: %v", err)
    }
    if rec.Code != http.StatusNoContent {
        t.Fatalf("status = %d, want 204", rec.Code)
    }
    if len(abandoner.ids) != 1 || abandoner.ids[0] != "sess-1" {
        t.Fatalf("abandoned = %v, want exactly [sess-1]", abandoner.ids)
    }
    if store.session.Status != model.SessionCompleted {
        t.Fatalf("session status = %s after exit, want completed", store.session.Status)
    }
}
