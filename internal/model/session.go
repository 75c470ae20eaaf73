package model

import "time"

// SessionStatus enumerates the lifecycle states of a ticketing session.
// A session starts as WAITING or ACTIVE depending on event capacity and
// always terminates as COMPLETED.  There are no other states and no
// transitions out of COMPLETED.
type SessionStatus string

const (
    SessionActive    SessionStatus = "active"    // holds one of the event's concurrent purchase slots
    SessionWaiting   SessionStatus = "waiting"   // queued behind the capacity ceiling
    SessionCompleted SessionStatus = "completed" // terminal; slot/queue position released
)

// TicketingSession represents one buyer's attempt to access an event's
// ticketing flow.  Sessions are anonymous: the ID is an opaque random
// token generated server-side and handed to the browser, with no durable
// account linkage.
//
// Fields:
//  ID        - opaque session token (64 hex chars), unique per event.
//  EventID   - event whose gate this session entered.
//  Status    - current lifecycle state (see SessionStatus).
//  EnteredAt - when the session was promoted to ACTIVE; nil while waiting.
//  CreatedAt - when the session first entered the gate.  Promotion order
//              among waiting sessions is (CreatedAt, ID) ascending.
//  UpdatedAt - last activity (creation, poll, transition).  Sessions idle
//              longer than the staleness threshold are reaped.
type TicketingSession struct {
    ID        string        // ticketing_sessions.id
    EventID   string        // ticketing_sessions.event_id
    Status    SessionStatus // ticketing_sessions.status
    EnteredAt *time.Time    // ticketing_sessions.entered_at (nullable)
    CreatedAt time.Time     // ticketing_sessions.created_at
    UpdatedAt time.Time     // ticketing_sessions.updated_at
}

// IsTerminal reports whether the session has reached its final state.
func (s *TicketingSession) IsTerminal() bool {
    return s.Status == SessionCompleted
}
