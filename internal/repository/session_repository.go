package repository

import (
    "context"
    "crypto/rand"
    "database/sql"
    "encoding/hex"
    "errors"
    "time"

    "github.com/arenalive/ticketgate/internal/model"
)

// SessionRepo provides data access to the ticketing_sessions table.  It
// implements the gate's SessionStore capability: creation, conditional
// status transitions, waiting-queue position queries, the atomic
// promotion guard and staleness reaping.  All timestamp comparisons are
// performed in UTC via UTC_TIMESTAMP() so results do not depend on the
// connection time zone.
type SessionRepo struct {
    db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the provided database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// NewSessionID generates the opaque token used as a session primary key:
// 32 cryptographically random bytes hex-encoded to 64 characters.
func NewSessionID() (string, error) {
    b := make([]byte, 32)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}

// Create inserts a new session row.  CreatedAt and UpdatedAt default in
// the database; EnteredAt is only ever set by a successful promotion.
func (r *SessionRepo) Create(ctx context.Context, s *model.TicketingSession) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO ticketing_sessions (id, event_id, status) VALUES (?, ?, ?)`,
        s.ID, s.EventID, string(s.Status),
    )
    return err
}

// Get fetches a session by its token.  Returns ErrSessionNotFound when
// no row matches.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.TicketingSession, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT id, event_id, status, entered_at, created_at, updated_at
         FROM ticketing_sessions WHERE id = ?`, id)
    var s model.TicketingSession
    var status string
    var enteredAt sql.NullTime
    if err := row.Scan(&s.ID, &s.EventID, &status, &enteredAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrSessionNotFound
        }
        return nil, err
    }
    s.Status = model.SessionStatus(status)
    if enteredAt.Valid {
        t := enteredAt.Time
        s.EnteredAt = &t
    }
    return &s, nil
}

// Transition performs a conditional status update: the row is modified
// only when its current status matches the expected `from` value.  It
// returns false, never a silent no-op, when the guard fails.  This is
// the compare-and-set primitive the gate's correctness rests on.
// Promoting to ACTIVE additionally stamps entered_at.
func (r *SessionRepo) Transition(ctx context.Context, id string, from, to model.SessionStatus) (bool, error) {
    return r.transition(ctx, r.db, id, from, to)
}

// execer abstracts *sql.DB and *sql.Tx so the conditional transition can
// run standalone or inside the promotion transaction.
type execer interface {
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *SessionRepo) transition(ctx context.Context, ex execer, id string, from, to model.SessionStatus) (bool, error) {
    var res sql.Result
    var err error
    if to == model.SessionActive {
        res, err = ex.ExecContext(ctx,
            `UPDATE ticketing_sessions
             SET status = ?, entered_at = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
             WHERE id = ? AND status = ?`,
            string(to), id, string(from))
    } else {
        res, err = ex.ExecContext(ctx,
            `UPDATE ticketing_sessions
             SET status = ?, updated_at = UTC_TIMESTAMP()
             WHERE id = ? AND status = ?`,
            string(to), id, string(from))
    }
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// CountByStatus returns the number of sessions for an event in the given
// status.  Used for the active/waiting counts reported to polling clients.
func (r *SessionRepo) CountByStatus(ctx context.Context, eventID string, status model.SessionStatus) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM ticketing_sessions WHERE event_id = ? AND status = ?`,
        eventID, string(status)).Scan(&n)
    return n, err
}

// WaitingPosition computes the 1-indexed rank of a waiting session among
// its event's waiting set, ordered by (created_at, id) ascending.  The
// id tie-break keeps the ordering total when two sessions share a
// creation timestamp.
func (r *SessionRepo) WaitingPosition(ctx context.Context, id string) (int, error) {
    var pos int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) + 1
         FROM ticketing_sessions w
         JOIN ticketing_sessions s ON s.id = ?
         WHERE w.event_id = s.event_id
           AND w.status = 'waiting'
           AND (w.created_at < s.created_at
                OR (w.created_at = s.created_at AND w.id < s.id))`,
        id).Scan(&pos)
    return pos, err
}

// PromoteIfEligible atomically promotes the session to ACTIVE when, and
// only when, both guards hold at the same instant:
//
//   1. the event's ACTIVE count is below maxConcurrent, and
//   2. the session is the oldest WAITING session for the event
//      (FIFO; a later arrival can never jump the queue).
//
// The check-then-transition runs inside a single transaction that locks
// the event's non-terminal rows, so two concurrently polling sessions
// can never both be promoted into one freed slot.  Returns true when
// this call performed the promotion.
func (r *SessionRepo) PromoteIfEligible(ctx context.Context, id, eventID string, maxConcurrent int) (bool, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Lock the active set so its size cannot change under us.
    var active int
    if err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM ticketing_sessions
         WHERE event_id = ? AND status = 'active' FOR UPDATE`,
        eventID).Scan(&active); err != nil {
        return false, err
    }
    if active >= maxConcurrent {
        return false, nil
    }

    // Lock the head of the waiting queue; only the oldest may advance.
    var oldest string
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM ticketing_sessions
         WHERE event_id = ? AND status = 'waiting'
         ORDER BY created_at, id LIMIT 1 FOR UPDATE`,
        eventID).Scan(&oldest)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    if oldest != id {
        return false, nil
    }

    ok, err := r.transition(ctx, tx, id, model.SessionWaiting, model.SessionActive)
    if err != nil {
        return false, err
    }
    if !ok {
        return false, nil
    }
    if err := tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return true, nil
}

// Touch refreshes updated_at for a non-terminal session so active polling
// keeps it out of the staleness reaper's reach.
func (r *SessionRepo) Touch(ctx context.Context, id string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE ticketing_sessions SET updated_at = UTC_TIMESTAMP()
         WHERE id = ? AND status <> 'completed'`, id)
    return err
}

// ReapStale marks every non-terminal session for the event whose last
// activity is older than the threshold as completed, freeing both active
// capacity and queue positions.  Returns the number of reaped sessions.
func (r *SessionRepo) ReapStale(ctx context.Context, eventID string, olderThan time.Duration) (int, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE ticketing_sessions
         SET status = 'completed', updated_at = UTC_TIMESTAMP()
         WHERE event_id = ? AND status <> 'completed'
           AND updated_at <= UTC_TIMESTAMP() - INTERVAL ? SECOND`,
        eventID, int64(olderThan.Seconds()))
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}

// EventsWithOpenSessions lists the events that currently have at least
// one non-terminal session.  The background reaper iterates this set so
// it never has to know the event catalogue.
func (r *SessionRepo) EventsWithOpenSessions(ctx context.Context) ([]string, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT DISTINCT event_id FROM ticketing_sessions WHERE status <> 'completed'`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var events []string
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        events = append(events, id)
    }
    return events, rows.Err()
}
