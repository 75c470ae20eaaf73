package utils

import (
    "testing"
    "time"
)

func TestGatePassRoundTrip(t *testing.T) {
    pass, err := NewGatePass("secret", "sess-1", "evt-1", time.Minute)
    if err != nil {
        t.Fatalf("new gate pass: %v", err)
    }
    sub, evt, err := ParseGatePass("secret", pass.Token)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if sub != "sess-1" || evt != "evt-1" {
        t.Fatalf("claims = %s/%s, want sess-1/evt-1", sub, evt)
    }
}

func TestGatePassRejectsWrongSecret(t *testing.T) {
    pass, err := NewGatePass("secret", "sess-1", "evt-1", time.Minute)
    if err != nil {
        t.Fatalf("new gate pass: %v", err)
    }
    if _, _, err := ParseGatePass("other", pass.Token); err != ErrInvalidGatePass {
        t.Fatalf("err = %v, want ErrInvalidGatePass", err)
    }
}

func TestGatePassRejectsExpired(t *testing.T) {
    pass, err := NewGatePass("secret", "sess-1", "evt-1", -time.Minute)
    if err != nil {
        t.Fatalf("new gate pass: %v", err)
    }
    if _, _, err := ParseGatePass("secret", pass.Token); err != ErrInvalidGatePass {
        t.Fatalf("expired pass accepted: err = %v", err)
    }
}

func TestGatePassRejectsGarbage(t *testing.T) {
    if _, _, err := ParseGatePass("secret", "not.a.jwt"); err != ErrInvalidGatePass {
        t.Fatalf("err = %v, want ErrInvalidGatePass", err)
    }
}
