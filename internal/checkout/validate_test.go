package checkout

import (
    "testing"

    "github.com/arenalive/ticketgate/internal/model"
)

func validForm() model.CheckoutForm {
    return model.CheckoutForm{
        FullName:      "Ada Lovelace",
        Email:         "ada@example.com",
        StreetAddress: "1 Analytical Way",
        City:          "London",
        State:         "CA",
        ZipCode:       "94110",
        AcceptedTerms: true,
    }
}

func TestValidFormPasses(t *testing.T) {
    form := validForm()
    if verr := Validate(&form); verr != nil {
        t.Fatalf("valid form rejected: %+v", verr.Fields)
    }
}

func TestAllInvalidFieldsReportedTogether(t *testing.T) {
    form := validForm()
    form.FullName = "   "
    form.Email = "not-an-email"
    form.ZipCode = "ABCDE"

    verr := Validate(&form)
    if verr == nil {
        t.Fatal("expected validation failure")
    }
    if len(verr.Fields) != 3 {
        t.Fatalf("got %d field errors (%v), want 3; validation must not short-circuit", len(verr.Fields), verr.Fields)
    }
    for _, f := range []string{FieldFullName, FieldEmail, FieldZipCode} {
        if _, ok := verr.Fields[f]; !ok {
            t.Fatalf("missing error for %s: %v", f, verr.Fields)
        }
    }
}

func TestFirstFieldFollowsDocumentOrder(t *testing.T) {
    form := validForm()
    form.ZipCode = ""
    form.Email = "nope"

    verr := Validate(&form)
    if verr == nil {
        t.Fatal("expected validation failure")
    }
    if verr.FirstField != FieldEmail {
        t.Fatalf("first field = %s, want %s (document order, not map order)", verr.FirstField, FieldEmail)
    }
}

func TestEmailRejectsInjectionAndMultipleRecipients(t *testing.T) {
    bad := []string{
        "a@b.com\r\nBcc: evil@example.com",
        "a@b.com\nx@y.com",
        "a@b.com,second@b.com",
        "a b@c.com",
        "plain",
        "@nodomain.com",
        "user@",
        "user@domain",
        "user@domain.c",
    }
    for _, email := range bad {
        form := validForm()
        form.Email = email
        verr := Validate(&form)
        if verr == nil {
            t.Fatalf("email %q accepted, want rejection", email)
        }
        if _, ok := verr.Fields[FieldEmail]; !ok {
            t.Fatalf("email %q rejected but not on the email field: %v", email, verr.Fields)
        }
    }
}

func TestEmailAcceptsCommonShapes(t *testing.T) {
    good := []string{
        "user@example.com",
        "first.last+tag@sub.domain.co",
        "  padded@example.org  ",
    }
    for _, email := range good {
        form := validForm()
        form.Email = email
        if verr := Validate(&form); verr != nil {
            t.Fatalf("email %q rejected: %v", email, verr.Fields)
        }
    }
}

func TestZipCodeVariants(t *testing.T) {
    cases := []struct {
        zip string
        ok  bool
    }{
        {"94110", true},
        {"94110-1234", true},
        {" 94110 ", true},
        {"9411", false},
        {"941100", false},
        {"ABCDE", false},
        {"94110-12", false},
        {"", false},
    }
    for _, tc := range cases {
        form := validForm()
        form.ZipCode = tc.zip
        verr := Validate(&form)
        if tc.ok && verr != nil {
            t.Fatalf("zip %q rejected: %v", tc.zip, verr.Fields)
        }
        if !tc.ok {
            if verr == nil {
                t.Fatalf("zip %q accepted, want rejection", tc.zip)
            }
            if _, bad := verr.Fields[FieldZipCode]; !bad {
                t.Fatalf("zip %q failure landed on wrong field: %v", tc.zip, verr.Fields)
            }
        }
    }
}

func TestTermsMustBeAccepted(t *testing.T) {
    form := validForm()
    form.AcceptedTerms = false
    verr := Validate(&form)
    if verr == nil {
        t.Fatal("unaccepted terms passed validation")
    }
    if verr.FirstField != FieldAcceptedTerms {
        t.Fatalf("first field = %s, want %s when only terms fail", verr.FirstField, FieldAcceptedTerms)
    }
}

func TestWhitespaceOnlyRequiredFields(t *testing.T) {
    for _, field := range []string{FieldStreetAddress, FieldCity, FieldState} {
        form := validForm()
        switch field {
        case FieldStreetAddress:
            form.StreetAddress = " \t "
        case FieldCity:
            form.City = "  "
        case FieldState:
            form.State = "\t"
        }
        verr := Validate(&form)
        if verr == nil {
            t.Fatalf("whitespace-only %s accepted", field)
        }
        if _, ok := verr.Fields[field]; !ok {
            t.Fatalf("whitespace-only %s failure missing: %v", field, verr.Fields)
        }
    }
}
