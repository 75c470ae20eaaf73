package checkout

import (
    "regexp"
    "strings"

    "github.com/arenalive/ticketgate/internal/model"
)

// Form field names, in document order. The order drives which field the
// UI focuses when multiple fields fail at once.
const (
    FieldFullName      = "full_name"
    FieldEmail         = "email"
    FieldStreetAddress = "street_address"
    FieldCity          = "city"
    FieldState         = "state"
    FieldZipCode       = "zip_code"
    FieldAcceptedTerms = "accepted_terms"
)

var fieldOrder = []string{
    FieldFullName,
    FieldEmail,
    FieldStreetAddress,
    FieldCity,
    FieldState,
    FieldZipCode,
    FieldAcceptedTerms,
}

var (
    // One address only: no whitespace (which covers the CR/LF header
    // injection vectors) and no commas (which would smuggle in a second
    // recipient), with a dotted TLD of at least two letters.
    emailRe = regexp.MustCompile(`^[^\s@,]+@[^\s@,]+\.[A-Za-z]{2,}$`)
    zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Validate checks every buyer field in one pass and returns nil when all
// rules hold. It never short-circuits: N independently invalid fields
// produce exactly N entries. Rules are structural only and apply
// unconditionally regardless of which payment backend is configured;
// card validity is entirely the payment processor's concern and is not
// checked here.
func Validate(form *model.CheckoutForm) *ValidationError {
    fields := make(map[string]string)
    for _, name := range fieldOrder {
        if msg, ok := validateField(form, name); !ok {
            fields[name] = msg
        }
    }
    if len(fields) == 0 {
        return nil
    }
    first := ""
    for _, name := range fieldOrder {
        if _, bad := fields[name]; bad {
            first = name
            break
        }
    }
    return &ValidationError{Fields: fields, FirstField: first}
}

// validateField applies a single field's rule, independent of every
// other field. Returns the error message and false when the rule fails.
func validateField(form *model.CheckoutForm, name string) (string, bool) {
    switch name {
    case FieldFullName:
        if strings.TrimSpace(form.FullName) == "" {
            return "full name is required", false
        }
    case FieldEmail:
        email := strings.TrimSpace(form.Email)
        if email == "" {
            return "email is required", false
        }
        if strings.ContainsAny(email, "\r\n") {
            return "email contains invalid characters", false
        }
        if !emailRe.MatchString(email) {
            return "enter a valid email address", false
        }
    case FieldStreetAddress:
        if strings.TrimSpace(form.StreetAddress) == "" {
            return "street address is required", false
        }
    case FieldCity:
        if strings.TrimSpace(form.City) == "" {
            return "city is required", false
        }
    case FieldState:
        if strings.TrimSpace(form.State) == "" {
            return "state is required", false
        }
    case FieldZipCode:
        if !zipRe.MatchString(strings.TrimSpace(form.ZipCode)) {
            return "enter a valid ZIP code", false
        }
    case FieldAcceptedTerms:
        if !form.AcceptedTerms {
            return "you must accept the terms to continue", false
        }
    }
    return "", true
}
