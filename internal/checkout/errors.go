package checkout

import (
    "errors"
    "fmt"
)

// ErrAttemptNotFound is returned when no checkout attempt exists for the
// given gate session. Handlers translate this into an HTTP 404.
var ErrAttemptNotFound = errors.New("checkout attempt not found")

// ErrEmptySelection is returned when the buyer tries to advance to
// checkout without any positive-quantity tier selection.
var ErrEmptySelection = errors.New("at least one ticket must be selected")

// ErrInvalidTransition is returned when an operation is called in a
// state that does not permit it, e.g. submitting payment while still on
// the selection step.
var ErrInvalidTransition = errors.New("operation not allowed in current checkout state")

// ValidationError carries the full set of field errors collected in one
// validation pass. FirstField names the first invalid field in document
// order so the UI can focus it. Validation failures are local and
// recoverable; they never reach the payment processor.
type ValidationError struct {
    Fields     map[string]string `json:"fields"`
    FirstField string            `json:"first_field"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
    return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}

// PaymentError reports a failed payment attempt. Declined means the
// processor rejected the charge (buyer-side: bad card, insufficient
// funds); Declined=false means the processor itself failed (network,
// timeout). The state machine treats both identically, returning to the
// checkout step with the form intact, but the distinction matters for
// logs and for the message shown to the buyer.
type PaymentError struct {
    Declined bool   `json:"declined"`
    Reason   string `json:"reason"`
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
    if e.Declined {
        return "payment declined: " + e.Reason
    }
    return "payment infrastructure error: " + e.Reason
}
