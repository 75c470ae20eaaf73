package model

// CheckoutForm holds the buyer-entered fields for one checkout attempt.
// It is owned exclusively by the checkout pipeline for the duration of
// the attempt and discarded on completion or abandonment; nothing here
// is ever persisted.  Card numbers never appear in this struct; card
// entry is tokenized by the payment collaborator before it reaches us.
type CheckoutForm struct {
    FullName      string `json:"full_name"`
    Email         string `json:"email"`
    StreetAddress string `json:"street_address"`
    City          string `json:"city"`
    State         string `json:"state"`
    ZipCode       string `json:"zip_code"`
    AcceptedTerms bool   `json:"accepted_terms"`

    // Payment-specific transient state.  Cleared after every payment
    // attempt, successful or not; the address/identity fields above are
    // preserved across declines so the buyer never retypes them.
    SavedCardID string `json:"saved_card_id,omitempty"`
    SaveCard    bool   `json:"save_card,omitempty"`
}

// ClearPaymentState resets the transient payment fields while leaving
// the buyer's identity and address untouched.
func (f *CheckoutForm) ClearPaymentState() {
    f.SavedCardID = ""
    f.SaveCard = false
}
