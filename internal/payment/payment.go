// Package payment defines the capability interface the checkout pipeline
// uses to capture payment, plus the HTTP client implementation that
// talks to the external payment processor.  The pipeline treats the
// processor as opaque, possibly slow and possibly failing; card data
// never passes through this service; the browser tokenizes it with the
// processor directly and we only ever see a saved-card reference.
package payment

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "time"
)

// ChargeRequest describes one payment attempt.
type ChargeRequest struct {
    AmountCents int64  `json:"amount_cents"`
    Currency    string `json:"currency"`
    SessionID   string `json:"session_id"`
    SaveCard    bool   `json:"save_card"`
    SavedCardID string `json:"saved_card_id,omitempty"`
}

// ChargeResult reports the processor's decision.  Approved=false with a
// nil error is a decline (buyer problem: bad card, insufficient funds);
// a non-nil error from Charge is an infrastructure failure (our problem:
// network, timeout, processor 5xx).  The state machine treats both the
// same way (back to checkout with the form intact) but they are
// distinguished in logs and in the message shown to the buyer.
type ChargeResult struct {
    Approved  bool   `json:"approved"`
    Reference string `json:"reference,omitempty"`
    Reason    string `json:"reason,omitempty"`
}

// Processor is the payment capability consumed by the checkout pipeline.
// Whether a zero-amount charge short-circuits card capture is the
// processor's decision, not the pipeline's.
type Processor interface {
    Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// HTTPProcessor charges by POSTing to an external processor's charge
// endpoint.  A 200 response carries the approve/decline decision; any
// transport error or non-200 status is an infrastructure failure.
type HTTPProcessor struct {
    baseURL string
    client  *http.Client
}

// NewHTTPProcessor builds an HTTPProcessor for the given base URL.
func NewHTTPProcessor(baseURL string) *HTTPProcessor {
    return &HTTPProcessor{
        baseURL: baseURL,
        client:  &http.Client{Timeout: 30 * time.Second},
    }
}

// Charge submits the payment to the processor and decodes its decision.
func (p *HTTPProcessor) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
    body, err := json.Marshal(req)
    if err != nil {
        return ChargeResult{}, err
    }
    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/charges", bytes.NewReader(body))
    if err != nil {
        return ChargeResult{}, err
    }
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := p.client.Do(httpReq)
    if err != nil {
        return ChargeResult{}, fmt.Errorf("payment processor unreachable: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        return ChargeResult{}, fmt.Errorf("payment processor returned status %d", resp.StatusCode)
    }
    var result ChargeResult
    if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
        return ChargeResult{}, fmt.Errorf("decode payment response: %w", err)
    }
    return result, nil
}

// MockProcessor approves every charge without talking to anything.  Used
// in dev mode and tests.  Zero-amount charges are approved with no
// reference, mirroring a real processor waiving card capture for free
// orders.
type MockProcessor struct{}

// Charge implements Processor.
func (MockProcessor) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
    if req.AmountCents == 0 {
        return ChargeResult{Approved: true}, nil
    }
    return ChargeResult{Approved: true, Reference: fmt.Sprintf("mock-%s", req.SessionID[:min(8, len(req.SessionID))])}, nil
}
