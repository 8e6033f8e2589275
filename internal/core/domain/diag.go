package domain

import (
	"encoding/json"
	"time"
)

// APIEvent is the single-slot diagnostic record of the most recent request
// attempt. It exists for user-triggered diagnostic export only, never for
// correctness.
type APIEvent struct {
	OK                bool      `json:"ok"`
	At                time.Time `json:"at"`
	Method            string    `json:"method"`
	URL               string    `json:"url"`
	StatusCode        int       `json:"statusCode"`
	DurationMs        int64     `json:"durationMs"`
	Code              string    `json:"code,omitempty"`
	Message           string    `json:"message,omitempty"`
	RequestID         string    `json:"requestId"`
	ResponseRequestID string    `json:"responseRequestId,omitempty"`
}

// PendingCheckout is a short-lived marker persisted before an
// address-selection side-trip so the interrupted write can be resumed.
type PendingCheckout struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
