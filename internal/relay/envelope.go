package relay

import (
	"encoding/json"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Kind separates relay traffic
type Kind string

const (
	// KindRequest asks the authoritative participant to run an operation
	KindRequest Kind = "request"
	// KindComplete answers a request, correlated by envelope ID
	KindComplete Kind = "complete"
	// KindRefresh is a fire-and-forget broadcast
	KindRefresh Kind = "refresh"
)

// Envelope is the unit of relay traffic
type Envelope struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Operation string          `json:"operation"`
	SenderID  string          `json:"senderId"`
	TargetID  string          `json:"targetId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError carries a coded failure back to the initiator
type EnvelopeError struct {
	Code    dherr.Code `json:"code"`
	Message string     `json:"message"`
}

func toEnvelopeError(err error) *EnvelopeError {
	if err == nil {
		return nil
	}
	return &EnvelopeError{Code: dherr.GetCode(err), Message: err.Error()}
}

func (e *EnvelopeError) toError() error {
	if e == nil {
		return nil
	}
	return dherr.New(e.Code, e.Message)
}
