package permission

import (
	"encoding/json"
	"errors"

	"github.com/clod-tools/clod-bridge/fifo"
)

const (
	// BehaviorAllow approves the tool invocation as proposed.
	BehaviorAllow = "allow"
	// BehaviorDeny rejects it. Every failure path resolves here.
	BehaviorDeny = "deny"
)

// Decision is the outcome of one permission request.
type Decision struct {
	Behavior     string         `json:"behavior"`
	Message      string         `json:"message,omitempty"`
	UpdatedInput map[string]any `json:"updatedInput,omitempty"`
}

// Allowed reports whether the decision approves the invocation.
func (d Decision) Allowed() bool {
	return d.Behavior == BehaviorAllow
}

// wireResponse is the approver's on-wire decision line.
type wireResponse struct {
	Behavior string `json:"behavior"`
	Message  string `json:"message"`
}

// DecodeResponse maps a raw response line (or the transport failure that
// prevented one) to a Decision. The mapping is fail-closed: a transport
// error, an unparseable line, or a behavior other than the literal "allow"
// all deny. An allow carries the request's original tool input forward —
// the approver may approve or reject the proposed input but never rewrite
// it.
func DecodeResponse(raw string, exchangeErr error, toolInput map[string]any) Decision {
	if exchangeErr != nil {
		var msg string
		switch {
		case errors.Is(exchangeErr, fifo.ErrNoListener):
			msg = "Permission system not available"
		case errors.Is(exchangeErr, fifo.ErrTimeout):
			msg = "Permission request timed out"
		case errors.Is(exchangeErr, fifo.ErrEmptyResponse):
			msg = "Empty response from permission system"
		default:
			msg = "Permission system error: " + exchangeErr.Error()
		}
		return Decision{Behavior: BehaviorDeny, Message: msg}
	}

	var resp wireResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Decision{Behavior: BehaviorDeny, Message: "Invalid response from permission system: " + err.Error()}
	}

	if resp.Behavior == BehaviorAllow {
		return Decision{Behavior: BehaviorAllow, Message: resp.Message, UpdatedInput: toolInput}
	}
	return Decision{Behavior: BehaviorDeny, Message: resp.Message}
}
