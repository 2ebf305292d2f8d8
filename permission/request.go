// Package permission implements the permission request/decision codec and
// the broker that both front ends share: normalize the inbound payload,
// exchange it with the approver over the FIFO pair, and map whatever comes
// back into a fail-closed decision.
package permission

import "encoding/json"

// Mode selects which request fields go on the wire.
type Mode int

const (
	// Standalone is the hook form: the full six-field record.
	Standalone Mode = iota
	// Embedded is the MCP form: tool name and input only.
	Embedded
)

// Request is the canonical permission request sent to the approver.
type Request struct {
	SessionID      string         `json:"session_id"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
	ToolUseID      string         `json:"tool_use_id"`
	PermissionMode string         `json:"permission_mode"`
	CWD            string         `json:"cwd"`
}

// embeddedRequest is the narrower wire form used by the MCP front end.
type embeddedRequest struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
}

// FromPayload builds a Request from an arbitrary decoded JSON payload.
// Unknown keys are dropped, missing or mistyped keys default to empty
// values; any payload, including nil, yields a valid request.
func FromPayload(raw map[string]any, mode Mode) Request {
	req := Request{ToolInput: map[string]any{}}

	if tool, ok := raw["tool_name"].(string); ok {
		req.ToolName = tool
	}
	if input, ok := raw["tool_input"].(map[string]any); ok {
		req.ToolInput = input
	}
	if mode == Embedded {
		return req
	}

	if id, ok := raw["session_id"].(string); ok {
		req.SessionID = id
	}
	if id, ok := raw["tool_use_id"].(string); ok {
		req.ToolUseID = id
	}
	if pm, ok := raw["permission_mode"].(string); ok {
		req.PermissionMode = pm
	}
	if cwd, ok := raw["cwd"].(string); ok {
		req.CWD = cwd
	}
	return req
}

// Encode serializes the request as a single JSON line (without the trailing
// newline; the transport adds it).
func (r Request) Encode(mode Mode) ([]byte, error) {
	if mode == Embedded {
		return json.Marshal(embeddedRequest{ToolName: r.ToolName, ToolInput: r.ToolInput})
	}
	return json.Marshal(r)
}

// DecodeRequest parses a serialized request line. This is the approver-side
// half of the codec; the bridge itself only uses it in tests.
func DecodeRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, err
	}
	if req.ToolInput == nil {
		req.ToolInput = map[string]any{}
	}
	return req, nil
}
