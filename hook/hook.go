// Package hook implements the single-shot permission hook facade.
//
// Claude Code invokes the hook with a permission request payload on stdin
// and reads an optional decision envelope from stdout. When the hook stays
// silent the caller falls back to its own permission prompting, so every
// failure short of a delivered decision must end in silence, not in a
// malformed envelope.
package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/clod-tools/clod-bridge/fifo"
	"github.com/clod-tools/clod-bridge/logger"
	"github.com/clod-tools/clod-bridge/permission"
)

// HookEventName identifies the hook event in the output envelope.
const HookEventName = "PermissionRequest"

// Output is the envelope written to stdout when a decision was reached.
type Output struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// HookSpecificOutput carries the event name and the decision payload.
type HookSpecificOutput struct {
	HookEventName string   `json:"hookEventName"`
	Decision      Decision `json:"decision"`
}

// Decision is the hook-side decision shape. Unlike the MCP tool result it
// never carries updatedInput; the hook protocol has no slot for it.
type Decision struct {
	Behavior string `json:"behavior"`
	Message  string `json:"message,omitempty"`
}

// Run reads one permission request payload from stdin, brokers it, and
// writes a decision envelope to stdout. Silence on stdout means "no
// opinion" and is the outcome for malformed input and for a missing
// approver. The returned error is reserved for I/O failures on stdout;
// everything else resolves to silence or a decision.
func Run(stdin io.Reader, stdout, stderr io.Writer, broker *permission.Broker) error {
	log := logger.WithComponent("hook")

	data, err := io.ReadAll(stdin)
	if err != nil {
		log.Error("failed to read stdin", "error", err)
		fmt.Fprintf(stderr, "failed to read hook input: %v\n", err)
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Error("invalid hook input", "error", err)
		fmt.Fprintf(stderr, "invalid hook input: %v\n", err)
		return nil
	}

	req := permission.FromPayload(payload, permission.Standalone)
	if req.SessionID != "" {
		log = logger.WithSession(req.SessionID).With("component", "hook")
	}
	log.Info("permission requested", "tool", req.ToolName)

	decision, err := broker.Decide(req, permission.Standalone)
	if errors.Is(err, fifo.ErrNoListener) {
		log.Warn("no approver listening, staying silent")
		fmt.Fprintln(stderr, "Permission FIFOs not found, falling back to default behavior")
		return nil
	}

	log.Info("permission decision", "tool", req.ToolName, "behavior", decision.Behavior)

	out := Output{
		HookSpecificOutput: HookSpecificOutput{
			HookEventName: HookEventName,
			Decision: Decision{
				Behavior: decision.Behavior,
				Message:  decision.Message,
			},
		},
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		log.Error("failed to marshal hook output", "error", err)
		fmt.Fprintf(stderr, "failed to marshal hook output: %v\n", err)
		return nil
	}

	if _, err := fmt.Fprintf(stdout, "%s\n", encoded); err != nil {
		return fmt.Errorf("writing hook output: %w", err)
	}
	return nil
}
