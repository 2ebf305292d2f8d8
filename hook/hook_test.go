package hook

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/clod-tools/clod-bridge/config"
	"github.com/clod-tools/clod-bridge/fifo"
	"github.com/clod-tools/clod-bridge/logger"
	"github.com/clod-tools/clod-bridge/permission"
)

// runHook feeds stdin to the hook and returns stdout and stderr as strings.
func runHook(t *testing.T, cfg *config.Config, stdin string) (string, string) {
	t.Helper()
	logger.Reset()
	logger.Init(os.DevNull)
	t.Cleanup(logger.Reset)

	var stdout, stderr strings.Builder
	if err := Run(strings.NewReader(stdin), &stdout, &stderr, permission.NewBroker(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return stdout.String(), stderr.String()
}

// setupApprover creates the FIFO pair and answers one request with the
// given response line. The request the approver saw comes back on the
// returned channel.
func setupApprover(t *testing.T, response string) (*config.Config, <-chan string) {
	t.Helper()
	dir := t.TempDir()
	pair := fifo.PairIn(dir)
	if err := syscall.Mkfifo(pair.RequestPath, 0600); err != nil {
		t.Fatalf("mkfifo request: %v", err)
	}
	if err := syscall.Mkfifo(pair.ResponsePath, 0600); err != nil {
		t.Fatalf("mkfifo response: %v", err)
	}

	seen := make(chan string, 1)
	go func() {
		req, err := os.Open(pair.RequestPath)
		if err != nil {
			close(seen)
			return
		}
		line, _ := bufio.NewReader(req).ReadString('\n')
		req.Close()
		seen <- strings.TrimSpace(line)

		resp, err := os.OpenFile(pair.ResponsePath, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		resp.WriteString(response + "\n")
		resp.Close()
	}()

	return &config.Config{RuntimeDir: dir}, seen
}

func decodeOutput(t *testing.T, stdout string) Output {
	t.Helper()
	var out Output
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &out); err != nil {
		t.Fatalf("stdout is not a hook envelope: %v\nstdout: %q", err, stdout)
	}
	return out
}

func TestRun_Allow(t *testing.T) {
	cfg, seen := setupApprover(t, `{"behavior":"allow"}`)

	stdin := `{"session_id":"s1","tool_name":"Bash","tool_input":{"command":"ls"},"tool_use_id":"t1","permission_mode":"default","cwd":"/work"}`
	stdout, _ := runHook(t, cfg, stdin)

	out := decodeOutput(t, stdout)
	if out.HookSpecificOutput.HookEventName != HookEventName {
		t.Errorf("HookEventName = %q, want %q", out.HookSpecificOutput.HookEventName, HookEventName)
	}
	if out.HookSpecificOutput.Decision.Behavior != permission.BehaviorAllow {
		t.Errorf("Behavior = %q, want %q", out.HookSpecificOutput.Decision.Behavior, permission.BehaviorAllow)
	}

	// The approver saw the full six-field request form
	request := <-seen
	var wire map[string]any
	if err := json.Unmarshal([]byte(request), &wire); err != nil {
		t.Fatalf("approver request is not JSON: %v", err)
	}
	for _, key := range []string{"session_id", "tool_name", "tool_input", "tool_use_id", "permission_mode", "cwd"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("wire request missing %q: %v", key, wire)
		}
	}
	if wire["tool_name"] != "Bash" {
		t.Errorf("wire tool_name = %v, want Bash", wire["tool_name"])
	}
}

func TestRun_DenyWithMessage(t *testing.T) {
	cfg, _ := setupApprover(t, `{"behavior":"deny","message":"not now"}`)

	stdout, _ := runHook(t, cfg, `{"tool_name":"Edit","tool_input":{}}`)

	out := decodeOutput(t, stdout)
	if out.HookSpecificOutput.Decision.Behavior != permission.BehaviorDeny {
		t.Errorf("Behavior = %q, want %q", out.HookSpecificOutput.Decision.Behavior, permission.BehaviorDeny)
	}
	if out.HookSpecificOutput.Decision.Message != "not now" {
		t.Errorf("Message = %q, want %q", out.HookSpecificOutput.Decision.Message, "not now")
	}
}

func TestRun_DenyWithoutMessageOmitsField(t *testing.T) {
	cfg, _ := setupApprover(t, `{"behavior":"deny"}`)

	stdout, _ := runHook(t, cfg, `{"tool_name":"Edit","tool_input":{}}`)

	if strings.Contains(stdout, `"message"`) {
		t.Errorf("stdout should omit an empty message: %q", stdout)
	}
}

func TestRun_NoListenerStaysSilent(t *testing.T) {
	cfg := &config.Config{RuntimeDir: t.TempDir()}

	stdout, stderr := runHook(t, cfg, `{"tool_name":"Bash","tool_input":{"command":"ls"}}`)

	if stdout != "" {
		t.Errorf("stdout = %q, want silence when no approver is listening", stdout)
	}
	if !strings.Contains(stderr, "falling back to default behavior") {
		t.Errorf("stderr = %q, want the fallback notice", stderr)
	}
}

func TestRun_MalformedInputStaysSilent(t *testing.T) {
	cfg := &config.Config{RuntimeDir: t.TempDir()}

	stdout, stderr := runHook(t, cfg, "{not json")

	if stdout != "" {
		t.Errorf("stdout = %q, want silence on malformed input", stdout)
	}
	if stderr == "" {
		t.Error("stderr should carry a diagnostic for malformed input")
	}
}

func TestRun_EmptyResponseDenies(t *testing.T) {
	cfg, _ := setupApprover(t, "")

	stdout, _ := runHook(t, cfg, `{"tool_name":"Bash","tool_input":{}}`)

	out := decodeOutput(t, stdout)
	if out.HookSpecificOutput.Decision.Behavior != permission.BehaviorDeny {
		t.Errorf("Behavior = %q, want deny on an empty response", out.HookSpecificOutput.Decision.Behavior)
	}
	if out.HookSpecificOutput.Decision.Message != "Empty response from permission system" {
		t.Errorf("Message = %q, want the empty-response text", out.HookSpecificOutput.Decision.Message)
	}
}

func TestRun_PreAllowedToolSkipsRendezvous(t *testing.T) {
	// No FIFOs anywhere, but the tool is on the allow list
	cfg := &config.Config{
		RuntimeDir:   t.TempDir(),
		AllowedTools: []string{"Read"},
	}

	stdout, _ := runHook(t, cfg, `{"tool_name":"Read","tool_input":{"file_path":"/a.go"}}`)

	out := decodeOutput(t, stdout)
	if out.HookSpecificOutput.Decision.Behavior != permission.BehaviorAllow {
		t.Errorf("Behavior = %q, want %q", out.HookSpecificOutput.Decision.Behavior, permission.BehaviorAllow)
	}
}

func TestRun_LogsSessionID(t *testing.T) {
	logger.Reset()
	logPath := filepath.Join(t.TempDir(), "hook.log")
	if err := logger.Init(logPath); err != nil {
		t.Fatalf("logger.Init: %v", err)
	}
	t.Cleanup(logger.Reset)

	cfg := &config.Config{RuntimeDir: t.TempDir()}
	var stdout, stderr strings.Builder
	stdin := `{"session_id":"s42","tool_name":"Bash","tool_input":{"command":"ls"}}`
	if err := Run(strings.NewReader(stdin), &stdout, &stderr, permission.NewBroker(cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "sessionID=s42") {
		t.Errorf("log should carry the session id as a structured field:\n%s", data)
	}
}

func TestRun_NeverEmitsUpdatedInput(t *testing.T) {
	cfg, _ := setupApprover(t, `{"behavior":"allow"}`)

	stdout, _ := runHook(t, cfg, `{"tool_name":"Bash","tool_input":{"command":"ls"}}`)

	if strings.Contains(stdout, "updatedInput") {
		t.Errorf("hook output must not carry updatedInput: %q", stdout)
	}
}
