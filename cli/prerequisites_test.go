package cli

import (
	"strings"
	"testing"
)

func TestDefaultPrerequisites(t *testing.T) {
	prereqs := DefaultPrerequisites()

	var claude *Prerequisite
	for i := range prereqs {
		if prereqs[i].Name == "claude" {
			claude = &prereqs[i]
		}
	}
	if claude == nil {
		t.Fatal("claude should be a default prerequisite")
	}
	if !claude.Required {
		t.Error("claude should be required")
	}
}

func TestCheck_ExistingCommand(t *testing.T) {
	// sh exists on any platform these tests run on
	result := Check(Prerequisite{Name: "sh", Required: true})
	if !result.Found {
		t.Error("sh should be found in PATH")
	}
	if result.Path == "" {
		t.Error("Path should be set for a found command")
	}
}

func TestCheck_MissingCommand(t *testing.T) {
	result := Check(Prerequisite{Name: "definitely-not-a-real-command-xyz", Required: true})
	if result.Found {
		t.Error("nonexistent command should not be found")
	}
}

func TestValidateRequired(t *testing.T) {
	ok := []Prerequisite{{Name: "sh", Required: true}}
	if err := ValidateRequired(ok); err != nil {
		t.Errorf("ValidateRequired = %v, want nil for present tools", err)
	}

	missing := []Prerequisite{
		{Name: "definitely-not-a-real-command-xyz", Required: true, Description: "test tool", InstallURL: "https://example.com"},
	}
	err := ValidateRequired(missing)
	if err == nil {
		t.Fatal("ValidateRequired should fail for a missing required tool")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-real-command-xyz") {
		t.Errorf("error should name the missing tool: %v", err)
	}

	optional := []Prerequisite{{Name: "definitely-not-a-real-command-xyz", Required: false}}
	if err := ValidateRequired(optional); err != nil {
		t.Errorf("ValidateRequired = %v, want nil when only optional tools are missing", err)
	}
}

func TestFormatCheckResults(t *testing.T) {
	results := []CheckResult{
		{Prerequisite: Prerequisite{Name: "claude", Required: true}, Found: true},
		{Prerequisite: Prerequisite{Name: "mkfifo", Required: false}, Found: false},
	}

	out := FormatCheckResults(results)
	if !strings.Contains(out, "✓ claude") {
		t.Errorf("missing found marker: %q", out)
	}
	if !strings.Contains(out, "○ mkfifo") {
		t.Errorf("missing optional marker: %q", out)
	}
	if !strings.Contains(out, "[optional]") {
		t.Errorf("missing optional tag: %q", out)
	}
}
