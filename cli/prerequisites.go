// Package cli validates the external tools the bridge depends on.
package cli

import (
	"fmt"
	"os/exec"
	"strings"
)

// Prerequisite represents an external CLI tool the bridge works with.
type Prerequisite struct {
	Name        string
	Required    bool
	Description string
	InstallURL  string
}

// DefaultPrerequisites returns the tools a working bridge setup expects.
func DefaultPrerequisites() []Prerequisite {
	return []Prerequisite{
		{
			Name:        "claude",
			Required:    true,
			Description: "Claude Code CLI",
			InstallURL:  "https://claude.ai/code",
		},
		{
			Name:        "mkfifo",
			Required:    false, // only needed when running an approver by hand
			Description: "named pipe creation (for hand-run approvers)",
			InstallURL:  "https://www.gnu.org/software/coreutils/",
		},
	}
}

// CheckResult is the outcome of probing for one prerequisite.
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string
}

// Check looks a tool up in PATH.
func Check(prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}
	path, err := exec.LookPath(prereq.Name)
	if err != nil {
		return result
	}
	result.Found = true
	result.Path = path
	return result
}

// ValidateRequired returns an error naming every missing required tool,
// or nil when the setup can proceed.
func ValidateRequired(prereqs []Prerequisite) error {
	var missing []string
	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		if !Check(prereq).Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
				prereq.Name, prereq.Description, prereq.InstallURL))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required CLI tools:\n%s", strings.Join(missing, "\n"))
	}
	return nil
}

// FormatCheckResults renders check results for terminal display.
func FormatCheckResults(results []CheckResult) string {
	var sb strings.Builder
	sb.WriteString("Prerequisites:\n")
	for _, r := range results {
		status := "✓"
		if !r.Found {
			if r.Prerequisite.Required {
				status = "✗"
			} else {
				status = "○"
			}
		}
		sb.WriteString(fmt.Sprintf("  %s %s", status, r.Prerequisite.Name))
		if !r.Found {
			if r.Prerequisite.Required {
				sb.WriteString(" [REQUIRED]")
			} else {
				sb.WriteString(" [optional]")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
