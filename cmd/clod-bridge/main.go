package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clod-bridge",
	Short: "Bridge Claude Code permission prompts to a local approver",
	Long: `clod-bridge relays Claude Code permission prompts to a local approver
over a pair of named pipes in a .clod-runtime directory.

It runs in two modes: as a single-shot PermissionRequest hook (hook) and
as a persistent MCP permission-prompt server (mcp). The approver creates
the pipes; when they are absent the bridge steps aside and Claude Code
falls back to its own prompting.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(versionCmd)
}
