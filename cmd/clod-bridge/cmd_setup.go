package main

import (
	"fmt"
	"os"

	"github.com/clod-tools/clod-bridge/claude"
	"github.com/clod-tools/clod-bridge/cli"
	"github.com/clod-tools/clod-bridge/fifo"
	"github.com/clod-tools/clod-bridge/paths"
	"github.com/spf13/cobra"
)

var setupRuntimeDir string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare a runtime directory and MCP config",
	Long: `Create the .clod-runtime directory (if needed) and write the MCP config
that points Claude Code at this binary's mcp subcommand.

The FIFOs themselves are created by the approver when it starts
listening; setup only prepares the directory and config around them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prereqs := cli.DefaultPrerequisites()
		results := make([]cli.CheckResult, len(prereqs))
		for i, p := range prereqs {
			results[i] = cli.Check(p)
		}
		fmt.Print(cli.FormatCheckResults(results))
		fmt.Println()
		if err := cli.ValidateRequired(prereqs); err != nil {
			return err
		}

		dir := setupRuntimeDir
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolving working directory: %w", err)
			}
			dir = paths.FindRuntimeDir(cwd)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating runtime directory: %w", err)
		}

		configPath, err := claude.WriteMCPConfig(dir)
		if err != nil {
			return err
		}

		pair := fifo.PairIn(dir)
		fmt.Printf("Runtime directory: %s\n", dir)
		fmt.Printf("MCP config:        %s\n", configPath)
		if cfgFile, err := paths.ConfigFilePath(); err == nil {
			if paths.IsLegacyLayout() {
				fmt.Printf("Config file:       %s (legacy layout)\n", cfgFile)
			} else {
				fmt.Printf("Config file:       %s\n", cfgFile)
			}
		}
		fmt.Println()
		fmt.Println("Launch Claude Code with:")
		fmt.Printf("  claude --mcp-config %s --permission-prompt-tool %s\n", configPath, claude.FullToolName)
		fmt.Println()
		fmt.Println("The approver should create and serve these FIFOs:")
		fmt.Printf("  %s\n", pair.RequestPath)
		fmt.Printf("  %s\n", pair.ResponsePath)
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupRuntimeDir, "runtime-dir", "", "runtime directory to prepare (default: nearest .clod-runtime)")
}
