package main

import (
	"fmt"
	"os"

	"github.com/clod-tools/clod-bridge/config"
	"github.com/clod-tools/clod-bridge/logger"
	"github.com/clod-tools/clod-bridge/mcp"
	"github.com/clod-tools/clod-bridge/permission"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as a persistent MCP permission-prompt server",
	Long: `Serve the request_permission tool over JSON-RPC on stdio until EOF.

Claude Code starts this process itself via the MCP config written by
'clod-bridge setup'. Stdout carries only protocol envelopes; all
diagnostics go to the log file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if path, err := logger.MCPLogPath(); err == nil {
			logger.Init(path)
		}
		defer logger.Close()

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: falling back to default config: %v\n", err)
			cfg = config.Default()
		}
		logger.SetDebug(cfg.Debug)

		server := mcp.NewServer(os.Stdin, os.Stdout, permission.NewBroker(cfg))
		if err := server.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}
