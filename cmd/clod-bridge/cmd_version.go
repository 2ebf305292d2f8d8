package main

import (
	"fmt"

	"github.com/clod-tools/clod-bridge/mcp"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bridge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clod-bridge %s (MCP protocol %s)\n", mcp.ServerVersion, mcp.ProtocolVersion)
	},
}
