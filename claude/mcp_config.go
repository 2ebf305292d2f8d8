// Package claude covers the integration surface with the Claude Code CLI:
// generating the MCP configuration file it loads at startup so that
// permission prompts route through this binary.
package claude

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clod-tools/clod-bridge/mcp"
)

// MCPConfigName is the file name Claude Code is pointed at via
// --mcp-config.
const MCPConfigName = "mcp_config.json"

// MCPServerKey is the server name in the config; it becomes part of the
// fully qualified tool name.
const MCPServerKey = "permission"

// FullToolName is the name Claude Code uses for the permission prompt
// tool, passed via --permission-prompt-tool.
var FullToolName = fmt.Sprintf("mcp__%s__%s", MCPServerKey, mcp.ToolName)

// WriteMCPConfig writes an MCP config into dir that points Claude Code
// back at this executable's mcp subcommand. It returns the config path.
func WriteMCPConfig(dir string) (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return writeMCPConfig(dir, execPath)
}

func writeMCPConfig(dir, execPath string) (string, error) {
	config := map[string]any{
		"mcpServers": map[string]any{
			MCPServerKey: map[string]any{
				"command": execPath,
				"args":    []string{"mcp"},
			},
		},
	}

	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(dir, MCPConfigName)
	if err := os.WriteFile(configPath, configJSON, 0600); err != nil {
		return "", fmt.Errorf("writing MCP config: %w", err)
	}

	return configPath, nil
}
