package main

import (
	"fmt"
	"os"

	"github.com/clod-tools/clod-bridge/config"
	"github.com/clod-tools/clod-bridge/hook"
	"github.com/clod-tools/clod-bridge/logger"
	"github.com/clod-tools/clod-bridge/permission"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run as a single-shot PermissionRequest hook",
	Long: `Read one permission request from stdin, relay it to the approver, and
write the decision envelope to stdout.

The exit status is always zero: a hook failure must degrade to Claude
Code's own prompting, never block the tool call.`,
	Run: func(cmd *cobra.Command, args []string) {
		if path, err := logger.HookLogPath(); err == nil {
			logger.Init(path)
		}
		defer logger.Close()

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: falling back to default config: %v\n", err)
			cfg = config.Default()
		}
		logger.SetDebug(cfg.Debug)

		if err := hook.Run(os.Stdin, os.Stdout, os.Stderr, permission.NewBroker(cfg)); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	},
}
