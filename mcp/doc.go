// Package mcp implements the Model Context Protocol server front end for
// permission prompts.
//
// # Overview
//
// Claude Code CLI is started with --permission-prompt-tool
// mcp__permission__request_permission and an MCP config pointing at
// `clod-bridge mcp`. Before executing a sensitive tool, the CLI sends a
// tools/call request here over stdin; the server forwards it to the
// approver through the FIFO pair in the rendezvous directory and returns
// the approver's decision as the tool result.
//
// # Permission Flow
//
//	Claude CLI
//	    ↓ (JSON-RPC tools/call on stdin)
//	Server.Run()
//	    ↓ (permission.Broker)
//	request FIFO → approver → response FIFO
//	    ↓
//	decision wrapped as a text content result on stdout
//
// The server is single-threaded and handles one line to completion,
// including its blocking rendezvous exchange, before reading the next.
// Responses are written only for id-bearing requests; notifications are
// consumed silently. Diagnostics go to the log file, never to stdout.
package mcp
