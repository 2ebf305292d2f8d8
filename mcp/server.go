package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/clod-tools/clod-bridge/fifo"
	"github.com/clod-tools/clod-bridge/logger"
	"github.com/clod-tools/clod-bridge/permission"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "clod-permission"
	ServerVersion   = "1.0.0"
	ToolName        = "request_permission"
)

// Server implements the MCP server for handling permission prompts
type Server struct {
	reader *bufio.Reader
	writer io.Writer
	broker *permission.Broker
	mu     sync.Mutex
	log    *slog.Logger
}

// NewServer creates a new MCP server reading envelopes from r and writing
// responses to w.
func NewServer(r io.Reader, w io.Writer, broker *permission.Broker) *Server {
	return &Server{
		reader: bufio.NewReader(r),
		writer: w,
		broker: broker,
		log:    logger.WithComponent("mcp"),
	}
}

// Run starts the MCP server loop. It returns nil on EOF.
func (s *Server) Run() error {
	s.log.Info("server starting")

	for {
		line, err := s.reader.ReadString('\n')
		if err == io.EOF {
			s.log.Info("EOF received, shutting down")
			return nil
		}
		if err != nil {
			s.log.Error("read error", "error", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.log.Debug("received message", "line", line)

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			// A malformed line carries no usable id, so there is nothing to
			// correlate a response to. Skip it and keep reading.
			s.log.Error("JSON parse error", "error", err)
			continue
		}

		s.handleRequest(&req)
	}
}

func (s *Server) handleRequest(req *JSONRPCRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response needed
		s.log.Debug("initialized notification received")
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	default:
		s.log.Warn("unknown method", "method", req.Method)
		if req.ID != nil {
			s.sendError(req.ID, CodeMethodNotFound, "Method not found: "+req.Method, nil)
		}
	}
}

func (s *Server) handleInitialize(req *JSONRPCRequest) {
	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: Capability{
			Tools: &ToolCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}

	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsList(req *JSONRPCRequest) {
	tools := []ToolDefinition{
		{
			Name:        ToolName,
			Description: "Request permission from the user for a tool operation",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"tool_name": {
						Type:        "string",
						Description: "Name of the tool requesting permission",
					},
					"input": {
						Type:        "object",
						Description: "Input parameters for the tool",
					},
				},
				Required: []string{"tool_name", "input"},
			},
		},
	}

	s.sendResult(req.ID, ToolsListResult{Tools: tools})
}

func (s *Server) handleToolsCall(req *JSONRPCRequest) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.log.Error("failed to parse tool call params", "error", err)
		s.sendError(req.ID, CodeInvalidParams, "Invalid params", nil)
		return
	}

	if params.Name != ToolName {
		s.log.Warn("unknown tool", "tool", params.Name)
		s.sendError(req.ID, CodeMethodNotFound, "Unknown tool: "+params.Name, nil)
		return
	}

	s.handlePermissionToolCall(req, params)
}

func (s *Server) handlePermissionToolCall(req *JSONRPCRequest, params ToolCallParams) {
	toolName := "unknown"
	if name, ok := params.Arguments["tool_name"].(string); ok && name != "" {
		toolName = name
	}
	input := map[string]any{}
	if in, ok := params.Arguments["input"].(map[string]any); ok {
		input = in
	}

	s.log.Info("permission requested", "tool", toolName)

	permReq := permission.Request{ToolName: toolName, ToolInput: input}
	decision, err := s.broker.Decide(permReq, permission.Embedded)
	if errors.Is(err, fifo.ErrNoListener) {
		decision = permission.Decision{
			Behavior: permission.BehaviorDeny,
			Message:  "Permission system not available",
		}
	}
	if !decision.Allowed() && decision.Message == "" {
		decision.Message = "Permission denied by user"
	}

	s.log.Info("permission decision", "tool", toolName, "behavior", decision.Behavior)
	s.sendDecision(req.ID, decision)
}

// sendDecision wraps a decision as the text content result Claude Code
// expects from a permission prompt tool.
func (s *Server) sendDecision(id any, decision permission.Decision) {
	text, err := json.Marshal(decision)
	if err != nil {
		s.log.Error("failed to marshal decision", "error", err)
		// Fall back to a literal deny so the caller never blocks on us
		text = []byte(`{"behavior":"deny","message":"internal error: failed to marshal decision"}`)
	}

	s.sendResult(id, ToolCallResult{
		Content: []ContentItem{
			{Type: "text", Text: string(text)},
		},
	})
}

func (s *Server) sendResult(id any, result any) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}

	s.send(resp)
}

func (s *Server) sendError(id any, code int, message string, data any) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}

	s.send(resp)
}

func (s *Server) send(resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to marshal response", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = fmt.Fprintf(s.writer, "%s\n", data)
	if err != nil {
		s.log.Error("failed to write response", "error", err)
	} else {
		s.log.Debug("sent response", "data", string(data))
	}
}
