// Package control exposes the sync engine over MCP: sync_status reports
// the engine's current Status, and sync_start/sync_stop drive its
// lifecycle over a Streamable HTTP transport.
package control

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

// Server is the MCP control surface over a single running Engine.
type Server struct {
	engine *syncengine.Engine
}

// NewServer builds a control surface over engine.
func NewServer(engine *syncengine.Engine) *Server {
	return &Server{engine: engine}
}

// Start serves the MCP Streamable HTTP transport on addr. It blocks until
// the transport stops or errors.
func (s *Server) Start(addr string) error {
	mcpSrv := mcpserver.NewMCPServer(
		"sheetsql-sync",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	statusTool := mcp.NewTool("sync_status",
		mcp.WithDescription("Report the sync engine's current status: running, cycle count, last cycle time, conflicts resolved, last error."),
	)
	startTool := mcp.NewTool("sync_start",
		mcp.WithDescription("Start the sync engine if it isn't already running."),
	)
	stopTool := mcp.NewTool("sync_stop",
		mcp.WithDescription("Stop the sync engine, waiting for any in-flight cycle to finish."),
	)

	mcpSrv.AddTool(statusTool, s.handleStatus)
	mcpSrv.AddTool(startTool, s.handleStart)
	mcpSrv.AddTool(stopTool, s.handleStop)

	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp"))
	return httpServer.Start(addr)
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.engine.Status()
	body, err := json.Marshal(status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// The request context ends when this handler returns; the engine's loop
	// must outlive it and stop only through sync_stop.
	if err := s.engine.Start(context.WithoutCancel(ctx)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
	}
	return mcp.NewToolResultText("sync engine started"), nil
}

func (s *Server) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engine.Stop()
	return mcp.NewToolResultText("sync engine stopped"), nil
}
