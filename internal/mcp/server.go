package mcp

import (
	"context"
	"fmt"
	"net"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dkeller/pylens-mcp/internal/config"
	"github.com/dkeller/pylens-mcp/internal/engine"
)

const (
	// ServerName is the MCP server name
	ServerName = "pylens-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
}

// NewServer creates a new MCP server instance around an already-constructed
// engine. Tool registration happens here; the engine keeps no protocol
// knowledge.
func NewServer(eng *engine.Engine) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		engine: eng,
	}

	s.registerTools()

	return s
}

// Serve starts the MCP server on the configured transport and blocks until
// shutdown. Stdio is the default; the streamable HTTP transport is used
// when the config asks for it.
func (s *Server) Serve(ctx context.Context, cfg config.Server) error {
	switch cfg.Transport {
	case config.TransportHTTP:
		httpServer := server.NewStreamableHTTPServer(s.mcp)
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		return httpServer.Start(addr)
	case config.TransportStdio, "":
		return server.ServeStdio(s.mcp)
	default:
		return fmt.Errorf("unknown transport: %s", cfg.Transport)
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(getDefinitionShortTool(), s.handleGetDefinitionShort)
	s.mcp.AddTool(getDefinitionFullTool(), s.handleGetDefinitionFull)
	s.mcp.AddTool(getOutlineTool(), s.handleGetOutline)
	s.mcp.AddTool(getReferencesTool(), s.handleGetReferences)
	s.mcp.AddTool(filterSymbolsTool(), s.handleFilterSymbols)
}
