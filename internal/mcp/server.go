// Package mcp exposes entity aggregation as a Model Context Protocol tool.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ppiankov/entagg/internal/pipeline"
)

// NewServer creates an MCPServer with tools and logging hooks.
func NewServer(version string, p *pipeline.Pipeline, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(ToolCallHooks(logger)),
	)

	RegisterTools(s, p)

	return s
}
