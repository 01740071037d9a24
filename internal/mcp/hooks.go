package mcp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolCallHooks creates MCP hooks that log each tool call with its duration.
func ToolCallHooks(logger *slog.Logger) *server.Hooks {
	hooks := &server.Hooks{}
	var starts sync.Map // id -> time.Time

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		starts.Store(id, time.Now())
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		var duration time.Duration
		if v, ok := starts.LoadAndDelete(id); ok {
			duration = time.Since(v.(time.Time))
		}

		level := slog.LevelInfo
		isErr := false
		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			level = slog.LevelError
			isErr = true
		}

		logger.LogAttrs(ctx, level, "tool call",
			slog.String("mcp.tool", req.Params.Name),
			slog.Duration("duration", duration),
			slog.Bool("error", isErr),
		)
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		starts.Delete(id)
		if req, ok := message.(*mcp.CallToolRequest); ok {
			logger.LogAttrs(ctx, slog.LevelError, "tool call",
				slog.String("mcp.tool", req.Params.Name),
				slog.Bool("error", true),
				slog.String("error.message", err.Error()),
			)
		}
	})

	return hooks
}
