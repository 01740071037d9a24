package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ppiankov/entagg/internal/logging"
	"github.com/ppiankov/entagg/internal/model"
	"github.com/ppiankov/entagg/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = filepath.Join("..", "pipeline", "testdata", "entities.json")

var sessionCounter atomic.Int64

// --- helpers ---

// callTool opens a fresh session per call so one server can serve several calls.
func callTool(t *testing.T, s *server.MCPServer, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	sessionID := fmt.Sprintf("test-%d", sessionCounter.Add(1))
	session := server.NewInProcessSession(sessionID, nil)
	require.NoError(t, s.RegisterSession(ctx, session))
	sessionCtx := s.WithContext(ctx, session)

	initBytes, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "init", "method": "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
		},
	})
	s.HandleMessage(sessionCtx, initBytes)

	reqBytes, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "call-1", "method": "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": args,
		},
	})
	resp := s.HandleMessage(sessionCtx, reqBytes)
	respBytes, _ := json.Marshal(resp)

	var rpc struct {
		Result *mcp.CallToolResult       `json:"result"`
		Error  *struct{ Message string } `json:"error,omitempty"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpc))
	require.Nil(t, rpc.Error, "unexpected RPC error: %v", rpc.Error)
	require.NotNil(t, rpc.Result)
	return rpc.Result
}

func toolText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}

func setupServer(t *testing.T) *server.MCPServer {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false
	return NewServer("test", pipeline.NewPipeline(cfg, logging.Discard()), logging.Discard())
}

func decodeTable(t *testing.T, text string) map[string][][]any {
	t.Helper()
	var out map[string][][]any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

// --- tests ---

func TestAggregate_ByModel(t *testing.T) {
	s := setupServer(t)

	result := callTool(t, s, "aggregate_entities", map[string]any{
		"input":  fixture,
		"models": []string{"vehicle"},
	})
	require.False(t, result.IsError, toolText(result))

	table := decodeTable(t, toolText(result))
	assert.Equal(t, [][]any{{false, float64(2)}, {true, float64(1)}}, table["stolen"])
	assert.Equal(t, [][]any{{false, float64(3)}}, table["impounded"])
	assert.NotContains(t, table, "first_name")
}

func TestAggregate_PropertiesAndTop(t *testing.T) {
	s := setupServer(t)

	result := callTool(t, s, "aggregate_entities", map[string]any{
		"input":      fixture,
		"properties": []string{"year:2011,2004"},
		"top":        1,
		"stream":     true,
	})
	require.False(t, result.IsError, toolText(result))

	table := decodeTable(t, toolText(result))
	assert.Equal(t, [][]any{{float64(2011), float64(1)}}, table["year"])
	assert.Equal(t, [][]any{{nil, float64(1)}}, table["city"])
}

func TestAggregate_MissingInput(t *testing.T) {
	s := setupServer(t)

	result := callTool(t, s, "aggregate_entities", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "input is required")
}

func TestAggregate_MalformedSpec(t *testing.T) {
	s := setupServer(t)

	result := callTool(t, s, "aggregate_entities", map[string]any{
		"input":      fixture,
		"properties": []string{"badspec"},
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "badspec")
}

func TestAggregate_BadArgumentTypes(t *testing.T) {
	s := setupServer(t)

	result := callTool(t, s, "aggregate_entities", map[string]any{
		"input":  fixture,
		"models": "person",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "models must be an array of strings")

	result = callTool(t, s, "aggregate_entities", map[string]any{
		"input": fixture,
		"top":   -1,
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "top must not be negative")
}

func TestAggregate_MissingFile(t *testing.T) {
	s := setupServer(t)

	result := callTool(t, s, "aggregate_entities", map[string]any{
		"input": filepath.Join(t.TempDir(), "none.json"),
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "aggregation failed")
}

func TestAggregate_RepeatedCallsOneServer(t *testing.T) {
	s := setupServer(t)

	for range 3 {
		result := callTool(t, s, "aggregate_entities", map[string]any{
			"input":  fixture,
			"models": []string{"case"},
		})
		require.False(t, result.IsError, toolText(result))
		assert.Len(t, decodeTable(t, toolText(result))["city"], 3)
	}
}

func TestStringList(t *testing.T) {
	got, err := stringList(map[string]any{"m": []any{"a", "b"}}, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = stringList(map[string]any{}, "m")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = stringList(map[string]any{"m": []any{"a", 1}}, "m")
	assert.Error(t, err)
}
