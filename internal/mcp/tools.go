package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ppiankov/entagg/internal/pipeline"
)

// Server metadata
const serverName = "entagg"

// Tool descriptions
const (
	descAggregate = "Aggregate a JSON document of entity records into per-property value counts. " +
		"Each record has a model name and a list of {slug, type, value} properties; values are coerced " +
		"to their declared type (string, integer, boolean) before counting. " +
		"Returns a JSON object mapping each property slug to [[value, count], ...] sorted by count descending. " +
		"Filter with models (any of) and properties (all keys must match, any value per key)."

	descInput       = "Path to a local JSON file or an http(s) URL"
	descModels      = "Only include records whose model is one of these names"
	descProperties  = "Filter specs of the form slug:value1,value2. Use null to match a null value"
	descRecordsPath = "Dot-separated keys from the document root to the record array (default: the root)"
	descStream      = "Decode records incrementally instead of loading the whole document"
	descTop         = "Keep only the N most frequent values per slug (0 = all)"
)

// RegisterTools adds the aggregation tool to s
func RegisterTools(s *server.MCPServer, p *pipeline.Pipeline) {
	s.AddTool(
		mcp.NewTool("aggregate_entities",
			mcp.WithDescription(descAggregate),
			mcp.WithString("input",
				mcp.Required(),
				mcp.Description(descInput),
			),
			mcp.WithArray("models",
				mcp.Description(descModels),
				mcp.WithStringItems(),
			),
			mcp.WithArray("properties",
				mcp.Description(descProperties),
				mcp.WithStringItems(),
			),
			mcp.WithString("records_path",
				mcp.Description(descRecordsPath),
			),
			mcp.WithBoolean("stream",
				mcp.Description(descStream),
			),
			mcp.WithNumber("top",
				mcp.Description(descTop),
			),
		),
		aggregateHandler(p),
	)
}

func aggregateHandler(p *pipeline.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		input, ok := args["input"].(string)
		if !ok || input == "" {
			return mcp.NewToolResultError("input is required"), nil
		}

		models, err := stringList(args, "models")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		properties, err := stringList(args, "properties")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		recordsPath, _ := args["records_path"].(string)
		stream, _ := args["stream"].(bool)

		top := 0
		if n, ok := args["top"].(float64); ok {
			if n < 0 {
				return mcp.NewToolResultError("top must not be negative"), nil
			}
			top = int(n)
		}

		result, err := p.Aggregate(ctx, pipeline.Request{
			Input:       input,
			RecordsPath: recordsPath,
			Stream:      stream,
			Models:      models,
			Properties:  properties,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
		}

		data, err := json.Marshal(result.Table.Top(top))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

// stringList reads an optional array-of-strings argument
func stringList(args map[string]any, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of strings", name)
		}
		out = append(out, s)
	}
	return out, nil
}
