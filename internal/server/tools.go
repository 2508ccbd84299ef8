package server

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drewdunne/mrscope/internal/dispatch"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	for _, spec := range dispatch.Tools() {
		s.mcp.AddTool(toolDefinition(spec), s.handleTool(spec.Name))
	}
}

func toolDefinition(spec dispatch.ToolSpec) *mcp.Tool {
	notDestructive := false
	return &mcp.Tool{
		Name:        spec.Name,
		Title:       spec.Title,
		Description: spec.Description,
		InputSchema: inputSchema(spec),
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint: spec.ReadOnly,
			// Storing rewrites the page with the same title, nothing else.
			DestructiveHint: &notDestructive,
			IdempotentHint:  true,
		},
	}
}

func inputSchema(spec dispatch.ToolSpec) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(spec.Params)),
	}
	for _, p := range spec.Params {
		prop := &jsonschema.Schema{Type: p.Type, Description: p.Description}
		if p.Name == "project_id" {
			prop = &jsonschema.Schema{Types: []string{dispatch.TypeString, dispatch.TypeInteger}, Description: p.Description}
		}
		if p.Type == dispatch.TypeInteger && p.Name != "project_id" {
			one := 1.0
			prop.Minimum = &one
		}
		for _, v := range p.Enum {
			prop.Enum = append(prop.Enum, v)
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

// handleTool decodes the raw arguments and hands them to the dispatcher.
// Argument validation happens there, so every failure is a typed tool error.
func (s *Server) handleTool(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return toCallToolResult(dispatch.ToolResult{Error: &dispatch.ErrorInfo{
				Kind:    toolerr.KindInvalidParameter,
				Message: "arguments must be a JSON object: " + err.Error(),
			}}), nil
		}
		res := s.dispatcher.Dispatch(ctx, dispatch.ToolRequest{Tool: name, Params: params})
		return toCallToolResult(res), nil
	}
}

// decodeArguments keeps numbers as json.Number so integers stay exact.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	params := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return params, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, err
	}
	return params, nil
}

// toCallToolResult renders a dispatcher result: the payload as JSON text on
// success, "<kind>: <message>" on failure. The full result is the structured content.
func toCallToolResult(res dispatch.ToolResult) *mcp.CallToolResult {
	if !res.OK {
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(res.Error.Kind) + ": " + res.Error.Message}},
			StructuredContent: res,
			IsError:           true,
		}
	}

	text, err := json.MarshalIndent(res.Payload, "", "  ")
	if err != nil {
		failed := dispatch.ToolResult{Error: &dispatch.ErrorInfo{
			Kind:    toolerr.KindUpstream,
			Message: "encoding result: " + err.Error(),
		}}
		return toCallToolResult(failed)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: res,
	}
}
