package overlay

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/designlab/overlay/kit"
)

// RegisterMCP registers the review tools on an MCP server, so an
// automated reviewer can read, export or reset the session alongside
// the human widget.
func (s *Session) RegisterMCP(srv *mcp.Server) {
	s.registerCommentsTool(srv)
	s.registerExportTool(srv)
	s.registerResetTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- comments ---

func (s *Session) registerCommentsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "designlab_comments",
		Description: "List the current review session: comments grouped by variant, plus the overall direction.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{
			"target":   s.Target(),
			"comments": s.store.ByVariant(),
			"overall":  s.store.Overall(),
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- export ---

func (s *Session) registerExportTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "designlab_export",
		Description: "Validate and export the review session. Returns the feedback payload and clears the session; fails with the validation messages when the review is incomplete.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		payload, err := s.Submit(ctx)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return nil, errors.New(strings.Join(verr.Messages, "; "))
			}
			return nil, err
		}
		return payload, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- reset ---

func (s *Session) registerResetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "designlab_reset",
		Description: "Discard all comments and the overall direction, returning the session to its inactive state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		s.Reset()
		return map[string]string{"status": "reset"}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
