package overlay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "designlab-test", Version: "0.1.0"}

func mcpSession(t *testing.T, s *Session) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	s.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_Comments(t *testing.T) {
	s, _ := newTestSession(t)
	s.Toggle()
	s.Click(500, 100, pathButtonB)
	if _, err := s.Save("align the labels"); err != nil {
		t.Fatal(err)
	}
	s.SetOverall("ship variant B")

	session := mcpSession(t, s)
	text := mcpCallTool(t, session, "designlab_comments", map[string]any{})

	var resp struct {
		Target   string `json:"target"`
		Overall  string `json:"overall"`
		Comments []struct {
			Variant  string `json:"variant"`
			Comments []struct {
				Text string `json:"text"`
			} `json:"comments"`
		} `json:"comments"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Target != "Landing page" || resp.Overall != "ship variant B" {
		t.Fatalf("response: %+v", resp)
	}
	if len(resp.Comments) != 1 || resp.Comments[0].Variant != "B" {
		t.Fatalf("comments: %+v", resp.Comments)
	}
	if resp.Comments[0].Comments[0].Text != "align the labels" {
		t.Fatalf("text: %+v", resp.Comments[0].Comments)
	}
}

func TestMCP_ExportAndReset(t *testing.T) {
	s, _ := newTestSession(t)
	s.Toggle()
	s.Click(500, 100, pathButtonB)
	if _, err := s.Save("note"); err != nil {
		t.Fatal(err)
	}
	s.SetOverall("direction")

	session := mcpSession(t, s)
	text := mcpCallTool(t, session, "designlab_export", map[string]any{})

	var payload struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Version != "1.0" {
		t.Fatalf("version: %q", payload.Version)
	}
	if s.Store().Len() != 0 || s.State() != StateInactive {
		t.Fatal("export must clear the session")
	}
}

func TestMCP_Export_ValidationError(t *testing.T) {
	s, _ := newTestSession(t)
	session := mcpSession(t, s)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "designlab_export",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("empty session export must return a tool error")
	}
}

func TestMCP_Reset(t *testing.T) {
	s, _ := newTestSession(t)
	s.Toggle()
	s.Click(500, 100, pathButtonB)
	if _, err := s.Save("note"); err != nil {
		t.Fatal(err)
	}

	session := mcpSession(t, s)
	mcpCallTool(t, session, "designlab_reset", map[string]any{})

	if s.Store().Len() != 0 || s.State() != StateInactive {
		t.Fatal("reset must clear the session")
	}
}
