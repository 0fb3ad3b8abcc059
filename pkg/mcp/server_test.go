package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/session"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *session.EditorSession, *store.Store) {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ed := session.NewEditorSession(graph.NewDiagram("mcp"), session.EditorConfig{Diagrams: st})
	if err := ed.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(ed.Dispose)
	return NewServer(ed), ed, st
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatalf("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestMCPServer_AddConnectedNodeIsOneUndoStep(t *testing.T) {
	s, ed, _ := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleAddNode(ctx, callTool("add_node", map[string]interface{}{
		"type": "event", "label": "start", "x": 1.0, "y": 2.0,
	}))
	if err != nil {
		t.Fatalf("handleAddNode failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", resultText(t, result))
	}
	startID := resultText(t, result)

	result, err = s.handleAddConnectedNode(ctx, callTool("add_connected_node", map[string]interface{}{
		"source_id": startID, "label": "review", "x": 20.0, "y": 2.0,
	}))
	if err != nil {
		t.Fatalf("handleAddConnectedNode failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", resultText(t, result))
	}

	g := ed.Handler().Graph()
	if g.NodeCount() != 3 || g.EdgeCount() != 1 {
		t.Fatalf("Expected 3 nodes and 1 edge, got %d and %d", g.NodeCount(), g.EdgeCount())
	}
	if ed.Commands().Registry().Size() != 2 {
		t.Errorf("Expected 2 undo steps, got %d", ed.Commands().Registry().Size())
	}
	after := g.Clone()

	result, _ = s.handleUndo(ctx, callTool("undo", nil))
	if result.IsError {
		t.Fatalf("undo failed: %s", resultText(t, result))
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 0 {
		t.Errorf("Expected undo to remove node and edge together, got %d nodes and %d edges", g.NodeCount(), g.EdgeCount())
	}

	result, _ = s.handleRedo(ctx, callTool("redo", nil))
	if result.IsError || !after.Equal(g) {
		t.Errorf("Expected redo to restore the node and its connector")
	}
}

func TestMCPServer_ConnectUndoRedo(t *testing.T) {
	s, ed, _ := newTestServer(t)
	ctx := context.Background()

	a, _ := s.handleAddNode(ctx, callTool("add_node", map[string]interface{}{"label": "a"}))
	b, _ := s.handleAddNode(ctx, callTool("add_node", map[string]interface{}{"label": "b", "x": 30.0}))
	result, err := s.handleConnect(ctx, callTool("connect", map[string]interface{}{
		"source_id": resultText(t, a), "target_id": resultText(t, b),
	}))
	if err != nil {
		t.Fatalf("handleConnect failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", resultText(t, result))
	}
	g := ed.Handler().Graph()
	after := g.Clone()

	result, _ = s.handleUndo(ctx, callTool("undo", nil))
	if result.IsError || g.EdgeCount() != 0 {
		t.Fatalf("Expected undo to remove the connector")
	}
	result, _ = s.handleRedo(ctx, callTool("redo", nil))
	if result.IsError {
		t.Fatalf("redo failed: %s", resultText(t, result))
	}
	if !after.Equal(g) {
		t.Errorf("Expected redo to restore the connected connector")
	}
}

func TestMCPServer_FailedToolLeavesDiagramUnchanged(t *testing.T) {
	s, ed, _ := newTestServer(t)
	ctx := context.Background()
	before := ed.Handler().Graph().Clone()

	result, err := s.handleAddConnectedNode(ctx, callTool("add_connected_node", map[string]interface{}{
		"source_id": "missing",
	}))
	if err != nil {
		t.Fatalf("handleAddConnectedNode failed: %v", err)
	}
	if !result.IsError {
		t.Errorf("Expected an error result for an unknown source")
	}
	if !before.Equal(ed.Handler().Graph()) {
		t.Errorf("Expected the diagram to be unchanged")
	}

	result, _ = s.handleConnect(ctx, callTool("connect", map[string]interface{}{
		"source_id": ed.Handler().RootID(), "target_id": "missing",
	}))
	if !result.IsError {
		t.Errorf("Expected an error result for an unknown target")
	}
	if !before.Equal(ed.Handler().Graph()) {
		t.Errorf("Expected the diagram to be unchanged")
	}
	if ed.Commands().Registry().Size() != 0 {
		t.Errorf("Expected no undo steps, got %d", ed.Commands().Registry().Size())
	}
}

func TestMCPServer_EditAndSave(t *testing.T) {
	s, ed, st := newTestServer(t)
	ctx := context.Background()

	a, _ := s.handleAddNode(ctx, callTool("add_node", map[string]interface{}{"label": "a"}))
	b, _ := s.handleAddNode(ctx, callTool("add_node", map[string]interface{}{"label": "b", "x": 30.0}))
	aID, bID := resultText(t, a), resultText(t, b)

	conn, _ := s.handleConnect(ctx, callTool("connect", map[string]interface{}{"source_id": aID, "target_id": bID}))
	if conn.IsError {
		t.Fatalf("connect failed: %s", resultText(t, conn))
	}
	edgeID := resultText(t, conn)

	for _, req := range []mcp.CallToolRequest{
		callTool("move_node", map[string]interface{}{"node_id": aID, "x": 5.0, "y": 6.0}),
		callTool("set_property", map[string]interface{}{"element_id": edgeID, "key": "condition", "value": "approved"}),
		callTool("set_property", map[string]interface{}{"element_id": bID, "key": "label", "value": "B"}),
	} {
		var result *mcp.CallToolResult
		switch req.Params.Name {
		case "move_node":
			result, _ = s.handleMoveNode(ctx, req)
		case "set_property":
			result, _ = s.handleSetProperty(ctx, req)
		}
		if result.IsError {
			t.Fatalf("%s failed: %s", req.Params.Name, resultText(t, result))
		}
	}

	result, _ := s.handleDeleteElement(ctx, callTool("delete_element", map[string]interface{}{"element_id": ed.Handler().RootID()}))
	if !result.IsError {
		t.Errorf("Expected deleting the root to fail")
	}

	result, _ = s.handleSave(ctx, callTool("save", nil))
	if result.IsError {
		t.Fatalf("save failed: %s", resultText(t, result))
	}
	saved, err := st.LoadDiagram(ctx, ed.Diagram().ID)
	if err != nil {
		t.Fatalf("LoadDiagram failed: %v", err)
	}
	if saved.Graph.Edges[edgeID].Properties["condition"] != "approved" {
		t.Errorf("Expected saved connector property")
	}
	if saved.Graph.Nodes[bID].Label != "B" || saved.Graph.Nodes[aID].Bounds.X != 5 {
		t.Errorf("Expected saved node changes")
	}

	result, _ = s.handleDeleteElement(ctx, callTool("delete_element", map[string]interface{}{"element_id": aID}))
	if result.IsError {
		t.Fatalf("delete failed: %s", resultText(t, result))
	}
	if ed.Handler().Graph().EdgeCount() != 0 {
		t.Errorf("Expected the connector to go with its node")
	}
}

func TestMCPServer_ReadResources(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()
	s.handleAddNode(ctx, callTool("add_node", map[string]interface{}{"label": "a"}))

	contents, err := s.handleReadHistory(ctx, mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "stunner://history"},
	})
	if err != nil {
		t.Fatalf("handleReadHistory failed: %v", err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}
	var view historyView
	if err := json.Unmarshal([]byte(text.Text), &view); err != nil {
		t.Fatalf("Failed to parse history JSON: %v", err)
	}
	if view.UndoDepth != 1 || len(view.Entries) != 1 || view.Entries[0].Records[0].Type != graph.RecordAddNode {
		t.Errorf("Unexpected history: %+v", view)
	}

	contents, err = s.handleReadDiagram(ctx, mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "stunner://diagram"},
	})
	if err != nil {
		t.Fatalf("handleReadDiagram failed: %v", err)
	}
	text = contents[0].(mcp.TextResourceContents)
	if text.MIMEType != "application/json" || !strings.Contains(text.Text, `"root_id"`) {
		t.Errorf("Unexpected diagram contents: %s", text.Text)
	}
}

func TestMCPServer_Prompt(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := mcp.GetPromptRequest{Params: mcp.GetPromptParams{Name: "stunner-aware"}}
	result, err := s.handleGetPrompt(context.Background(), req)
	if err != nil {
		t.Fatalf("handleGetPrompt failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Errorf("Expected 1 prompt message, got %d", len(result.Messages))
	}

	req.Params.Name = "other"
	if _, err := s.handleGetPrompt(context.Background(), req); err == nil {
		t.Errorf("Expected an error for an unknown prompt")
	}
}
