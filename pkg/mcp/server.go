package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/proxy"
	"github.com/romartin/kie-wb-common-sub000/pkg/session"
)

// Server exposes an editor session over the Model Context Protocol. Every
// tool call runs as one request, so it is one undo step.
type Server struct {
	mcpServer *server.MCPServer

	// mcp-go may dispatch calls concurrently; the session is single-threaded.
	mu      sync.Mutex
	editor  *session.EditorSession
	factory canvas.Factory
}

// NewServer creates a new MCP server instance.
func NewServer(editor *session.EditorSession) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"stunner",
			"1.0.0",
		),
		editor: editor,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"stunner://diagram",
		"Diagram",
		mcp.WithResourceDescription("The diagram being edited: nodes, connectors and their properties"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadDiagram)

	s.mcpServer.AddResource(mcp.NewResource(
		"stunner://history",
		"Undo History",
		mcp.WithResourceDescription("Undo and redo depth and the graph commands of every undo step"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadHistory)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"add_node",
		mcp.WithDescription("Add a node to the diagram. Returns the new node id."),
		mcp.WithString("type", mcp.Description("Node type: task, event, gateway or lane (default task)")),
		mcp.WithString("label", mcp.Description("Node label")),
		mcp.WithString("parent_id", mcp.Description("Container node id (default the diagram root)")),
		mcp.WithNumber("x", mcp.Description("Left position")),
		mcp.WithNumber("y", mcp.Description("Top position")),
	), s.handleAddNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"add_connected_node",
		mcp.WithDescription("Add a node connected from an existing node, as a single undo step."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("The node the new connector starts from")),
		mcp.WithString("type", mcp.Description("Node type (default task)")),
		mcp.WithString("label", mcp.Description("Node label")),
		mcp.WithString("edge_type", mcp.Description("Connector type (default sequence_flow)")),
		mcp.WithNumber("x", mcp.Description("Left position")),
		mcp.WithNumber("y", mcp.Description("Top position")),
	), s.handleAddConnectedNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"connect",
		mcp.WithDescription("Connect two existing nodes. Returns the connector id."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("edge_type", mcp.Description("Connector type (default sequence_flow)")),
	), s.handleConnect)

	s.mcpServer.AddTool(mcp.NewTool(
		"move_node",
		mcp.WithDescription("Move a node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Left position")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Top position")),
	), s.handleMoveNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"set_property",
		mcp.WithDescription("Set a property of a node or connector. The 'label' key renames a node."),
		mcp.WithString("element_id", mcp.Required(), mcp.Description("Node or connector id")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Property name")),
		mcp.WithString("value", mcp.Description("Property value")),
	), s.handleSetProperty)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_element",
		mcp.WithDescription("Delete a node (with its connectors) or a connector."),
		mcp.WithString("element_id", mcp.Required(), mcp.Description("Node or connector id")),
	), s.handleDeleteElement)

	s.mcpServer.AddTool(mcp.NewTool(
		"undo",
		mcp.WithDescription("Undo the last change."),
	), s.handleUndo)

	s.mcpServer.AddTool(mcp.NewTool(
		"redo",
		mcp.WithDescription("Redo the last undone change."),
	), s.handleRedo)

	s.mcpServer.AddTool(mcp.NewTool(
		"save",
		mcp.WithDescription("Save the diagram."),
	), s.handleSave)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"stunner-aware",
		mcp.WithPromptDescription("Explains how diagram edits map to undo steps"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadDiagram(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.editor.Diagram(), "", "  ")
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagram: %w", err)
	}
	return jsonContents(request, data), nil
}

type historyEntry struct {
	Records []graph.Record `json:"records"`
}

type historyView struct {
	UndoDepth int            `json:"undo_depth"`
	RedoDepth int            `json:"redo_depth"`
	Entries   []historyEntry `json:"entries"`
}

func (s *Server) handleReadHistory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.mu.Lock()
	commands := s.editor.Commands()
	view := historyView{
		UndoDepth: commands.Registry().Size(),
		RedoDepth: commands.RedoRegistry().Size(),
		Entries:   []historyEntry{},
	}
	for _, entry := range commands.Registry().Entries() {
		var he historyEntry
		for _, cmd := range canvas.Flatten(entry) {
			rec, err := graph.Encode(cmd)
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			he.Records = append(he.Records, rec)
		}
		view.Entries = append(view.Entries, he)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return jsonContents(request, data), nil
}

func jsonContents(request mcp.ReadResourceRequest, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

// runRequest executes cmds inside one request. The first failure rolls the
// whole request back.
func (s *Server) runRequest(cmds ...canvas.Command) command.Result {
	commands := s.editor.Commands()
	h := s.editor.Handler()
	commands.Start()
	var r command.Result
	for _, cmd := range cmds {
		if r = commands.Execute(h, cmd); r.IsError() {
			break
		}
	}
	if done := commands.Complete(); done.IsError() {
		return command.Merge(r, done)
	}
	return r
}

func toolResult(r command.Result, okMsg string) *mcp.CallToolResult {
	if r.IsError() {
		return mcp.NewToolResultError(r.Message())
	}
	if r.Severity == command.SeverityWarning {
		return mcp.NewToolResultText(fmt.Sprintf("%s (warning: %s)", okMsg, r.Message()))
	}
	return mcp.NewToolResultText(okMsg)
}

func parsePoint(request mcp.CallToolRequest) (int, int) {
	return int(mcp.ParseFloat64(request, "x", 0)), int(mcp.ParseFloat64(request, "y", 0))
}

func nodeType(request mcp.CallToolRequest) graph.NodeType {
	return graph.NodeType(mcp.ParseString(request, "type", string(graph.NodeTask)))
}

func edgeType(request mcp.CallToolRequest) graph.EdgeType {
	return graph.EdgeType(mcp.ParseString(request, "edge_type", string(graph.EdgeSequenceFlow)))
}

const (
	defaultWidth  = 12
	defaultHeight = 3
)

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, y := parsePoint(request)
	label := mcp.ParseString(request, "label", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	parentID := mcp.ParseString(request, "parent_id", s.editor.Handler().RootID())
	n := graph.NewNode(nodeType(request), label, graph.Bounds{X: x, Y: y, W: defaultWidth, H: defaultHeight})
	r := s.runRequest(s.factory.AddChildNode(parentID, n))
	return toolResult(r, n.ID), nil
}

func (s *Server) handleAddConnectedNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, y := parsePoint(request)

	s.mu.Lock()
	defer s.mu.Unlock()
	p := proxy.NewNodeProxy(s.proxyEnv(), proxy.NodeOptions{
		Type:          nodeType(request),
		Label:         mcp.ParseString(request, "label", ""),
		Width:         defaultWidth,
		Height:        defaultHeight,
		AsChildOfRoot: true,
		SourceID:      mcp.ParseString(request, "source_id", ""),
		EdgeType:      edgeType(request),
		SourceMagnet:  graph.NoMagnet,
		TargetMagnet:  graph.NoMagnet,
	})
	if err := p.Start(x, y); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := p.Create(); r.IsError() {
		return toolResult(r, ""), nil
	}
	r := p.Accept()
	return toolResult(r, fmt.Sprintf("node %s connected by %s", p.ElementID(), p.EdgeID())), nil
}

// proxyEnv has no view: tool calls have no pointer to follow.
func (s *Server) proxyEnv() proxy.Env {
	return proxy.Env{
		Handler:   s.editor.Handler(),
		Commands:  s.editor.Commands(),
		Selection: s.editor.Selection(),
		Logger:    s.editor.Logger(),
	}
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID := mcp.ParseString(request, "source_id", "")
	targetID := mcp.ParseString(request, "target_id", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	p := proxy.NewConnectorProxy(s.proxyEnv(), sourceID, edgeType(request))
	if err := p.Start(0, 0); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if targetID == "" {
		p.Destroy()
		return mcp.NewToolResultError("target_id is required"), nil
	}
	r := p.AcceptAt(targetID, graph.NoMagnet)
	return toolResult(r, p.ElementID()), nil
}

func (s *Server) handleMoveNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := mcp.ParseString(request, "node_id", "")
	x, y := parsePoint(request)

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.runRequest(s.factory.UpdatePosition(nodeID, x, y))
	return toolResult(r, fmt.Sprintf("moved %s to %d,%d", nodeID, x, y)), nil
}

func (s *Server) handleSetProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	elementID := mcp.ParseString(request, "element_id", "")
	key := mcp.ParseString(request, "key", "")
	value := mcp.ParseString(request, "value", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.runRequest(s.factory.UpdateProperty(elementID, key, value))
	return toolResult(r, fmt.Sprintf("%s.%s = %q", elementID, key, value)), nil
}

func (s *Server) handleDeleteElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	elementID := mcp.ParseString(request, "element_id", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.editor.Handler().Graph()
	var cmd canvas.Command
	switch {
	case elementID == s.editor.Handler().RootID():
		return mcp.NewToolResultError("the diagram root cannot be deleted"), nil
	case g.Nodes[elementID] != nil:
		cmd = s.factory.DeleteNode(elementID)
	case g.Edges[elementID] != nil:
		cmd = s.factory.DeleteConnector(elementID)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("element not found: %s", elementID)), nil
	}
	r := s.runRequest(cmd)
	return toolResult(r, "deleted "+elementID), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toolResult(s.editor.Undo(), "undone"), nil
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toolResult(s.editor.Redo(), "redone"), nil
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editor.Save(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText("saved " + s.editor.Diagram().ID), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "stunner-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are editing a process diagram.

Concepts:
- Node: a task, event, gateway or lane placed on the canvas.
- Connector: a directed edge from a source node to a target node.
- Root: the diagram container; new nodes are its children unless a parent is given.
- Undo step: every tool call is applied as one step. If any part of a call fails,
  nothing of that call is applied.

Read stunner://diagram to learn element ids before moving, connecting or deleting.
Use add_connected_node to grow a flow from an existing node in one step.
`

	return mcp.NewGetPromptResult(
		"stunner-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
