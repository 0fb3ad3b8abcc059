// Package tui is a terminal front end for an editor session. Mouse gestures
// on the canvas become requests: dragging a node moves it as one undo step,
// and the node and connect tools create elements through proxies.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/event"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/proxy"
	"github.com/romartin/kie-wb-common-sub000/pkg/session"
)

// Layout
const (
	canvasTop     = 1
	defaultWidth  = 80
	defaultHeight = 24

	nodeWidth  = 12
	nodeHeight = 3
)

// Tool selects what a left button gesture does on the canvas.
type Tool int

const (
	ToolSelect Tool = iota
	ToolNode
	ToolConnect
)

func (t Tool) String() string {
	switch t {
	case ToolNode:
		return "node"
	case ToolConnect:
		return "connect"
	default:
		return "select"
	}
}

// ghost is the provisional shape of a proxy gesture.
type ghost struct {
	visible    bool
	x, y, w, h int
}

func (g *ghost) Show(x, y int)   { g.visible, g.x, g.y = true, x, y }
func (g *ghost) MoveTo(x, y int) { g.x, g.y = x, y }
func (g *ghost) Hide()           { g.visible = false }

// drag is a node move in progress. dx, dy keep the grab offset.
type drag struct {
	nodeID string
	dx, dy int
}

// Model is the bubbletea model of the editor.
type Model struct {
	editor  *session.EditorSession
	factory canvas.Factory
	keys    keyMap
	help    help.Model

	width, height int
	tool          Tool
	ghost         *ghost
	nodeProxy     *proxy.NodeProxy
	connProxy     *proxy.ConnectorProxy
	drag          *drag

	selected string
	depth    event.History
	status   string
	failed   bool
	unbind   []func()
}

// New returns a model driving editor. The editor must be initialized.
func New(editor *session.EditorSession) *Model {
	m := &Model{
		editor: editor,
		keys:   keys,
		help:   help.New(),
		width:  defaultWidth,
		height: defaultHeight,
		ghost:  &ghost{},
	}
	m.unbind = append(m.unbind,
		editor.Selection().Subscribe(m.onSelection),
		editor.History().Subscribe(m.onHistory),
	)
	return m
}

// Close cancels any gesture and detaches the model from the session.
func (m *Model) Close() {
	m.cancel()
	for _, unsubscribe := range m.unbind {
		unsubscribe()
	}
	m.unbind = nil
}

func (m *Model) Tool() Tool       { return m.tool }
func (m *Model) Selected() string { return m.selected }
func (m *Model) Status() string   { return m.status }

// busy reports whether a gesture holds the open request.
func (m *Model) busy() bool {
	return m.nodeProxy != nil || m.connProxy != nil || m.editor.Lifecycle().Active()
}

func (m *Model) onSelection(s event.Selection) {
	m.selected = ""
	if len(s.ElementIDs) > 0 {
		m.selected = s.ElementIDs[0]
	}
}

func (m *Model) onHistory(h event.History) { m.depth = h }

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.cancel()
		m.setStatus(command.OK(), "cancelled")
	case key.Matches(msg, m.keys.Select):
		m.switchTool(ToolSelect)
	case key.Matches(msg, m.keys.Node):
		m.switchTool(ToolNode)
	case key.Matches(msg, m.keys.Connect):
		m.switchTool(ToolConnect)
	case key.Matches(msg, m.keys.Undo):
		m.setStatus(m.editor.Undo(), "undone")
	case key.Matches(msg, m.keys.Redo):
		m.setStatus(m.editor.Redo(), "redone")
	case key.Matches(msg, m.keys.Delete):
		m.deleteSelected()
	case key.Matches(msg, m.keys.Save):
		if err := m.editor.Save(context.Background()); err != nil {
			m.status, m.failed = fmt.Sprintf("save failed: %v", err), true
			break
		}
		m.status, m.failed = "saved "+m.editor.Diagram().Name, false
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) switchTool(t Tool) {
	m.cancel()
	m.tool = t
	m.status, m.failed = "tool: "+t.String(), false
}

// cancel aborts whatever gesture is in progress. Escape is published so the
// session lifecycle rolls back a drag it started.
func (m *Model) cancel() {
	m.editor.Keys().Publish(event.Key{Name: event.KeyEscape})
	m.drag = nil
	if m.nodeProxy != nil {
		m.nodeProxy.Destroy()
		m.nodeProxy = nil
	}
	if m.connProxy != nil {
		m.connProxy.Destroy()
		m.connProxy = nil
	}
}

func (m *Model) deleteSelected() {
	if m.busy() {
		m.setStatus(command.Warn("finish the current gesture first"), "")
		return
	}
	if m.selected == "" {
		m.setStatus(command.Warn("nothing selected"), "")
		return
	}
	var cmd canvas.Command
	g := m.editor.Handler().Graph()
	switch {
	case g.Nodes[m.selected] != nil:
		cmd = m.factory.DeleteNode(m.selected)
	case g.Edges[m.selected] != nil:
		cmd = m.factory.DeleteConnector(m.selected)
	default:
		m.selected = ""
		return
	}
	commands := m.editor.Commands()
	commands.Start()
	r := m.editor.Execute(cmd)
	if done := commands.Complete(); done.IsError() {
		r = command.Merge(r, done)
	}
	if !r.IsError() {
		m.editor.Selection().Publish(event.Selection{})
	}
	m.setStatus(r, "deleted")
}

func (m *Model) setStatus(r command.Result, okMsg string) {
	switch {
	case r.IsError():
		m.status, m.failed = r.Message(), true
	case r.Severity == command.SeverityWarning:
		m.status, m.failed = r.Message(), false
	default:
		m.status, m.failed = okMsg, false
	}
}

func mouseEvent(msg tea.MouseMsg, x, y int) (event.Mouse, bool) {
	e := event.Mouse{X: x, Y: y}
	switch msg.Action {
	case tea.MouseActionPress:
		e.Action = event.MouseDown
	case tea.MouseActionMotion:
		e.Action = event.MouseMove
	case tea.MouseActionRelease:
		e.Action = event.MouseUp
	default:
		return e, false
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		e.Button = event.ButtonLeft
	case tea.MouseButtonMiddle:
		e.Button = event.ButtonMiddle
	case tea.MouseButtonRight:
		e.Button = event.ButtonRight
	}
	return e, true
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	e, ok := mouseEvent(msg, msg.X, msg.Y-canvasTop)
	if !ok {
		return
	}
	switch m.tool {
	case ToolSelect:
		m.selectGesture(e)
	case ToolNode:
		m.nodeGesture(e)
	case ToolConnect:
		m.connectGesture(e)
	}
}

// selectGesture moves a node. The request is opened and closed by the
// session lifecycle from the published mouse events, so every position
// update of one drag lands in the same undo step.
func (m *Model) selectGesture(e event.Mouse) {
	h := m.editor.Handler()
	switch e.Action {
	case event.MouseDown:
		m.editor.Mouse().Publish(e)
		if e.Button != event.ButtonLeft {
			return
		}
		n, ok := h.NodeAt(e.X, e.Y)
		if !ok {
			m.drag = nil
			m.editor.Selection().Publish(event.Selection{})
			return
		}
		m.drag = &drag{nodeID: n.ID, dx: e.X - n.Bounds.X, dy: e.Y - n.Bounds.Y}
		m.editor.Selection().Publish(event.Selection{ElementIDs: []string{n.ID}})
	case event.MouseMove:
		m.editor.Mouse().Publish(e)
		if m.drag == nil || !m.editor.Lifecycle().Active() {
			return
		}
		n, ok := h.Graph().Node(m.drag.nodeID)
		if !ok {
			return
		}
		x, y := e.X-m.drag.dx, e.Y-m.drag.dy
		if n.Bounds.X == x && n.Bounds.Y == y {
			return
		}
		m.setStatus(m.editor.Execute(m.factory.UpdatePosition(n.ID, x, y)), "moving")
	case event.MouseUp:
		m.editor.Mouse().Publish(e)
		if m.drag != nil {
			m.drag = nil
			m.setStatus(command.OK(), "moved")
		}
	}
}

// nodeGesture creates a node centred under the pointer. Pressing on an
// existing node connects the new node to it.
func (m *Model) nodeGesture(e event.Mouse) {
	x, y := e.X-nodeWidth/2, e.Y-nodeHeight/2
	switch e.Action {
	case event.MouseDown:
		if e.Button != event.ButtonLeft || m.nodeProxy != nil {
			return
		}
		opts := proxy.NodeOptions{
			Type:          graph.NodeTask,
			Label:         "task",
			Width:         nodeWidth,
			Height:        nodeHeight,
			AsChildOfRoot: true,
			SourceMagnet:  graph.NoMagnet,
			TargetMagnet:  graph.NoMagnet,
		}
		if src, ok := m.editor.Handler().NodeAt(e.X, e.Y); ok {
			opts.SourceID = src.ID
		}
		m.ghost.w, m.ghost.h = nodeWidth, nodeHeight
		p := proxy.NewNodeProxy(m.proxyEnv(), opts)
		if err := p.Start(x, y); err != nil {
			m.status, m.failed = err.Error(), true
			return
		}
		if r := p.Create(); r.IsError() {
			m.setStatus(r, "")
			return
		}
		m.nodeProxy = p
	case event.MouseMove:
		if m.nodeProxy != nil {
			m.setStatus(m.nodeProxy.Move(x, y), "placing node")
		}
	case event.MouseUp:
		if m.nodeProxy == nil {
			return
		}
		m.setStatus(m.nodeProxy.Accept(), "node added")
		m.nodeProxy = nil
	}
}

func (m *Model) proxyEnv() proxy.Env {
	return proxy.Env{
		Handler:   m.editor.Handler(),
		Commands:  m.editor.Commands(),
		View:      m.ghost,
		Selection: m.editor.Selection(),
		Logger:    m.editor.Logger(),
	}
}

// connectGesture draws a connector from the node under the press to the
// node under the release.
func (m *Model) connectGesture(e event.Mouse) {
	h := m.editor.Handler()
	switch e.Action {
	case event.MouseDown:
		if e.Button != event.ButtonLeft || m.connProxy != nil {
			return
		}
		src, ok := h.NodeAt(e.X, e.Y)
		if !ok {
			m.setStatus(command.Warn("press on a node to connect from it"), "")
			return
		}
		m.ghost.w, m.ghost.h = 1, 1
		p := proxy.NewConnectorProxy(m.proxyEnv(), src.ID, graph.EdgeSequenceFlow)
		p.SourceMagnet = magnetAt(src.Bounds, e.X, e.Y)
		if err := p.Start(e.X, e.Y); err != nil {
			m.status, m.failed = err.Error(), true
			return
		}
		if r := p.Create(); r.IsError() {
			m.setStatus(r, "")
			return
		}
		m.connProxy = p
	case event.MouseMove:
		if m.connProxy != nil {
			m.setStatus(m.connProxy.Move(e.X, e.Y), "connecting")
		}
	case event.MouseUp:
		if m.connProxy == nil {
			return
		}
		p := m.connProxy
		m.connProxy = nil
		target, ok := h.NodeAt(e.X, e.Y)
		if !ok || target.ID == p.SourceID {
			m.setStatus(p.AcceptAt("", graph.NoMagnet), "")
			return
		}
		m.setStatus(p.AcceptAt(target.ID, magnetAt(target.Bounds, e.X, e.Y)), "connected")
	}
}

func (m *Model) canvasHeight(footer string) int {
	return m.height - canvasTop - lipgloss.Height(footer)
}

func (m *Model) View() string {
	d := m.editor.Diagram()
	header := headerStyle.Render(fmt.Sprintf("Stunner · %s", d.Name)) +
		subtleStyle.Render(fmt.Sprintf("  tool: %s", m.tool))

	var status strings.Builder
	status.WriteString(subtleStyle.Render(fmt.Sprintf("undo %d · redo %d · %d nodes · %d connectors",
		m.depth.UndoDepth, m.depth.RedoDepth, d.Graph.NodeCount()-1, d.Graph.EdgeCount())))
	if m.status != "" {
		status.WriteString("  ")
		if m.failed {
			status.WriteString(errorStyle.Render(m.status))
		} else {
			status.WriteString(okStyle.Render(m.status))
		}
	}
	footer := status.String() + "\n" + m.help.View(m.keys)

	g := newGrid(m.width, m.canvasHeight(footer))
	drawDiagram(g, d, m.selected, m.ghost)
	return lipgloss.JoinVertical(lipgloss.Left, header, g.Render(), footer)
}
