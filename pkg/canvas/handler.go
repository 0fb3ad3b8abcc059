// Package canvas holds the diagram being edited and adapts graph commands to
// it. The Handler is the context every session command runs against.
package canvas

import (
	"time"

	"github.com/romartin/kie-wb-common-sub000/pkg/event"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// ChangeKind tells whether a graph command was applied or reverted.
type ChangeKind int

const (
	Applied ChangeKind = iota
	Reverted
)

func (k ChangeKind) String() string {
	if k == Reverted {
		return "reverted"
	}
	return "applied"
}

// Change is published after a graph command mutated the diagram.
type Change struct {
	Kind    ChangeKind
	Command graph.Command
}

// Handler owns the diagram of one editing session.
type Handler struct {
	diagram *graph.Diagram
	changes *event.Bus[Change]
}

// NewHandler returns a handler editing d.
func NewHandler(d *graph.Diagram) *Handler {
	return &Handler{
		diagram: d,
		changes: event.NewBus[Change](),
	}
}

func (h *Handler) Diagram() *graph.Diagram { return h.diagram }
func (h *Handler) Graph() *graph.Graph     { return h.diagram.Graph }
func (h *Handler) RootID() string          { return h.diagram.RootID }

// SetDiagram swaps the edited diagram, e.g. after loading from storage.
func (h *Handler) SetDiagram(d *graph.Diagram) {
	h.diagram = d
}

// OnChange registers fn for every applied or reverted graph command.
func (h *Handler) OnChange(fn func(Change)) (unsubscribe func()) {
	return h.changes.Subscribe(fn)
}

func (h *Handler) notify(kind ChangeKind, cmd graph.Command) {
	h.diagram.UpdatedAt = time.Now().UTC()
	h.changes.Publish(Change{Kind: kind, Command: cmd})
}

// Element reports whether id names a node or connector of the diagram.
func (h *Handler) Element(id string) bool {
	return h.Graph().Element(id)
}

// NodeAt returns the innermost non-root node whose bounds contain the point.
// Among siblings the one with the greatest id wins so hits are stable.
func (h *Handler) NodeAt(x, y int) (*graph.Node, bool) {
	var hit *graph.Node
	hitDepth := -1
	g := h.Graph()
	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		if id == h.RootID() || !n.Bounds.Contains(x, y) {
			continue
		}
		if d := h.depth(n); d >= hitDepth {
			hit, hitDepth = n, d
		}
	}
	return hit, hit != nil
}

func (h *Handler) depth(n *graph.Node) int {
	d := 0
	g := h.Graph()
	for n.ParentID != "" && d <= len(g.Nodes) {
		parent, ok := g.Nodes[n.ParentID]
		if !ok {
			break
		}
		n = parent
		d++
	}
	return d
}
