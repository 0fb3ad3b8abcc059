package proxy

import (
	"fmt"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// NodeOptions describes the node a NodeProxy creates and, when SourceID is
// set, the connector linking it to an existing node.
type NodeOptions struct {
	Type          graph.NodeType
	Label         string
	Width, Height int
	AsChildOfRoot bool

	SourceID     string
	EdgeType     graph.EdgeType
	SourceMagnet int
	TargetMagnet int
}

// NodeProxy creates a node, optionally connected from a source node.
type NodeProxy struct {
	*ElementProxy
	opts    NodeOptions
	factory canvas.Factory
	edgeID  string
}

func NewNodeProxy(env Env, opts NodeOptions) *NodeProxy {
	if opts.EdgeType == "" {
		opts.EdgeType = graph.EdgeSequenceFlow
	}
	p := &NodeProxy{opts: opts}
	p.ElementProxy = NewElementProxy(env, p)
	return p
}

// EdgeID returns the connector created by the last Build, if any.
func (p *NodeProxy) EdgeID() string { return p.edgeID }

// Build adds the node, then the connector from the source, then connects the
// connector to the node. Later steps look up what earlier steps added, so
// they are resolved only once those have run.
func (p *NodeProxy) Build(h *canvas.Handler, x, y int) (canvas.Command, string) {
	f := p.factory
	node := graph.NewNode(p.opts.Type, p.opts.Label, graph.Bounds{X: x, Y: y, W: p.opts.Width, H: p.opts.Height})

	create := command.NewDeferred[*canvas.Handler](func(h *canvas.Handler) (canvas.Command, error) {
		if p.opts.AsChildOfRoot {
			return f.AddChildNode(h.RootID(), node), nil
		}
		return f.AddNode(node), nil
	})
	p.edgeID = ""
	if p.opts.SourceID == "" {
		return create, node.ID
	}

	edge := graph.NewEdge(p.opts.EdgeType)
	p.edgeID = edge.ID
	create.Defer(func(h *canvas.Handler) (canvas.Command, error) {
		if _, ok := h.Graph().Node(p.opts.SourceID); !ok {
			return nil, fmt.Errorf("source node %s: %w", p.opts.SourceID, graph.ErrNodeNotFound)
		}
		return f.AddConnector(p.opts.SourceID, edge, p.opts.SourceMagnet), nil
	})
	create.Defer(func(h *canvas.Handler) (canvas.Command, error) {
		if _, ok := h.Graph().Node(node.ID); !ok {
			return nil, fmt.Errorf("new node %s: %w", node.ID, graph.ErrNodeNotFound)
		}
		if _, ok := h.Graph().Edge(edge.ID); !ok {
			return nil, fmt.Errorf("new connector %s: %w", edge.ID, graph.ErrEdgeNotFound)
		}
		return f.SetTargetNode(edge.ID, node.ID, p.opts.TargetMagnet), nil
	})
	return create, node.ID
}

func (p *NodeProxy) MoveCommand(elementID string, x, y int) canvas.Command {
	return p.factory.UpdatePosition(elementID, x, y)
}
