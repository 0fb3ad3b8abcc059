package proxy

import (
	"fmt"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// ConnectorProxy draws a connector from a source node. The connector exists
// as soon as it is created; its target is set when it is dropped on a node.
type ConnectorProxy struct {
	*ElementProxy
	SourceID     string
	SourceMagnet int
	EdgeType     graph.EdgeType

	factory canvas.Factory
}

func NewConnectorProxy(env Env, sourceID string, edgeType graph.EdgeType) *ConnectorProxy {
	if edgeType == "" {
		edgeType = graph.EdgeSequenceFlow
	}
	p := &ConnectorProxy{SourceID: sourceID, SourceMagnet: graph.NoMagnet, EdgeType: edgeType}
	p.ElementProxy = NewElementProxy(env, p)
	return p
}

func (p *ConnectorProxy) Build(h *canvas.Handler, x, y int) (canvas.Command, string) {
	edge := graph.NewEdge(p.EdgeType)
	sourceID, magnet := p.SourceID, p.SourceMagnet
	return command.NewDeferred[*canvas.Handler](func(h *canvas.Handler) (canvas.Command, error) {
		if _, ok := h.Graph().Node(sourceID); !ok {
			return nil, fmt.Errorf("source node %s: %w", sourceID, graph.ErrNodeNotFound)
		}
		return p.factory.AddConnector(sourceID, edge, magnet), nil
	}), edge.ID
}

// MoveCommand returns nil: only the provisional shape follows the pointer.
func (p *ConnectorProxy) MoveCommand(string, int, int) canvas.Command { return nil }

// AcceptAt drops the connector on targetID and accepts the gesture. An empty
// targetID is a drop outside any node and cancels the gesture.
func (p *ConnectorProxy) AcceptAt(targetID string, magnet int) command.Result {
	if p.State() != Active {
		return command.Warn("proxy: no gesture in progress")
	}
	if targetID == "" {
		p.Destroy()
		return command.Warn("connector dropped outside a target")
	}
	if p.ElementID() == "" {
		if r := p.Create(); r.IsError() {
			return r
		}
	}
	r := p.commands.Execute(p.handler, p.factory.SetTargetNode(p.ElementID(), targetID, magnet))
	if r.IsError() {
		p.Destroy()
		return r
	}
	return p.Accept()
}
