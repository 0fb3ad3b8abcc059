package graph

import (
	"fmt"

	"github.com/romartin/kie-wb-common-sub000/pkg/command"
)

// Command is a reversible mutation of a Graph.
type Command = command.Command[*Graph]

// LabelProperty is handled by UpdateProperty as the node label.
const LabelProperty = "label"

// AddNode adds a node, optionally as a child of a parent container.
type AddNode struct {
	Node     *Node
	ParentID string
}

func (c *AddNode) Allow(g *Graph) command.Result {
	if c.Node == nil || c.Node.ID == "" {
		return command.Failed("add node: missing node")
	}
	if _, exists := g.Nodes[c.Node.ID]; exists {
		return command.FailedOn(c.Node.ID, "add node: node already exists")
	}
	if c.ParentID != "" {
		if _, ok := g.Nodes[c.ParentID]; !ok {
			return command.FailedOn(c.ParentID, "add node: parent not found")
		}
	}
	return command.OK()
}

func (c *AddNode) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	n := c.Node.clone()
	if c.ParentID != "" {
		n.ParentID = c.ParentID
	}
	return command.FromError(g.AddNode(n))
}

func (c *AddNode) Undo(g *Graph) command.Result {
	_, err := g.RemoveNode(c.Node.ID)
	return command.FromError(err)
}

// DeleteNode removes a leaf node together with its connectors.
type DeleteNode struct {
	NodeID string

	node  *Node
	edges []*Edge
}

func (c *DeleteNode) Allow(g *Graph) command.Result {
	if _, ok := g.Nodes[c.NodeID]; !ok {
		return command.FailedOn(c.NodeID, "delete node: node not found")
	}
	if len(g.Children(c.NodeID)) > 0 {
		return command.FailedOn(c.NodeID, "delete node: node has children")
	}
	return command.OK()
}

func (c *DeleteNode) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	c.edges = c.edges[:0]
	for _, e := range g.EdgesOf(c.NodeID) {
		c.edges = append(c.edges, e.clone())
		delete(g.Edges, e.ID)
	}
	n, _ := g.RemoveNode(c.NodeID)
	c.node = n.clone()
	return command.OK()
}

func (c *DeleteNode) Undo(g *Graph) command.Result {
	if c.node == nil {
		return command.FailedOn(c.NodeID, "delete node: nothing to restore")
	}
	if err := g.AddNode(c.node.clone()); err != nil {
		return command.FromError(err)
	}
	for _, e := range c.edges {
		if err := g.AddEdge(e.clone()); err != nil {
			return command.FromError(err)
		}
	}
	return command.OK()
}

// AddConnector adds an edge whose source is an existing node.
type AddConnector struct {
	Edge         *Edge
	SourceID     string
	SourceMagnet int
}

func (c *AddConnector) Allow(g *Graph) command.Result {
	if c.Edge == nil || c.Edge.ID == "" {
		return command.Failed("add connector: missing edge")
	}
	if _, exists := g.Edges[c.Edge.ID]; exists {
		return command.FailedOn(c.Edge.ID, "add connector: edge already exists")
	}
	if _, ok := g.Nodes[c.SourceID]; !ok {
		return command.FailedOn(c.SourceID, "add connector: source node not found")
	}
	return command.OK()
}

func (c *AddConnector) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	e := c.Edge.clone()
	e.SourceID = c.SourceID
	e.SourceMagnet = c.SourceMagnet
	return command.FromError(g.AddEdge(e))
}

func (c *AddConnector) Undo(g *Graph) command.Result {
	_, err := g.RemoveEdge(c.Edge.ID)
	return command.FromError(err)
}

// DeleteConnector removes an edge.
type DeleteConnector struct {
	EdgeID string

	edge *Edge
}

func (c *DeleteConnector) Allow(g *Graph) command.Result {
	if _, ok := g.Edges[c.EdgeID]; !ok {
		return command.FailedOn(c.EdgeID, "delete connector: edge not found")
	}
	return command.OK()
}

func (c *DeleteConnector) Execute(g *Graph) command.Result {
	e, err := g.RemoveEdge(c.EdgeID)
	if err != nil {
		return command.FailedOn(c.EdgeID, err.Error())
	}
	c.edge = e.clone()
	return command.OK()
}

func (c *DeleteConnector) Undo(g *Graph) command.Result {
	if c.edge == nil {
		return command.FailedOn(c.EdgeID, "delete connector: nothing to restore")
	}
	return command.FromError(g.AddEdge(c.edge.clone()))
}

// SetConnectionSource reconnects the source end of an edge. An empty NodeID
// disconnects it.
type SetConnectionSource struct {
	EdgeID string
	NodeID string
	Magnet int

	oldNodeID string
	oldMagnet int
}

func (c *SetConnectionSource) Allow(g *Graph) command.Result {
	return allowConnection(g, c.EdgeID, c.NodeID)
}

func (c *SetConnectionSource) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	e := g.Edges[c.EdgeID]
	c.oldNodeID, c.oldMagnet = e.SourceID, e.SourceMagnet
	e.SourceID, e.SourceMagnet = c.NodeID, c.Magnet
	return command.OK()
}

func (c *SetConnectionSource) Undo(g *Graph) command.Result {
	e, ok := g.Edges[c.EdgeID]
	if !ok {
		return command.FailedOn(c.EdgeID, "set source: edge not found")
	}
	e.SourceID, e.SourceMagnet = c.oldNodeID, c.oldMagnet
	return command.OK()
}

// SetConnectionTarget reconnects the target end of an edge. An empty NodeID
// disconnects it.
type SetConnectionTarget struct {
	EdgeID string
	NodeID string
	Magnet int

	oldNodeID string
	oldMagnet int
}

func (c *SetConnectionTarget) Allow(g *Graph) command.Result {
	return allowConnection(g, c.EdgeID, c.NodeID)
}

func (c *SetConnectionTarget) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	e := g.Edges[c.EdgeID]
	c.oldNodeID, c.oldMagnet = e.TargetID, e.TargetMagnet
	e.TargetID, e.TargetMagnet = c.NodeID, c.Magnet
	return command.OK()
}

func (c *SetConnectionTarget) Undo(g *Graph) command.Result {
	e, ok := g.Edges[c.EdgeID]
	if !ok {
		return command.FailedOn(c.EdgeID, "set target: edge not found")
	}
	e.TargetID, e.TargetMagnet = c.oldNodeID, c.oldMagnet
	return command.OK()
}

func allowConnection(g *Graph, edgeID, nodeID string) command.Result {
	if _, ok := g.Edges[edgeID]; !ok {
		return command.FailedOn(edgeID, "connection: edge not found")
	}
	if nodeID == "" {
		return command.OK()
	}
	if _, ok := g.Nodes[nodeID]; !ok {
		return command.FailedOn(nodeID, "connection: node not found")
	}
	return command.OK()
}

// UpdatePosition moves a node.
type UpdatePosition struct {
	NodeID string
	X, Y   int

	oldX, oldY int
}

func (c *UpdatePosition) Allow(g *Graph) command.Result {
	if _, ok := g.Nodes[c.NodeID]; !ok {
		return command.FailedOn(c.NodeID, "update position: node not found")
	}
	return command.OK()
}

func (c *UpdatePosition) Execute(g *Graph) command.Result {
	n, ok := g.Nodes[c.NodeID]
	if !ok {
		return command.FailedOn(c.NodeID, "update position: node not found")
	}
	c.oldX, c.oldY = n.Bounds.X, n.Bounds.Y
	n.Bounds.X, n.Bounds.Y = c.X, c.Y
	return command.OK()
}

func (c *UpdatePosition) Undo(g *Graph) command.Result {
	n, ok := g.Nodes[c.NodeID]
	if !ok {
		return command.FailedOn(c.NodeID, "update position: node not found")
	}
	n.Bounds.X, n.Bounds.Y = c.oldX, c.oldY
	return command.OK()
}

// UpdateProperty sets a property on a node or edge. LabelProperty on a node
// sets its label.
type UpdateProperty struct {
	ElementID string
	Key       string
	Value     string

	oldValue string
	existed  bool
}

func (c *UpdateProperty) Allow(g *Graph) command.Result {
	if c.Key == "" {
		return command.FailedOn(c.ElementID, "update property: empty key")
	}
	if !g.Element(c.ElementID) {
		return command.FailedOn(c.ElementID, "update property: element not found")
	}
	return command.OK()
}

func (c *UpdateProperty) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	if n, ok := g.Nodes[c.ElementID]; ok && c.Key == LabelProperty {
		c.oldValue, c.existed = n.Label, true
		n.Label = c.Value
		return command.OK()
	}
	props := c.props(g)
	c.oldValue, c.existed = props[c.Key]
	props[c.Key] = c.Value
	return command.OK()
}

func (c *UpdateProperty) Undo(g *Graph) command.Result {
	if !g.Element(c.ElementID) {
		return command.FailedOn(c.ElementID, "update property: element not found")
	}
	if n, ok := g.Nodes[c.ElementID]; ok && c.Key == LabelProperty {
		n.Label = c.oldValue
		return command.OK()
	}
	props := c.props(g)
	if c.existed {
		props[c.Key] = c.oldValue
	} else {
		delete(props, c.Key)
	}
	return command.OK()
}

func (c *UpdateProperty) props(g *Graph) map[string]string {
	if n, ok := g.Nodes[c.ElementID]; ok {
		if n.Properties == nil {
			n.Properties = make(map[string]string)
		}
		return n.Properties
	}
	e := g.Edges[c.ElementID]
	if e.Properties == nil {
		e.Properties = make(map[string]string)
	}
	return e.Properties
}

// SetParent moves a node into another container.
type SetParent struct {
	NodeID   string
	ParentID string

	oldParentID string
}

func (c *SetParent) Allow(g *Graph) command.Result {
	if _, ok := g.Nodes[c.NodeID]; !ok {
		return command.FailedOn(c.NodeID, "set parent: node not found")
	}
	if c.ParentID == "" {
		return command.OK()
	}
	if _, ok := g.Nodes[c.ParentID]; !ok {
		return command.FailedOn(c.ParentID, "set parent: parent not found")
	}
	for id := c.ParentID; id != ""; id = g.Nodes[id].ParentID {
		if id == c.NodeID {
			return command.FailedOn(c.NodeID, fmt.Sprintf("set parent: %s would contain itself", c.NodeID))
		}
		if _, ok := g.Nodes[id]; !ok {
			break
		}
	}
	return command.OK()
}

func (c *SetParent) Execute(g *Graph) command.Result {
	if r := c.Allow(g); r.IsError() {
		return r
	}
	n := g.Nodes[c.NodeID]
	c.oldParentID = n.ParentID
	n.ParentID = c.ParentID
	return command.OK()
}

func (c *SetParent) Undo(g *Graph) command.Result {
	n, ok := g.Nodes[c.NodeID]
	if !ok {
		return command.FailedOn(c.NodeID, "set parent: node not found")
	}
	n.ParentID = c.oldParentID
	return command.OK()
}
