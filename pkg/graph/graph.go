package graph

import (
	"fmt"
	"sort"
)

// Graph is the diagram graph and its UUID index.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges map[string]*Edge `json:"edges"`
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
	}
}

func (g *Graph) NodeCount() int { return len(g.Nodes) }
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Node looks a node up by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Edge looks an edge up by id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.Edges[id]
	return e, ok
}

// Element reports whether id names a node or an edge.
func (g *Graph) Element(id string) bool {
	_, isNode := g.Nodes[id]
	_, isEdge := g.Edges[id]
	return isNode || isEdge
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.Nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
	}
	g.Nodes[n.ID] = n
	return nil
}

// RemoveNode removes a node. Connectors are left untouched.
func (g *Graph) RemoveNode(id string) (*Node, error) {
	n, ok := g.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	delete(g.Nodes, id)
	return n, nil
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(e *Edge) error {
	if _, exists := g.Edges[e.ID]; exists {
		return fmt.Errorf("%w: %s", ErrEdgeExists, e.ID)
	}
	g.Edges[e.ID] = e
	return nil
}

// RemoveEdge removes an edge.
func (g *Graph) RemoveEdge(id string) (*Edge, error) {
	e, ok := g.Edges[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	delete(g.Edges, id)
	return e, nil
}

// NodeIDs returns node ids in lexical order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EdgeIDs returns edge ids in lexical order.
func (g *Graph) EdgeIDs() []string {
	ids := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Children returns the nodes whose parent is id, sorted by id.
func (g *Graph) Children(id string) []*Node {
	var out []*Node
	for _, nid := range g.NodeIDs() {
		if n := g.Nodes[nid]; n.ParentID == id {
			out = append(out, n)
		}
	}
	return out
}

// EdgesOf returns the edges with id as source or target, sorted by edge id.
func (g *Graph) EdgesOf(id string) []*Edge {
	var out []*Edge
	for _, eid := range g.EdgeIDs() {
		if e := g.Edges[eid]; e.SourceID == id || e.TargetID == id {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for id, n := range g.Nodes {
		c.Nodes[id] = n.clone()
	}
	for id, e := range g.Edges {
		c.Edges[id] = e.clone()
	}
	return c
}

// Equal reports whether both graphs hold the same elements with the same values.
func (g *Graph) Equal(other *Graph) bool {
	if len(g.Nodes) != len(other.Nodes) || len(g.Edges) != len(other.Edges) {
		return false
	}
	for id, n := range g.Nodes {
		o, ok := other.Nodes[id]
		if !ok || !nodeEqual(n, o) {
			return false
		}
	}
	for id, e := range g.Edges {
		o, ok := other.Edges[id]
		if !ok || !edgeEqual(e, o) {
			return false
		}
	}
	return true
}

func nodeEqual(a, b *Node) bool {
	return a.ID == b.ID && a.Type == b.Type && a.Label == b.Label &&
		a.ParentID == b.ParentID && a.Bounds == b.Bounds && propsEqual(a.Properties, b.Properties)
}

func edgeEqual(a, b *Edge) bool {
	return a.ID == b.ID && a.Type == b.Type && a.SourceID == b.SourceID && a.TargetID == b.TargetID &&
		a.SourceMagnet == b.SourceMagnet && a.TargetMagnet == b.TargetMagnet &&
		propsEqual(a.Properties, b.Properties)
}

func propsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
