package graph

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNodeExists   = errors.New("node already exists")
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeExists   = errors.New("edge already exists")
	ErrEdgeNotFound = errors.New("edge not found")
)

// NodeType represents the semantic type of a node in the diagram graph.
type NodeType string

const (
	NodeDiagram NodeType = "diagram" // root container
	NodeTask    NodeType = "task"
	NodeEvent   NodeType = "event"
	NodeGateway NodeType = "gateway"
	NodeLane    NodeType = "lane"
)

// EdgeType represents the semantic relationship between two nodes.
type EdgeType string

const (
	EdgeSequenceFlow    EdgeType = "sequence_flow"
	EdgeAssociation     EdgeType = "association"
	EdgeMessageFlow     EdgeType = "message_flow"
	EdgeInformationFlow EdgeType = "information_flow"
)

// NoMagnet marks a connection endpoint that is not anchored to a magnet.
const NoMagnet = -1

// Bounds locates a node on the canvas.
type Bounds struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether the point lies inside the bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Center returns the middle point of the bounds.
func (b Bounds) Center() (int, int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Node represents a vertex in the diagram graph.
type Node struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Label      string            `json:"label"`
	ParentID   string            `json:"parent_id,omitempty"`
	Bounds     Bounds            `json:"bounds"`
	Properties map[string]string `json:"properties,omitempty"`
}

// NewNode creates a node with a fresh identifier.
func NewNode(nodeType NodeType, label string, bounds Bounds) *Node {
	return &Node{
		ID:         uuid.NewString(),
		Type:       nodeType,
		Label:      label,
		Bounds:     bounds,
		Properties: make(map[string]string),
	}
}

func (n *Node) clone() *Node {
	c := *n
	if n.Properties != nil {
		c.Properties = make(map[string]string, len(n.Properties))
		for k, v := range n.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}

// Edge represents a directed connector between two nodes. Either end may be
// empty while a connector is being drawn.
type Edge struct {
	ID           string            `json:"id"`
	Type         EdgeType          `json:"type"`
	SourceID     string            `json:"source_id,omitempty"`
	TargetID     string            `json:"target_id,omitempty"`
	SourceMagnet int               `json:"source_magnet"`
	TargetMagnet int               `json:"target_magnet"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// NewEdge creates an unconnected edge with a fresh identifier.
func NewEdge(edgeType EdgeType) *Edge {
	return &Edge{
		ID:           uuid.NewString(),
		Type:         edgeType,
		SourceMagnet: NoMagnet,
		TargetMagnet: NoMagnet,
	}
}

func (e *Edge) clone() *Edge {
	c := *e
	if e.Properties != nil {
		c.Properties = make(map[string]string, len(e.Properties))
		for k, v := range e.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}

// Diagram is a named graph with a root container node.
type Diagram struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RootID    string    `json:"root_id"`
	Graph     *Graph    `json:"graph"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDiagram creates a diagram holding only its root container.
func NewDiagram(name string) *Diagram {
	root := NewNode(NodeDiagram, name, Bounds{})
	g := NewGraph()
	g.Nodes[root.ID] = root
	return &Diagram{
		ID:        uuid.NewString(),
		Name:      name,
		RootID:    root.ID,
		Graph:     g,
		UpdatedAt: time.Now().UTC(),
	}
}
