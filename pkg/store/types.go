package store

import (
	"context"
	"errors"
	"time"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// ErrDiagramNotFound is returned when no diagram is stored under an id.
var ErrDiagramNotFound = errors.New("diagram not found")

// DiagramSummary is the listing view of a stored diagram.
type DiagramSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiagramService persists diagrams. The editing core never writes storage
// itself; sessions hand their diagram to a DiagramService on save.
type DiagramService interface {
	// SaveDiagram inserts or replaces the diagram.
	SaveDiagram(ctx context.Context, d *graph.Diagram) error

	// LoadDiagram returns ErrDiagramNotFound for an unknown id.
	LoadDiagram(ctx context.Context, id string) (*graph.Diagram, error)

	// ListDiagrams returns summaries ordered by id.
	ListDiagrams(ctx context.Context) ([]DiagramSummary, error)

	// DeleteDiagram returns ErrDiagramNotFound for an unknown id.
	DeleteDiagram(ctx context.Context, id string) error
}

// JournalEntry is one change of a diagram's editing history: a committed,
// undone or redone history entry as its graph command records.
type JournalEntry struct {
	Seq       int64          `json:"seq"`
	DiagramID string         `json:"diagram_id"`
	Op        string         `json:"op"`
	Records   []graph.Record `json:"records"`
	CreatedAt time.Time      `json:"created_at"`
}

// Summarize builds the listing view of d.
func Summarize(d *graph.Diagram) DiagramSummary {
	return DiagramSummary{
		ID:        d.ID,
		Name:      d.Name,
		Nodes:     d.Graph.NodeCount(),
		Edges:     d.Graph.EdgeCount(),
		UpdatedAt: d.UpdatedAt,
	}
}
