// Package journal records the editing history of a diagram as graph command
// records and rebuilds graphs from it.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
)

// Journal operations. Snapshot rebuilds the state a journal starts from; the
// others mirror the session history.
const (
	OpSnapshot = "snapshot"
	OpExecute  = "execute"
	OpUndo     = "undo"
	OpRedo     = "redo"
)

// ErrBadJournal is returned when a journal cannot be written or replayed
// consistently.
var ErrBadJournal = errors.New("inconsistent journal")

// Store is the journal persistence the sqlite store provides.
type Store interface {
	AppendJournal(ctx context.Context, entry store.JournalEntry) (store.JournalEntry, error)
	ReadJournal(ctx context.Context, diagramID string) ([]store.JournalEntry, error)
}

// Journal appends history changes of diagrams to a Store.
type Journal struct {
	store  Store
	logger *slog.Logger
}

func New(s Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: s, logger: logger}
}

// Begin makes the journal of d start from d as loaded. A snapshot is written
// when the journal is empty, or when replaying it does not rebuild d: edits
// that were journaled but never saved, for instance.
func (j *Journal) Begin(ctx context.Context, d *graph.Diagram) error {
	entries, err := j.store.ReadJournal(ctx, d.ID)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		replayed, err := Replay(entries)
		if err == nil && replayed.Equal(d.Graph) {
			return nil
		}
		j.logger.Info("Journal diverges from loaded diagram, writing snapshot",
			"diagramID", d.ID,
			"entries", len(entries),
			"replayError", err,
		)
	}
	records, err := Snapshot(d.Graph)
	if err != nil {
		return err
	}
	_, err = j.store.AppendJournal(ctx, store.JournalEntry{DiagramID: d.ID, Op: OpSnapshot, Records: records})
	return err
}

// Record appends one history change. Commands that do not wrap graph
// commands are skipped.
func (j *Journal) Record(ctx context.Context, diagramID, op string, entry canvas.Command) error {
	cmds := canvas.Flatten(entry)
	records := make([]graph.Record, 0, len(cmds))
	for _, cmd := range cmds {
		rec, err := graph.Encode(cmd)
		if err != nil {
			return fmt.Errorf("journal %s: %w", op, err)
		}
		records = append(records, rec)
	}
	e, err := j.store.AppendJournal(ctx, store.JournalEntry{DiagramID: diagramID, Op: op, Records: records})
	if err != nil {
		return err
	}
	j.logger.Debug("Journal entry appended", "diagramID", diagramID, "op", op, "seq", e.Seq, "records", len(records))
	return nil
}

// Replay rebuilds the graph of diagramID from its journal.
func (j *Journal) Replay(ctx context.Context, diagramID string) (*graph.Graph, error) {
	entries, err := j.store.ReadJournal(ctx, diagramID)
	if err != nil {
		return nil, err
	}
	return Replay(entries)
}

// Replay applies journal entries to an empty graph. A snapshot entry starts
// over from an empty graph and an empty history. Undo and redo entries revert
// and re-apply the decoded commands of the matching execute entries, so the
// recorded payload of those entries is informational.
func Replay(entries []store.JournalEntry) (*graph.Graph, error) {
	g := graph.NewGraph()
	var history, redo []*command.Composite[*graph.Graph]

	for _, e := range entries {
		if e.Op == OpSnapshot {
			g = graph.NewGraph()
			history, redo = history[:0], redo[:0]
		}
		switch e.Op {
		case OpSnapshot, OpExecute:
			step, err := decode(e)
			if err != nil {
				return nil, err
			}
			if r := step.Execute(g); r.IsError() {
				return nil, fmt.Errorf("%w: entry %d: %s", ErrBadJournal, e.Seq, r.Message())
			}
			if e.Op == OpExecute {
				history = append(history, step)
				redo = redo[:0]
			}
		case OpUndo:
			if len(history) == 0 {
				return nil, fmt.Errorf("%w: entry %d: nothing to undo", ErrBadJournal, e.Seq)
			}
			step := history[len(history)-1]
			history = history[:len(history)-1]
			if r := step.Undo(g); r.IsError() {
				return nil, fmt.Errorf("%w: entry %d: %s", ErrBadJournal, e.Seq, r.Message())
			}
			redo = append(redo, step)
		case OpRedo:
			if len(redo) == 0 {
				return nil, fmt.Errorf("%w: entry %d: nothing to redo", ErrBadJournal, e.Seq)
			}
			step := redo[len(redo)-1]
			redo = redo[:len(redo)-1]
			if r := step.Execute(g); r.IsError() {
				return nil, fmt.Errorf("%w: entry %d: %s", ErrBadJournal, e.Seq, r.Message())
			}
			history = append(history, step)
		default:
			return nil, fmt.Errorf("%w: entry %d: unknown op %q", ErrBadJournal, e.Seq, e.Op)
		}
	}
	return g, nil
}

func decode(e store.JournalEntry) (*command.Composite[*graph.Graph], error) {
	step := command.NewComposite[*graph.Graph](command.Forward)
	for _, rec := range e.Records {
		cmd, err := graph.Decode(rec)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.Seq, err)
		}
		step.Add(cmd)
	}
	return step, nil
}

// Snapshot encodes g as the records rebuilding it from an empty graph:
// containers before their children, then connectors.
func Snapshot(g *graph.Graph) ([]graph.Record, error) {
	var cmds []graph.Command

	nodes := make([]*graph.Node, 0, g.NodeCount())
	for _, id := range g.NodeIDs() {
		nodes = append(nodes, g.Nodes[id])
	}
	depth := func(n *graph.Node) int {
		d := 0
		for p := n.ParentID; p != "" && d <= len(g.Nodes); d++ {
			parent, ok := g.Nodes[p]
			if !ok {
				break
			}
			p = parent.ParentID
		}
		return d
	}
	sort.SliceStable(nodes, func(a, b int) bool { return depth(nodes[a]) < depth(nodes[b]) })
	for _, n := range nodes {
		parentID := n.ParentID
		if _, ok := g.Nodes[parentID]; !ok {
			parentID = ""
		}
		c := *n
		c.ParentID = ""
		cmds = append(cmds, &graph.AddNode{Node: &c, ParentID: parentID})
	}

	for _, id := range g.EdgeIDs() {
		e := g.Edges[id]
		if e.SourceID == "" {
			return nil, fmt.Errorf("%w: connector %s has no source", ErrBadJournal, e.ID)
		}
		edge := graph.Edge{ID: e.ID, Type: e.Type, SourceMagnet: graph.NoMagnet, TargetMagnet: graph.NoMagnet}
		cmds = append(cmds, &graph.AddConnector{Edge: &edge, SourceID: e.SourceID, SourceMagnet: e.SourceMagnet})
		if e.TargetID != "" {
			cmds = append(cmds, &graph.SetConnectionTarget{EdgeID: e.ID, NodeID: e.TargetID, Magnet: e.TargetMagnet})
		}
		keys := make([]string, 0, len(e.Properties))
		for k := range e.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmds = append(cmds, &graph.UpdateProperty{ElementID: e.ID, Key: k, Value: e.Properties[k]})
		}
	}

	records := make([]graph.Record, 0, len(cmds))
	for _, cmd := range cmds {
		rec, err := graph.Encode(cmd)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
