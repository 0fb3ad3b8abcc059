package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphish is a tiny context where later commands depend on earlier ones.
type graphish struct {
	nodes    map[string]bool
	edges    map[string]string // edge -> target
	resolved []string
}

func newGraphish() *graphish {
	return &graphish{nodes: map[string]bool{}, edges: map[string]string{}}
}

func addNode(id string) Supplier[*graphish] {
	return func(g *graphish) (Command[*graphish], error) {
		g.resolved = append(g.resolved, "addNode")
		return Func[*graphish]{
			Name:      "addNode",
			ExecuteFn: func(g *graphish) Result { g.nodes[id] = true; return OK() },
			UndoFn:    func(g *graphish) Result { delete(g.nodes, id); return OK() },
		}, nil
	}
}

func addConnector(edge string) Supplier[*graphish] {
	return func(g *graphish) (Command[*graphish], error) {
		g.resolved = append(g.resolved, "addConnector")
		return Func[*graphish]{
			Name:      "addConnector",
			ExecuteFn: func(g *graphish) Result { g.edges[edge] = ""; return OK() },
			UndoFn:    func(g *graphish) Result { delete(g.edges, edge); return OK() },
		}, nil
	}
}

func setTargetNode(edge, node string) Supplier[*graphish] {
	return func(g *graphish) (Command[*graphish], error) {
		g.resolved = append(g.resolved, "setTargetNode")
		if !g.nodes[node] {
			return nil, errors.New("target node not in graph yet")
		}
		return Func[*graphish]{
			Name:      "setTargetNode",
			ExecuteFn: func(g *graphish) Result { g.edges[edge] = node; return OK() },
			UndoFn:    func(g *graphish) Result { g.edges[edge] = ""; return OK() },
		}, nil
	}
}

func TestDeferred_ResolvesInInsertionOrder(t *testing.T) {
	g := newGraphish()
	d := NewDeferred(addNode("n1"), addConnector("e1"), setTargetNode("e1", "n1"))

	r := d.Execute(g)
	require.False(t, r.IsError(), r.Message())
	assert.Equal(t, []string{"addNode", "addConnector", "setTargetNode"}, g.resolved)
	assert.Equal(t, "n1", g.edges["e1"])
	assert.Equal(t, StateCompleted, d.State())
	assert.Len(t, d.Resolved(), 3)
}

func TestDeferred_OutOfOrderResolutionFails(t *testing.T) {
	g := newGraphish()
	d := NewDeferred(setTargetNode("e1", "n1"), addNode("n1"), addConnector("e1"))

	r := d.Execute(g)
	assert.True(t, r.IsError())
	assert.Equal(t, StateFailed, d.State())
	// the chain is aborted after the failing supplier
	assert.Equal(t, []string{"setTargetNode"}, g.resolved)
	assert.Empty(t, g.nodes)
}

func TestDeferred_UndoReversesResolvedChildren(t *testing.T) {
	g := newGraphish()
	d := NewDeferred(addNode("n1"), addConnector("e1"), setTargetNode("e1", "n1"))
	require.False(t, d.Execute(g).IsError())

	var order []string
	for _, c := range d.Resolved() {
		order = append(order, c.(Func[*graphish]).Name)
	}
	assert.Equal(t, []string{"addNode", "addConnector", "setTargetNode"}, order)

	require.False(t, d.Undo(g).IsError())
	assert.Empty(t, g.nodes)
	assert.Empty(t, g.edges)
}

func TestDeferred_RollbackAfterPartialFailure(t *testing.T) {
	g := newGraphish()
	failing := func(g *graphish) (Command[*graphish], error) {
		return Func[*graphish]{
			Name:      "boom",
			ExecuteFn: func(*graphish) Result { return Failed("boom") },
		}, nil
	}
	d := NewDeferred(addNode("n1"), addConnector("e1"), failing)

	assert.True(t, d.Execute(g).IsError())
	assert.Len(t, g.nodes, 1)
	assert.Len(t, g.edges, 1)

	assert.False(t, d.Rollback(g).IsError())
	assert.Empty(t, g.nodes)
	assert.Empty(t, g.edges)
}

func TestDeferred_NilSupplierResultFails(t *testing.T) {
	g := newGraphish()
	d := NewDeferred(func(*graphish) (Command[*graphish], error) { return nil, nil })
	assert.True(t, d.Execute(g).IsError())
}

func TestDeferred_AllowDoesNotResolve(t *testing.T) {
	g := newGraphish()
	d := NewDeferred(addNode("n1"))
	assert.False(t, d.Allow(g).IsError())
	assert.Empty(t, g.resolved)
}
