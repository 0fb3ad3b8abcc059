package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/event"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/journal"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
)

// createNodeGesture returns the three commands of a "create connected node"
// gesture starting from source.
func createNodeGesture(h *canvas.Handler, sourceID string) (*graph.Node, []canvas.Command) {
	f := canvas.Factory{}
	n := graph.NewNode(graph.NodeTask, "new", graph.Bounds{X: 20, W: 8, H: 3})
	e := graph.NewEdge(graph.EdgeSequenceFlow)
	return n, []canvas.Command{
		f.AddChildNode(h.RootID(), n),
		f.AddConnector(sourceID, e, 1),
		f.SetTargetNode(e.ID, n.ID, 3),
	}
}

func newCanvas(t *testing.T) (*canvas.Handler, *graph.Node) {
	t.Helper()
	d := graph.NewDiagram("session")
	start := graph.NewNode(graph.NodeEvent, "start", graph.Bounds{W: 3, H: 3})
	start.ParentID = d.RootID
	require.NoError(t, d.Graph.AddNode(start))
	return canvas.NewHandler(d), start
}

func TestScenario_CreateNodeGestureIsOneUndoStep(t *testing.T) {
	h, start := newCanvas(t)
	m := NewManager[*canvas.Handler](Options{})
	nodes, edges := h.Graph().NodeCount(), h.Graph().EdgeCount()
	before := h.Graph().Clone()

	var undone []string
	h.OnChange(func(c canvas.Change) {
		if c.Kind == canvas.Reverted {
			rec, _ := graph.Encode(c.Command)
			undone = append(undone, rec.Type)
		}
	})

	_, cmds := createNodeGesture(h, start.ID)
	m.Start()
	for _, cmd := range cmds {
		require.False(t, m.Execute(h, cmd).IsError())
	}
	m.Complete()
	require.Equal(t, 1, m.Registry().Size())
	assert.Equal(t, nodes+1, h.Graph().NodeCount())
	assert.Equal(t, edges+1, h.Graph().EdgeCount())

	require.False(t, m.Undo(h).IsError())
	assert.Equal(t, []string{graph.RecordSetConnectionTarget, graph.RecordAddConnector, graph.RecordAddNode}, undone)
	assert.Equal(t, nodes, h.Graph().NodeCount())
	assert.Equal(t, edges, h.Graph().EdgeCount())
	assert.True(t, before.Equal(h.Graph()))
}

func TestScenario_RedoCreateNodeGesture(t *testing.T) {
	h, start := newCanvas(t)
	m := NewManager[*canvas.Handler](Options{})
	before := h.Graph().Clone()

	_, cmds := createNodeGesture(h, start.ID)
	m.Start()
	for _, cmd := range cmds {
		require.False(t, m.Execute(h, cmd).IsError())
	}
	m.Complete()
	after := h.Graph().Clone()

	for i := 0; i < 2; i++ {
		require.False(t, m.Undo(h).IsError())
		assert.True(t, before.Equal(h.Graph()))

		r := m.Redo(h)
		require.False(t, r.IsError(), r.Message())
		assert.True(t, after.Equal(h.Graph()))
		assert.Equal(t, 1, m.Registry().Size())
		assert.Equal(t, 0, m.RedoRegistry().Size())
	}
}

func TestScenario_CancelledGestureLeavesGraphUnchanged(t *testing.T) {
	h, start := newCanvas(t)
	m := NewManager[*canvas.Handler](Options{})
	before := h.Graph().Clone()

	_, cmds := createNodeGesture(h, start.ID)
	m.Start()
	for _, cmd := range cmds {
		require.False(t, m.Execute(h, cmd).IsError())
	}
	m.Rollback()
	m.Complete()

	assert.Equal(t, 0, m.Registry().Size())
	assert.Equal(t, before.NodeCount(), h.Graph().NodeCount())
	assert.Equal(t, before.EdgeCount(), h.Graph().EdgeCount())
	assert.True(t, before.Equal(h.Graph()))
}

func TestScenario_FailingGraphCommandRollsBackGesture(t *testing.T) {
	h, start := newCanvas(t)
	m := NewManager[*canvas.Handler](Options{})
	before := h.Graph().Clone()
	f := canvas.Factory{}

	n, cmds := createNodeGesture(h, start.ID)
	m.Start()
	require.False(t, m.Execute(h, cmds[0]).IsError())
	assert.True(t, m.Execute(h, f.AddConnector("missing", graph.NewEdge(graph.EdgeAssociation), 0)).IsError())
	m.Complete()

	assert.False(t, h.Element(n.ID))
	assert.True(t, before.Equal(h.Graph()))
	assert.Equal(t, 0, m.Registry().Size())
}

func newEditor(t *testing.T) (*EditorSession, *store.Store, *graph.Node) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "editor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	d := graph.NewDiagram("editor")
	start := graph.NewNode(graph.NodeEvent, "start", graph.Bounds{W: 3, H: 3})
	start.ParentID = d.RootID
	require.NoError(t, d.Graph.AddNode(start))

	ed := NewEditorSession(d, EditorConfig{Diagrams: s, Journal: journal.New(s, nil)})
	require.NoError(t, ed.Init(context.Background()))
	t.Cleanup(ed.Dispose)
	return ed, s, start
}

func TestEditorSession_MouseGestureThroughBuses(t *testing.T) {
	ed, _, start := newEditor(t)
	f := canvas.Factory{}
	var depths []event.History
	ed.History().Subscribe(func(h event.History) { depths = append(depths, h) })

	ed.Mouse().Publish(event.Mouse{Action: event.MouseDown, Button: event.ButtonLeft, X: 1, Y: 1})
	require.True(t, ed.Commands().HasOpenRequest())
	for x := 2; x <= 5; x++ {
		require.False(t, ed.Execute(f.UpdatePosition(start.ID, x, 0)).IsError())
	}
	ed.Mouse().Publish(event.Mouse{Action: event.MouseUp, X: 5})

	require.Equal(t, 1, ed.Commands().Registry().Size(), "a drag is one undo step")
	n, _ := ed.Handler().Graph().Node(start.ID)
	assert.Equal(t, 5, n.Bounds.X)

	require.False(t, ed.Undo().IsError())
	assert.Equal(t, 0, n.Bounds.X)
	assert.Equal(t, []event.History{{UndoDepth: 1}, {RedoDepth: 1}}, depths)

	ed.Mouse().Publish(event.Mouse{Action: event.MouseDown, Button: event.ButtonLeft})
	require.False(t, ed.Execute(f.UpdatePosition(start.ID, 9, 9)).IsError())
	ed.Keys().Publish(event.Key{Name: event.KeyEscape})
	assert.False(t, ed.Commands().HasOpenRequest())
	assert.Equal(t, 0, n.Bounds.X)
	assert.Equal(t, 1, ed.Commands().RedoRegistry().Size(), "a cancelled gesture registers nothing")
}

func TestEditorSession_JournalReplaysHistory(t *testing.T) {
	ed, s, start := newEditor(t)
	ctx := context.Background()
	f := canvas.Factory{}

	_, cmds := createNodeGesture(ed.Handler(), start.ID)
	ed.Commands().Start()
	for _, cmd := range cmds {
		require.False(t, ed.Execute(cmd).IsError())
	}
	ed.Commands().Complete()
	require.False(t, ed.Execute(f.UpdateProperty(start.ID, graph.LabelProperty, "begin")).IsError())
	require.False(t, ed.Undo().IsError())
	require.False(t, ed.Redo().IsError())
	require.False(t, ed.Undo().IsError())
	require.False(t, ed.Undo().IsError())
	require.False(t, ed.Redo().IsError(), "the three-step gesture redoes")

	entries, err := s.ReadJournal(ctx, ed.Diagram().ID)
	require.NoError(t, err)
	ops := make([]string, len(entries))
	for i, e := range entries {
		ops[i] = e.Op
	}
	assert.Equal(t, []string{"snapshot", "execute", "execute", "undo", "redo", "undo", "undo", "redo"}, ops)

	replayed, err := journal.New(s, nil).Replay(ctx, ed.Diagram().ID)
	require.NoError(t, err)
	assert.True(t, replayed.Equal(ed.Handler().Graph()))
}

func TestEditorSession_UnsavedEditsDoNotLeakIntoReplay(t *testing.T) {
	ed, s, _ := newEditor(t)
	ctx := context.Background()
	f := canvas.Factory{}

	require.NoError(t, ed.Save(ctx))
	unsaved := graph.NewNode(graph.NodeTask, "unsaved", graph.Bounds{X: 10, W: 4, H: 3})
	require.False(t, ed.Execute(f.AddChildNode(ed.Handler().RootID(), unsaved)).IsError())
	ed.Dispose()

	d, err := s.LoadDiagram(ctx, ed.Diagram().ID)
	require.NoError(t, err)
	next := NewEditorSession(d, EditorConfig{Diagrams: s, Journal: journal.New(s, nil)})
	require.NoError(t, next.Init(ctx))
	defer next.Dispose()

	replayed, err := journal.New(s, nil).Replay(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, replayed.Equal(next.Handler().Graph()))
	assert.False(t, next.Handler().Element(unsaved.ID))
}

func TestEditorSession_SaveAndLoad(t *testing.T) {
	ed, _, start := newEditor(t)
	ctx := context.Background()
	f := canvas.Factory{}

	require.False(t, ed.Execute(f.UpdatePosition(start.ID, 7, 7)).IsError())
	require.NoError(t, ed.Save(ctx))
	saved := ed.Diagram()

	require.False(t, ed.Execute(f.UpdatePosition(start.ID, 1, 1)).IsError())
	require.NoError(t, ed.Load(ctx, saved.ID))

	assert.Equal(t, 0, ed.Commands().Registry().Size(), "loading drops history")
	n, ok := ed.Handler().Graph().Node(start.ID)
	require.True(t, ok)
	assert.Equal(t, 7, n.Bounds.X)

	assert.ErrorIs(t, ed.Load(ctx, "missing"), store.ErrDiagramNotFound)
}

func TestEditorSession_WithoutDiagramService(t *testing.T) {
	ed := NewEditorSession(graph.NewDiagram("bare"), EditorConfig{})
	require.NoError(t, ed.Init(context.Background()))
	defer ed.Dispose()

	assert.ErrorIs(t, ed.Save(context.Background()), ErrNoDiagramService)
	assert.ErrorIs(t, ed.Load(context.Background(), "x"), ErrNoDiagramService)
}
