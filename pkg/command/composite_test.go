package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposite_ForwardExecuteReverseUndo(t *testing.T) {
	j := &journal{}
	c := NewComposite[*journal](Forward, newStep("c1", 1), newStep("c2", 10), newStep("c3", 100))

	require.False(t, c.Execute(j).IsError())
	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, 111, j.value)
	assert.Equal(t, names("execute", "c1", "c2", "c3"), only(j.ops, "execute:"))

	j.ops = nil
	require.False(t, c.Undo(j).IsError())
	assert.Equal(t, names("undo", "c3", "c2", "c1"), j.ops)
	assert.Equal(t, 0, j.value)
}

func TestComposite_ReverseDirectionUndoesInReverseOfExecution(t *testing.T) {
	j := &journal{}
	c := NewComposite[*journal](Reverse, newStep("c1", 1), newStep("c2", 2), newStep("c3", 3))

	require.False(t, c.Execute(j).IsError())
	assert.Equal(t, names("execute", "c3", "c2", "c1"), j.ops)

	j.ops = nil
	c.Undo(j)
	assert.Equal(t, names("undo", "c1", "c2", "c3"), j.ops)
}

func TestComposite_UndoWithoutExecuteUsesDeclaredOrder(t *testing.T) {
	// History entries are assembled from commands executed one by one.
	j := &journal{}
	c := NewComposite[*journal](Forward, newStep("c1", 1), newStep("c2", 2), newStep("c3", 3))

	c.Undo(j)
	assert.Equal(t, names("undo", "c3", "c2", "c1"), j.ops)
}

func TestComposite_StopsAtFirstExecuteError(t *testing.T) {
	j := &journal{}
	bad := newStep("c2", 2)
	bad.failExecute = true
	c := NewComposite[*journal](Forward, newStep("c1", 1), bad, newStep("c3", 3))

	r := c.Execute(j)
	assert.True(t, r.IsError())
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, names("execute", "c1", "c2"), j.ops)
	// no automatic rollback
	assert.Equal(t, 1, j.value)

	j.ops = nil
	assert.False(t, c.Rollback(j).IsError())
	assert.Equal(t, names("undo", "c1"), j.ops)
	assert.Equal(t, 0, j.value)
}

func TestComposite_UndoStopsAtFirstError(t *testing.T) {
	j := &journal{}
	bad := newStep("c2", 2)
	bad.failUndo = true
	c := NewComposite[*journal](Forward, newStep("c1", 1), bad, newStep("c3", 3))
	c.Execute(j)

	j.ops = nil
	r := c.Undo(j)
	assert.True(t, r.IsError())
	assert.Equal(t, names("undo", "c3", "c2"), j.ops)
}

func TestComposite_AllowStopsAtFirstError(t *testing.T) {
	j := &journal{}
	bad := newStep("c2", 2)
	bad.failAllow = true
	c := NewComposite[*journal](Forward, newStep("c1", 1), bad, newStep("c3", 3))

	r := c.Allow(j)
	assert.True(t, r.IsError())
	assert.Equal(t, names("allow", "c1", "c2"), j.ops)
	assert.Equal(t, 0, j.value)
}

func TestComposite_StateTransitions(t *testing.T) {
	c := NewComposite[*journal](Forward)
	assert.Equal(t, StateUninitialized, c.State())
	assert.True(t, c.IsEmpty())

	c.Add(newStep("c1", 1)).Add(nil)
	assert.Equal(t, StateInitialized, c.State())
	assert.Equal(t, 1, c.Size())
}

func TestResult_MergeKeepsWorstSeverity(t *testing.T) {
	r := Merge(OK(), Warn("careful"), Failed("broken"), OK())
	assert.Equal(t, SeverityError, r.Severity)
	assert.Len(t, r.Violations, 2)
	assert.Equal(t, "careful; broken", r.Message())
	assert.ErrorIs(t, r.Err(), ErrCommandFailed)
	assert.NoError(t, Warn("fine").Err())
}
