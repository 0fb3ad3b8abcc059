package command

import "fmt"

// Direction selects the order in which a composite executes its children.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// State tracks a composite through its execution.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateExecuting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Composite aggregates an ordered list of commands into one unit.
//
// Undo always walks the children in the reverse of the order in which they
// were executed, whatever the declared Direction. Do not change this pairing:
// session history relies on it.
type Composite[C any] struct {
	commands  []Command[C]
	direction Direction
	state     State

	// executed holds the children applied by the last Execute, in execution
	// order. It is nil when the composite was assembled from commands that
	// were executed elsewhere (session history entries).
	executed []Command[C]
}

// NewComposite returns a composite over cmds.
func NewComposite[C any](direction Direction, cmds ...Command[C]) *Composite[C] {
	c := &Composite[C]{direction: direction}
	for _, cmd := range cmds {
		c.Add(cmd)
	}
	return c
}

// Add appends a child. Nil commands are ignored.
func (c *Composite[C]) Add(cmd Command[C]) *Composite[C] {
	if cmd != nil {
		c.commands = append(c.commands, cmd)
		if c.state == StateUninitialized {
			c.state = StateInitialized
		}
	}
	return c
}

// Commands returns the children in insertion order.
func (c *Composite[C]) Commands() []Command[C] {
	out := make([]Command[C], len(c.commands))
	copy(out, c.commands)
	return out
}

func (c *Composite[C]) Size() int            { return len(c.commands) }
func (c *Composite[C]) IsEmpty() bool        { return len(c.commands) == 0 }
func (c *Composite[C]) Direction() Direction { return c.direction }
func (c *Composite[C]) State() State         { return c.state }

// Allow checks every child in execution order and stops at the first ERROR.
func (c *Composite[C]) Allow(ctx C) Result {
	results := make([]Result, 0, len(c.commands))
	for _, cmd := range c.order() {
		r := cmd.Allow(ctx)
		results = append(results, r)
		if r.IsError() {
			break
		}
	}
	return Merge(results...)
}

// Execute runs the children in execution order. On the first ERROR it stops
// and reports it; children already applied stay applied until Rollback.
func (c *Composite[C]) Execute(ctx C) Result {
	c.state = StateExecuting
	c.executed = make([]Command[C], 0, len(c.commands))
	results := make([]Result, 0, len(c.commands))
	for _, cmd := range c.order() {
		r := cmd.Execute(ctx)
		results = append(results, r)
		if r.IsError() {
			c.state = StateFailed
			return Merge(results...)
		}
		c.executed = append(c.executed, cmd)
	}
	c.state = StateCompleted
	return Merge(results...)
}

// Undo reverses the children in the reverse of execution order.
func (c *Composite[C]) Undo(ctx C) Result {
	executed := c.executed
	if executed == nil {
		executed = c.order()
	}
	return undoReverse(ctx, executed)
}

// Rollback undoes the children applied by a failed Execute.
func (c *Composite[C]) Rollback(ctx C) Result {
	r := undoReverse(ctx, c.executed)
	c.executed = c.executed[:0]
	return r
}

func (c *Composite[C]) order() []Command[C] {
	if c.direction == Forward {
		return c.commands
	}
	out := make([]Command[C], len(c.commands))
	for i, cmd := range c.commands {
		out[len(c.commands)-1-i] = cmd
	}
	return out
}

func undoReverse[C any](ctx C, executed []Command[C]) Result {
	results := make([]Result, 0, len(executed))
	for i := len(executed) - 1; i >= 0; i-- {
		r := executed[i].Undo(ctx)
		results = append(results, r)
		if r.IsError() {
			break
		}
	}
	return Merge(results...)
}
