package command

import "fmt"

// Deferred is a composite whose children are built at execution time, so a
// later child can read state produced by an earlier one (the node the first
// child added to the graph, for instance).
//
// Suppliers are resolved strictly in insertion order. Each resolved child is
// allowed and executed before the next supplier runs. A supplier error, a nil
// command or an ERROR aborts the remaining chain.
type Deferred[C any] struct {
	suppliers []Supplier[C]
	resolved  []Command[C]
	state     State
}

// NewDeferred returns a deferred composite over suppliers.
func NewDeferred[C any](suppliers ...Supplier[C]) *Deferred[C] {
	d := &Deferred[C]{}
	for _, s := range suppliers {
		d.Defer(s)
	}
	return d
}

// Defer appends a supplier.
func (d *Deferred[C]) Defer(s Supplier[C]) *Deferred[C] {
	if s != nil {
		d.suppliers = append(d.suppliers, s)
		if d.state == StateUninitialized {
			d.state = StateInitialized
		}
	}
	return d
}

// DeferCommand appends an already built command.
func (d *Deferred[C]) DeferCommand(cmd Command[C]) *Deferred[C] {
	return d.Defer(func(C) (Command[C], error) { return cmd, nil })
}

func (d *Deferred[C]) Size() int     { return len(d.suppliers) }
func (d *Deferred[C]) State() State  { return d.state }
func (d *Deferred[C]) IsEmpty() bool { return len(d.suppliers) == 0 }

// Resolved returns the children built and executed so far, in execution order.
func (d *Deferred[C]) Resolved() []Command[C] {
	out := make([]Command[C], len(d.resolved))
	copy(out, d.resolved)
	return out
}

// Allow cannot resolve suppliers without executing earlier children, so it
// only reports an empty chain. Each child is checked during Execute.
func (d *Deferred[C]) Allow(ctx C) Result {
	return OK()
}

func (d *Deferred[C]) Execute(ctx C) Result {
	d.state = StateExecuting
	d.resolved = d.resolved[:0]
	results := make([]Result, 0, len(d.suppliers))
	for i, supply := range d.suppliers {
		cmd, err := supply(ctx)
		if err != nil {
			d.state = StateFailed
			return Merge(append(results, Failedf("deferred command %d: %v", i, err))...)
		}
		if cmd == nil {
			d.state = StateFailed
			return Merge(append(results, Failed(fmt.Sprintf("deferred command %d resolved to nil", i)))...)
		}
		r := cmd.Allow(ctx)
		if !r.IsError() {
			r = Merge(r, cmd.Execute(ctx))
		}
		results = append(results, r)
		if r.IsError() {
			d.state = StateFailed
			return Merge(results...)
		}
		d.resolved = append(d.resolved, cmd)
	}
	d.state = StateCompleted
	return Merge(results...)
}

// Undo reverses the resolved children in the reverse of execution order.
func (d *Deferred[C]) Undo(ctx C) Result {
	return undoReverse(ctx, d.resolved)
}

// Rollback undoes the children applied by a failed Execute.
func (d *Deferred[C]) Rollback(ctx C) Result {
	r := undoReverse(ctx, d.resolved)
	d.resolved = d.resolved[:0]
	return r
}
