// Package command implements reversible units of work and the primitives that
// execute, aggregate and record them.
//
// Commands are generic over the context they mutate. A canvas session uses a
// canvas handler as context; tests typically use a small in-memory value.
package command

// Command is a reversible unit of work against a context of type C.
//
// Allow is a dry run and must not mutate the context. Execute applies the
// effect; when it reports an ERROR the context must be left as if Execute had
// not been called, or the command must implement Rollbacker. Undo reverses a
// previous successful Execute.
type Command[C any] interface {
	Allow(ctx C) Result
	Execute(ctx C) Result
	Undo(ctx C) Result
}

// Rollbacker is implemented by commands that can partially fail, such as
// composites. Rollback undoes whatever part of a failed Execute was applied.
type Rollbacker[C any] interface {
	Rollback(ctx C) Result
}

// Supplier lazily builds a command at execution time.
type Supplier[C any] func(ctx C) (Command[C], error)

// Func builds a Command from plain functions. A nil AllowFn allows everything
// and a nil UndoFn makes the command irreversible (Undo fails).
type Func[C any] struct {
	Name      string
	AllowFn   func(ctx C) Result
	ExecuteFn func(ctx C) Result
	UndoFn    func(ctx C) Result
}

func (f Func[C]) Allow(ctx C) Result {
	if f.AllowFn == nil {
		return OK()
	}
	return f.AllowFn(ctx)
}

func (f Func[C]) Execute(ctx C) Result {
	if f.ExecuteFn == nil {
		return OK()
	}
	return f.ExecuteFn(ctx)
}

func (f Func[C]) Undo(ctx C) Result {
	if f.UndoFn == nil {
		return Failedf("command %q cannot be undone", f.Name)
	}
	return f.UndoFn(ctx)
}

func (f Func[C]) String() string {
	return f.Name
}
