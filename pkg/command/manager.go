package command

// Listener observes every call going through a Manager.
type Listener[C any] interface {
	OnAllow(ctx C, cmd Command[C], result Result)
	OnExecute(ctx C, cmd Command[C], result Result)
	OnUndo(ctx C, cmd Command[C], result Result)
}

// ListenerFuncs adapts optional functions to Listener.
type ListenerFuncs[C any] struct {
	AllowFn   func(ctx C, cmd Command[C], result Result)
	ExecuteFn func(ctx C, cmd Command[C], result Result)
	UndoFn    func(ctx C, cmd Command[C], result Result)
}

func (l ListenerFuncs[C]) OnAllow(ctx C, cmd Command[C], result Result) {
	if l.AllowFn != nil {
		l.AllowFn(ctx, cmd, result)
	}
}

func (l ListenerFuncs[C]) OnExecute(ctx C, cmd Command[C], result Result) {
	if l.ExecuteFn != nil {
		l.ExecuteFn(ctx, cmd, result)
	}
}

func (l ListenerFuncs[C]) OnUndo(ctx C, cmd Command[C], result Result) {
	if l.UndoFn != nil {
		l.UndoFn(ctx, cmd, result)
	}
}

// Manager applies commands to a context. It keeps no history; that is the
// session's job. Panics raised by commands are not recovered here.
type Manager[C any] struct {
	listeners []Listener[C]
}

// NewManager creates a Manager notifying the given listeners.
func NewManager[C any](listeners ...Listener[C]) *Manager[C] {
	return &Manager[C]{listeners: listeners}
}

// AddListener registers another listener.
func (m *Manager[C]) AddListener(l Listener[C]) {
	m.listeners = append(m.listeners, l)
}

// Allow validates cmd against ctx without mutating it.
func (m *Manager[C]) Allow(ctx C, cmd Command[C]) Result {
	r := cmd.Allow(ctx)
	for _, l := range m.listeners {
		l.OnAllow(ctx, cmd, r)
	}
	return r
}

// Execute validates and then applies cmd. A command whose Allow reports an
// ERROR is not executed and the Allow result is returned.
func (m *Manager[C]) Execute(ctx C, cmd Command[C]) Result {
	r := cmd.Allow(ctx)
	if !r.IsError() {
		r = Merge(r, cmd.Execute(ctx))
	}
	for _, l := range m.listeners {
		l.OnExecute(ctx, cmd, r)
	}
	return r
}

// Reapply executes cmd again after it was undone. Unlike Execute it does not
// ask cmd.Allow first: the children of a composite history entry depend on
// each other, so each one is validated by its own Execute as it runs.
func (m *Manager[C]) Reapply(ctx C, cmd Command[C]) Result {
	r := cmd.Execute(ctx)
	for _, l := range m.listeners {
		l.OnExecute(ctx, cmd, r)
	}
	return r
}

// Undo reverses a previously executed cmd.
func (m *Manager[C]) Undo(ctx C, cmd Command[C]) Result {
	r := cmd.Undo(ctx)
	for _, l := range m.listeners {
		l.OnUndo(ctx, cmd, r)
	}
	return r
}
