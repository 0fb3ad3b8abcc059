// Package session groups the commands of one user gesture into a single undo
// step and keeps the undo/redo history of an editing session.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/event"
)

// ErrCommandFault wraps a panic recovered while running a command.
var ErrCommandFault = errors.New("command fault")

// HistoryOp identifies a change of the session history.
type HistoryOp int

const (
	OpExecute HistoryOp = iota
	OpUndo
	OpRedo
)

func (op HistoryOp) String() string {
	switch op {
	case OpExecute:
		return "execute"
	case OpUndo:
		return "undo"
	case OpRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// HistoryChange is published whenever an entry is committed, undone or redone.
type HistoryChange[C any] struct {
	Op    HistoryOp
	Entry command.Command[C]
}

// ErrorHandler receives runtime faults recovered from commands.
type ErrorHandler func(err error)

// Options configures a Manager. The zero value is usable.
type Options struct {
	Logger       *slog.Logger
	ErrorHandler ErrorHandler
}

type request[C any] struct {
	ctx      C
	commands []command.Command[C]
	rollback bool
}

// Manager is the session command manager. Between Start and Complete every
// successful command is buffered; Complete commits the buffer as one history
// entry, or undoes it when the request was marked for rollback. Commands run
// outside a request become history entries of their own.
//
// Manager is not safe for concurrent use.
type Manager[C any] struct {
	commands *command.Manager[C]
	history  *command.Registry[C]
	redo     *command.Registry[C]
	changes  *event.Bus[HistoryChange[C]]
	req      *request[C]

	logger  *slog.Logger
	onError ErrorHandler
}

// NewManager creates a session command manager with empty history.
func NewManager[C any](opts Options) *Manager[C] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager[C]{
		commands: command.NewManager[C](),
		history:  command.NewRegistry[C](),
		redo:     command.NewRegistry[C](),
		changes:  event.NewBus[HistoryChange[C]](),
		logger:   logger,
		onError:  opts.ErrorHandler,
	}
}

// CommandManager returns the underlying execute/undo primitive, e.g. to add
// listeners.
func (m *Manager[C]) CommandManager() *command.Manager[C] { return m.commands }

// Registry returns the undo history.
func (m *Manager[C]) Registry() *command.Registry[C] { return m.history }

// RedoRegistry returns the entries undone since the last commit.
func (m *Manager[C]) RedoRegistry() *command.Registry[C] { return m.redo }

// OnRegister subscribes fn to history changes.
func (m *Manager[C]) OnRegister(fn func(HistoryChange[C])) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}

// HasOpenRequest reports whether a request is buffering commands.
func (m *Manager[C]) HasOpenRequest() bool { return m.req != nil }

// Buffered returns the number of commands buffered by the open request.
func (m *Manager[C]) Buffered() int {
	if m.req == nil {
		return 0
	}
	return len(m.req.commands)
}

// Start opens a request. An already open request is discarded without
// undoing or registering its commands.
func (m *Manager[C]) Start() {
	if m.req != nil {
		StunnerRequestsForceCleared.Inc()
		m.logger.Warn("Request already open, discarding it",
			"buffered", len(m.req.commands),
			"markedForRollback", m.req.rollback,
		)
	}
	m.req = &request[C]{}
	StunnerRequestsStarted.Inc()
}

// Allow validates cmd without mutating ctx.
func (m *Manager[C]) Allow(ctx C, cmd command.Command[C]) command.Result {
	return m.guard("allow", func() command.Result {
		return m.commands.Allow(ctx, cmd)
	})
}

// Execute runs cmd. On success the command is buffered by the open request,
// or registered as a history entry when no request is open. On ERROR the open
// request is marked for rollback and a partially applied composite is rolled
// back right away.
func (m *Manager[C]) Execute(ctx C, cmd command.Command[C]) command.Result {
	result := m.guard("execute", func() command.Result {
		return m.commands.Execute(ctx, cmd)
	})
	StunnerCommands.WithLabelValues("execute", result.Severity.String()).Inc()

	if result.IsError() {
		m.logger.Warn("Command failed", "error", result.Message(), "inRequest", m.req != nil)
		if m.req != nil {
			m.req.rollback = true
		}
		m.rollbackPartial(ctx, cmd)
		return result
	}

	if m.req != nil {
		m.req.ctx = ctx
		m.req.commands = append(m.req.commands, cmd)
		return result
	}
	m.register(command.NewComposite(command.Forward, cmd))
	return result
}

func (m *Manager[C]) rollbackPartial(ctx C, cmd command.Command[C]) {
	rb, ok := cmd.(command.Rollbacker[C])
	if !ok {
		return
	}
	r := m.guard("rollback", func() command.Result {
		return rb.Rollback(ctx)
	})
	if r.IsError() {
		m.logger.Error("Failed to roll back partially applied command", "error", r.Message())
	}
}

// Rollback marks the open request so that Complete undoes its commands. It
// does not undo anything itself.
func (m *Manager[C]) Rollback() {
	if m.req == nil {
		m.logger.Warn("Rollback called without an open request")
		return
	}
	m.req.rollback = true
}

// MarkedForRollback reports whether the open request will be undone by
// Complete.
func (m *Manager[C]) MarkedForRollback() bool { return m.req != nil && m.req.rollback }

// Complete closes the open request. A request marked for rollback has its
// buffered commands undone in reverse order and leaves no history entry;
// otherwise the buffered commands are registered as one entry. The buffer is
// cleared in every case.
func (m *Manager[C]) Complete() command.Result {
	req := m.req
	if req == nil {
		m.logger.Warn("Complete called without an open request")
		return command.Warn("complete: no open request")
	}
	m.req = nil

	switch {
	case req.rollback:
		StunnerRequestsCompleted.WithLabelValues(outcomeRolledBack).Inc()
		if len(req.commands) == 0 {
			return command.OK()
		}
		buffered := command.NewComposite(command.Forward, req.commands...)
		r := m.guard("undo", func() command.Result {
			return m.commands.Undo(req.ctx, buffered)
		})
		StunnerCommands.WithLabelValues("undo", r.Severity.String()).Inc()
		if r.IsError() {
			m.logger.Error("Failed to roll back request", "error", r.Message(), "buffered", len(req.commands))
		}
		return r
	case len(req.commands) == 0:
		StunnerRequestsCompleted.WithLabelValues(outcomeEmpty).Inc()
		return command.OK()
	default:
		StunnerRequestsCompleted.WithLabelValues(outcomeCommitted).Inc()
		m.register(command.NewComposite(command.Forward, req.commands...))
		return command.OK()
	}
}

// Undo reverts the last history entry and moves it to the redo stack. It is
// refused while a request is open.
func (m *Manager[C]) Undo(ctx C) command.Result {
	if m.req != nil {
		m.logger.Warn("Undo called while a request is open")
		return command.Warn("undo: a request is in progress")
	}
	entry := m.history.Peek()
	if entry == nil {
		return command.Warn("undo: nothing to undo")
	}
	r := m.guard("undo", func() command.Result {
		return m.commands.Undo(ctx, entry)
	})
	StunnerCommands.WithLabelValues("undo", r.Severity.String()).Inc()
	if r.IsError() {
		m.logger.Error("Undo failed", "error", r.Message())
		return r
	}
	m.history.Pop()
	m.redo.Register(entry)
	m.changes.Publish(HistoryChange[C]{Op: OpUndo, Entry: entry})
	m.updateDepth()
	return r
}

// Redo re-executes the last undone entry and puts it back into history. A
// failed redo rolls back the children it applied and leaves the entry on the
// redo stack.
func (m *Manager[C]) Redo(ctx C) command.Result {
	if m.req != nil {
		m.logger.Warn("Redo called while a request is open")
		return command.Warn("redo: a request is in progress")
	}
	entry := m.redo.Peek()
	if entry == nil {
		return command.Warn("redo: nothing to redo")
	}
	r := m.guard("redo", func() command.Result {
		return m.commands.Reapply(ctx, entry)
	})
	StunnerCommands.WithLabelValues("redo", r.Severity.String()).Inc()
	if r.IsError() {
		m.logger.Error("Redo failed", "error", r.Message())
		m.rollbackPartial(ctx, entry)
		return r
	}
	m.redo.Pop()
	m.history.Register(entry)
	m.changes.Publish(HistoryChange[C]{Op: OpRedo, Entry: entry})
	m.updateDepth()
	return r
}

// Clear drops the open request and both history stacks.
func (m *Manager[C]) Clear() {
	m.req = nil
	m.history.Clear()
	m.redo.Clear()
	m.updateDepth()
}

func (m *Manager[C]) register(entry command.Command[C]) {
	m.history.Register(entry)
	m.redo.Clear()
	m.changes.Publish(HistoryChange[C]{Op: OpExecute, Entry: entry})
	m.updateDepth()
}

func (m *Manager[C]) updateDepth() {
	StunnerHistoryDepth.WithLabelValues("undo").Set(float64(m.history.Size()))
	StunnerHistoryDepth.WithLabelValues("redo").Set(float64(m.redo.Size()))
}

// guard turns a panic in fn into a failed result, reports it to the error
// handler and marks the open request for rollback.
func (m *Manager[C]) guard(op string, fn func() command.Result) (result command.Result) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		err := fmt.Errorf("%w: %s: %v", ErrCommandFault, op, rec)
		StunnerCommandFaults.WithLabelValues(op).Inc()
		m.logger.Error("Recovered from command fault", "operation", op, "error", err)
		if m.req != nil {
			m.req.rollback = true
		}
		if m.onError != nil {
			m.onError(err)
		}
		result = command.FromError(err)
	}()
	return fn()
}
