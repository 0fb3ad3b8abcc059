// Package proxy implements drag-to-create gestures. A proxy shows a
// provisional shape, creates the element inside an open request while the
// user drags, and either commits the request as one undo step or rolls it
// back.
package proxy

import (
	"errors"
	"log/slog"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/event"
)

// ErrProxyActive is returned by Start while a gesture is in progress.
var ErrProxyActive = errors.New("proxy gesture already in progress")

// Commands is the session command manager as seen by a proxy.
type Commands interface {
	Start()
	Execute(h *canvas.Handler, cmd canvas.Command) command.Result
	Rollback()
	MarkedForRollback() bool
	Complete() command.Result
}

// ShapeView renders the provisional shape.
type ShapeView interface {
	Show(x, y int)
	MoveTo(x, y int)
	Hide()
}

// NopView is a ShapeView for callers without a rendering surface.
type NopView struct{}

func (NopView) Show(int, int)   {}
func (NopView) MoveTo(int, int) {}
func (NopView) Hide()           {}

// Builder supplies the commands of a concrete proxy.
type Builder interface {
	// Build returns the command creating the element at x, y and the id of
	// the element it creates.
	Build(h *canvas.Handler, x, y int) (canvas.Command, string)
	// MoveCommand returns the command moving the created element, or nil
	// when the element has no position of its own.
	MoveCommand(elementID string, x, y int) canvas.Command
}

// Env is the editor a proxy works against. View, Selection and Logger are
// optional.
type Env struct {
	Handler   *canvas.Handler
	Commands  Commands
	View      ShapeView
	Selection *event.Bus[event.Selection]
	Logger    *slog.Logger
}

// State of a proxy gesture.
type State int

const (
	Idle State = iota
	Active
	Accepted
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Accepted:
		return "accepted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ElementProxy drives one drag-to-create gesture at a time.
type ElementProxy struct {
	handler   *canvas.Handler
	commands  Commands
	view      ShapeView
	builder   Builder
	selection *event.Bus[event.Selection]
	logger    *slog.Logger

	state     State
	x, y      int
	elementID string
}

// NewElementProxy returns an idle proxy creating elements with builder.
func NewElementProxy(env Env, builder Builder) *ElementProxy {
	view := env.View
	if view == nil {
		view = NopView{}
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ElementProxy{
		handler:   env.Handler,
		commands:  env.Commands,
		view:      view,
		builder:   builder,
		selection: env.Selection,
		logger:    logger,
	}
}

func (p *ElementProxy) State() State { return p.state }

// ElementID returns the id of the element created by the current or last
// gesture, or "" before creation.
func (p *ElementProxy) ElementID() string { return p.elementID }

// Start opens a request and shows the provisional shape at x, y.
func (p *ElementProxy) Start(x, y int) error {
	if p.state == Active {
		return ErrProxyActive
	}
	p.commands.Start()
	p.state = Active
	p.x, p.y = x, y
	p.elementID = ""
	p.view.Show(x, y)
	return nil
}

// Create executes the creation commands at the current position. A failed
// creation cancels the gesture.
func (p *ElementProxy) Create() command.Result {
	if p.state != Active {
		return command.Warn("proxy: no gesture in progress")
	}
	if p.elementID != "" {
		return command.Warn("proxy: element already created")
	}
	cmd, id := p.builder.Build(p.handler, p.x, p.y)
	r := p.commands.Execute(p.handler, cmd)
	if r.IsError() {
		p.logger.Debug("Proxy creation failed", "error", r.Message())
		p.Destroy()
		return r
	}
	p.elementID = id
	return r
}

// Move drags the provisional shape, and the created element with it.
func (p *ElementProxy) Move(x, y int) command.Result {
	if p.state != Active {
		return command.Warn("proxy: no gesture in progress")
	}
	p.x, p.y = x, y
	p.view.MoveTo(x, y)
	if p.elementID == "" {
		return command.OK()
	}
	cmd := p.builder.MoveCommand(p.elementID, x, y)
	if cmd == nil {
		return command.OK()
	}
	return p.commands.Execute(p.handler, cmd)
}

// Accept completes the request and selects the created element. A request
// marked for rollback, by a failed move for instance, is undone instead: the
// gesture ends Cancelled and nothing is selected.
func (p *ElementProxy) Accept() command.Result {
	if p.state != Active {
		return command.Warn("proxy: no gesture in progress")
	}
	rolledBack := p.commands.MarkedForRollback()
	r := p.commands.Complete()
	p.view.Hide()
	if rolledBack {
		p.logger.Debug("Proxy gesture rolled back on accept", "elementID", p.elementID)
		p.state = Cancelled
		p.elementID = ""
		return command.Merge(r, command.Warn("proxy: gesture was rolled back"))
	}
	p.state = Accepted
	if p.elementID != "" && !r.IsError() && p.selection != nil {
		p.selection.Publish(event.Selection{ElementIDs: []string{p.elementID}})
	}
	return r
}

// Destroy cancels the gesture, undoing everything it created.
func (p *ElementProxy) Destroy() {
	if p.state != Active {
		return
	}
	p.commands.Rollback()
	p.commands.Complete()
	p.view.Hide()
	p.state = Cancelled
	p.elementID = ""
}
