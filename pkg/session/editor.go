package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/event"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/journal"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
)

// ErrNoDiagramService is returned by Save and Load without a DiagramService.
var ErrNoDiagramService = errors.New("no diagram service configured")

// EditorConfig wires the collaborators of an EditorSession. Diagrams and
// Journal are optional.
type EditorConfig struct {
	Diagrams     store.DiagramService
	Journal      *journal.Journal
	Logger       *slog.Logger
	ErrorHandler ErrorHandler
}

// EditorSession is one diagram editing session: the canvas handler, its
// session command manager, the input and notification buses and the mouse
// request lifecycle.
type EditorSession struct {
	handler   *canvas.Handler
	commands  *Manager[*canvas.Handler]
	lifecycle *MouseRequestLifecycle

	mouse     *event.Bus[event.Mouse]
	keys      *event.Bus[event.Key]
	selection *event.Bus[event.Selection]
	history   *event.Bus[event.History]

	diagrams store.DiagramService
	journal  *journal.Journal
	logger   *slog.Logger

	ctx     context.Context
	unbind  []func()
	started bool
}

// NewEditorSession creates a session editing d. Call Init before use.
func NewEditorSession(d *graph.Diagram, cfg EditorConfig) *EditorSession {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	commands := NewManager[*canvas.Handler](Options{Logger: logger, ErrorHandler: cfg.ErrorHandler})
	return &EditorSession{
		handler:   canvas.NewHandler(d),
		commands:  commands,
		lifecycle: NewMouseRequestLifecycle(commands),
		mouse:     event.NewBus[event.Mouse](),
		keys:      event.NewBus[event.Key](),
		selection: event.NewBus[event.Selection](),
		history:   event.NewBus[event.History](),
		diagrams:  cfg.Diagrams,
		journal:   cfg.Journal,
		logger:    logger,
	}
}

// Init binds the mouse lifecycle and the journal. ctx bounds journal writes
// for the lifetime of the session.
func (s *EditorSession) Init(ctx context.Context) error {
	if s.started {
		return nil
	}
	s.ctx = ctx
	s.lifecycle.Bind(s.mouse, s.keys)
	s.unbind = append(s.unbind, s.commands.OnRegister(s.onHistory))
	if s.journal != nil {
		if err := s.journal.Begin(ctx, s.handler.Diagram()); err != nil {
			s.Dispose()
			return fmt.Errorf("failed to begin journal: %w", err)
		}
	}
	s.started = true
	s.logger.Info("Editor session started", "diagramID", s.handler.Diagram().ID)
	return nil
}

// Dispose cancels a gesture in progress and releases subscriptions.
func (s *EditorSession) Dispose() {
	s.lifecycle.Dispose()
	for _, unsubscribe := range s.unbind {
		unsubscribe()
	}
	s.unbind = nil
	if s.started {
		s.logger.Info("Editor session disposed", "diagramID", s.handler.Diagram().ID)
	}
	s.started = false
}

func (s *EditorSession) onHistory(change HistoryChange[*canvas.Handler]) {
	s.history.Publish(event.History{
		UndoDepth: s.commands.Registry().Size(),
		RedoDepth: s.commands.RedoRegistry().Size(),
	})
	if s.journal == nil {
		return
	}
	id := s.handler.Diagram().ID
	if err := s.journal.Record(s.ctx, id, change.Op.String(), change.Entry); err != nil {
		s.logger.Error("Failed to journal history change", "error", err, "diagramID", id, "op", change.Op.String())
	}
}

func (s *EditorSession) Handler() *canvas.Handler               { return s.handler }
func (s *EditorSession) Commands() *Manager[*canvas.Handler]    { return s.commands }
func (s *EditorSession) Lifecycle() *MouseRequestLifecycle      { return s.lifecycle }
func (s *EditorSession) Mouse() *event.Bus[event.Mouse]         { return s.mouse }
func (s *EditorSession) Keys() *event.Bus[event.Key]            { return s.keys }
func (s *EditorSession) Selection() *event.Bus[event.Selection] { return s.selection }
func (s *EditorSession) History() *event.Bus[event.History]     { return s.history }
func (s *EditorSession) Diagram() *graph.Diagram                { return s.handler.Diagram() }
func (s *EditorSession) Logger() *slog.Logger                   { return s.logger }
func (s *EditorSession) Execute(cmd canvas.Command) command.Result {
	return s.commands.Execute(s.handler, cmd)
}
func (s *EditorSession) Undo() command.Result { return s.commands.Undo(s.handler) }
func (s *EditorSession) Redo() command.Result { return s.commands.Redo(s.handler) }

// Save stores the edited diagram.
func (s *EditorSession) Save(ctx context.Context) error {
	if s.diagrams == nil {
		return ErrNoDiagramService
	}
	d := s.handler.Diagram()
	if err := s.diagrams.SaveDiagram(ctx, d); err != nil {
		return err
	}
	s.logger.Info("Diagram saved", "diagramID", d.ID, "nodes", d.Graph.NodeCount(), "edges", d.Graph.EdgeCount())
	return nil
}

// Load replaces the edited diagram with the stored one. The history of the
// previous diagram is dropped.
func (s *EditorSession) Load(ctx context.Context, id string) error {
	if s.diagrams == nil {
		return ErrNoDiagramService
	}
	d, err := s.diagrams.LoadDiagram(ctx, id)
	if err != nil {
		return err
	}
	if s.journal != nil {
		if err := s.journal.Begin(ctx, d); err != nil {
			return fmt.Errorf("failed to begin journal: %w", err)
		}
	}
	s.commands.Clear()
	s.handler.SetDiagram(d)
	s.history.Publish(event.History{})
	s.logger.Info("Diagram loaded", "diagramID", d.ID)
	return nil
}
