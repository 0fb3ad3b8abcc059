package session

import (
	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/event"
)

// RequestLifecycle is the request half of the session command manager.
type RequestLifecycle interface {
	Start()
	Rollback()
	Complete() command.Result
}

// MouseRequestLifecycle ties requests to mouse gestures: a left button press
// starts a request, the release completes it and Escape cancels it. Only
// requests it started are completed or cancelled.
type MouseRequestLifecycle struct {
	requests RequestLifecycle
	active   bool
	unbind   []func()
}

// NewMouseRequestLifecycle returns a lifecycle driving requests.
func NewMouseRequestLifecycle(requests RequestLifecycle) *MouseRequestLifecycle {
	return &MouseRequestLifecycle{requests: requests}
}

// Bind subscribes to the mouse and key buses. Either may be nil.
func (l *MouseRequestLifecycle) Bind(mouse *event.Bus[event.Mouse], keys *event.Bus[event.Key]) {
	if mouse != nil {
		l.unbind = append(l.unbind, mouse.Subscribe(l.OnMouse))
	}
	if keys != nil {
		l.unbind = append(l.unbind, keys.Subscribe(l.OnKey))
	}
}

// Dispose unsubscribes from the buses. A gesture still in progress is
// cancelled.
func (l *MouseRequestLifecycle) Dispose() {
	for _, unsubscribe := range l.unbind {
		unsubscribe()
	}
	l.unbind = nil
	if l.active {
		l.cancel()
	}
}

// Active reports whether a gesture started by this lifecycle is in progress.
func (l *MouseRequestLifecycle) Active() bool { return l.active }

func (l *MouseRequestLifecycle) OnMouse(e event.Mouse) {
	switch e.Action {
	case event.MouseDown:
		if e.Button != event.ButtonLeft {
			return
		}
		l.requests.Start()
		l.active = true
	case event.MouseUp:
		if !l.active {
			return
		}
		l.active = false
		l.requests.Complete()
	}
}

func (l *MouseRequestLifecycle) OnKey(e event.Key) {
	if e.Name == event.KeyEscape && l.active {
		l.cancel()
	}
}

func (l *MouseRequestLifecycle) cancel() {
	l.active = false
	l.requests.Rollback()
	l.requests.Complete()
}
