package event

// MouseAction is what happened to the pointer.
type MouseAction int

const (
	MouseDown MouseAction = iota
	MouseMove
	MouseUp
)

func (a MouseAction) String() string {
	switch a {
	case MouseDown:
		return "down"
	case MouseMove:
		return "move"
	case MouseUp:
		return "up"
	default:
		return "unknown"
	}
}

// MouseButton identifies the button involved in a mouse event.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Mouse is a pointer event in canvas coordinates.
type Mouse struct {
	Action MouseAction
	Button MouseButton
	X, Y   int
}

// KeyEscape is the key name published when the user cancels a gesture.
const KeyEscape = "esc"

// Key is a key press.
type Key struct {
	Name string
}

// Selection announces the elements selected after a gesture.
type Selection struct {
	ElementIDs []string
}

// History announces a change in the undo/redo depth of a session.
type History struct {
	UndoDepth int
	RedoDepth int
}
