package interact

import "chart-annotator/internal/annotation"

// Button identifies the pressed pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// PointerEvent is a pointer sample in overlay pixels.
type PointerEvent struct {
	ID     int
	X, Y   float64
	Button Button
	// Ctrl is set when the control modifier is held.
	Ctrl bool
}

// Result tells the host what became of an event. When PreventDefault is
// false the host chart may apply its own handling, such as panning or
// showing the native context menu.
type Result struct {
	Handled        bool
	PreventDefault bool
}

var (
	ignored  = Result{}
	consumed = Result{Handled: true, PreventDefault: true}
)

// DragMode is the kind of gesture in progress.
type DragMode int

const (
	DragNone DragMode = iota
	DragMove
	DragHandle
)

// Drag is the gesture state carried between pointer events.
type Drag struct {
	Mode   DragMode
	ID     string
	Handle annotation.Handle
	// Start is the pointer position in data space when a move began.
	Start annotation.DataPoint
	// Snapshot is the shape geometry when a move began.
	Snapshot annotation.Shape
}

// Host receives requests from the controller.
type Host struct {
	// OnFinishDraw runs once a drawn shape is committed.
	OnFinishDraw func()
	// OnSetTool runs when the controller changes the active tool itself.
	OnSetTool func(Tool)
}

// Capture routes subsequent pointer events to the overlay while a drag is
// in progress.
type Capture interface {
	SetPointerCapture(pointerID int)
	ReleasePointerCapture(pointerID int)
}
